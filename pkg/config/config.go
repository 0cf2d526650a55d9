package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config represents the application configuration.
type Config struct {
	Addr      string       `json:"addr"`
	Google    GoogleConfig `json:"google"`
	LogLevel  string       `json:"log_level"`
	LogFormat string       `json:"log_format"`
	LogFile   string       `json:"log_file"`
}

// GoogleConfig holds the Gemini API configuration.
type GoogleConfig struct {
	APIKey            string  `json:"api_key"`
	Model             string  `json:"model"`
	SystemInstruction string  `json:"system_instruction"`
	Temperature       float64 `json:"temperature"`
	MaxOutputTokens   int     `json:"max_output_tokens"`
	APITimeoutSeconds int     `json:"api_timeout_seconds"`
}

// DefaultSystemInstruction is sent with every chat session.
const DefaultSystemInstruction = "You are a helpful assistant. Keep answers concise. " +
	"You may use **bold**, *italics* and `inline code` for emphasis."

// Default returns a configuration with default values.
func Default() Config {
	return Config{
		Addr: "localhost:8080",
		Google: GoogleConfig{
			APIKey:            "",
			Model:             "gemini-3-flash-preview",
			SystemInstruction: DefaultSystemInstruction,
			Temperature:       0.7,
			MaxOutputTokens:   2048,
			APITimeoutSeconds: 120,
		},
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load loads configuration from the specified path.
// If the file doesn't exist, creates one with default values.
// Environment variables override config file values.
func Load(configPath string) (Config, error) {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return Config{}, fmt.Errorf("failed to create config directory: %w", err)
	}

	var cfg Config
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		cfg = Default()
		if err := Save(configPath, cfg); err != nil {
			return Config{}, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save saves the configuration to the specified path.
func Save(configPath string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		cfg.Google.APIKey = apiKey
	}
	if model := os.Getenv("GEMCHAT_MODEL"); model != "" {
		cfg.Google.Model = model
	}
	if addr := os.Getenv("GEMCHAT_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if level := os.Getenv("GEMCHAT_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if format := os.Getenv("GEMCHAT_LOG_FORMAT"); format != "" {
		cfg.LogFormat = format
	}
	if file := os.Getenv("GEMCHAT_LOG_FILE"); file != "" {
		cfg.LogFile = file
	}
	if timeoutStr := os.Getenv("GEMCHAT_API_TIMEOUT"); timeoutStr != "" {
		if timeout, err := strconv.Atoi(timeoutStr); err == nil {
			cfg.Google.APITimeoutSeconds = timeout
		}
	}
}

// HasAPIKey reports whether a Gemini API key is configured.
// A missing key is not a Validate failure: the app still serves the UI
// and surfaces the problem as a transcript error.
func (c Config) HasAPIKey() bool {
	return strings.TrimSpace(c.Google.APIKey) != ""
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("addr is required")
	}
	if strings.TrimSpace(c.Google.Model) == "" {
		return fmt.Errorf("google model is required")
	}
	if c.Google.Temperature < 0 || c.Google.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got: %f", c.Google.Temperature)
	}
	if c.Google.MaxOutputTokens <= 0 {
		return fmt.Errorf("max_output_tokens must be positive, got: %d", c.Google.MaxOutputTokens)
	}
	if c.Google.APITimeoutSeconds <= 0 {
		return fmt.Errorf("api_timeout_seconds must be positive, got: %d", c.Google.APITimeoutSeconds)
	}
	return nil
}

// GetConfigPath returns the default configuration file path.
func GetConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".gemchat", "config.json")
	}
	return filepath.Join(homeDir, ".gemchat", "config.json")
}
