package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gemchat/pkg/attachment"
	"gemchat/pkg/chat"
	"gemchat/pkg/config"
	"gemchat/pkg/logging"
	"gemchat/pkg/session"
	"gemchat/pkg/transcript"
	"gemchat/pkg/tui"
	"gemchat/pkg/version"
	"gemchat/pkg/web"
)

func main() {
	var (
		addrFlag    = flag.String("addr", "", "listen address for the web interface (overrides config)")
		tuiFlag     = flag.Bool("tui", false, "run the terminal interface instead of the web server")
		versionFlag = flag.Bool("version", false, "print version information and exit")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.Info())
		return
	}

	cfg, err := config.Load(config.GetConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	if _, err := logging.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}
	slog.Info("gemchat_starting", "version", version.Summary(), "model", cfg.Google.Model)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tr := transcript.New()
	attachments := attachment.NewManager()

	// A missing API key is not fatal: the UI comes up and renders the
	// problem in the transcript, where the user will see it.
	var chatSession chat.Session
	if cfg.HasAPIKey() {
		googleSession, err := chat.NewGoogleSession(ctx, cfg.Google)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating chat session: %v\n", err)
			os.Exit(1)
		}
		chatSession = googleSession
	} else {
		slog.Warn("api_key_missing", "config_path", config.GetConfigPath())
		tr.Append(
			"No API key configured. Set GEMINI_API_KEY or add it to "+config.GetConfigPath()+".",
			transcript.SenderError,
		)
	}

	if *tuiFlag {
		if err := tui.Run(ctx, chatSession, tr, attachments); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	controller := session.NewController(chatSession, tr, attachments, nil)
	server, err := web.NewServer(cfg.Addr, controller)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}
	controller.SetNotifier(server.Notifier())

	fmt.Printf("gemchat listening on http://%s\n", cfg.Addr)
	if err := server.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
