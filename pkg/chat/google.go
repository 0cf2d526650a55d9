package chat

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gemchat/pkg/config"

	"google.golang.org/genai"
)

type googleModelsClient interface {
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

var newGoogleClient = func(ctx context.Context, cfg *genai.ClientConfig) (*genai.Client, error) {
	return genai.NewClient(ctx, cfg)
}

// GoogleSession implements Session using the native Google AI SDK.
// Conversation history is retained across sends so the model sees the
// full exchange; a send that fails leaves history untouched, so the
// user can simply resubmit.
type GoogleSession struct {
	mu      sync.Mutex
	models  googleModelsClient
	model   string
	config  *genai.GenerateContentConfig
	history []*genai.Content
	timeout time.Duration
}

// NewGoogleSession creates a chat session from config.
func NewGoogleSession(ctx context.Context, cfg config.GoogleConfig) (*GoogleSession, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		slog.Debug("google_session_missing_key")
		return nil, fmt.Errorf("google api_key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("google model is required")
	}

	client, err := newGoogleClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create google client: %w", err)
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(cfg.Temperature)),
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			// Disable explicit thinking generation to avoid exposing
			// planning-style text from Gemini preview models in chat.
			ThinkingBudget: genai.Ptr(int32(0)),
		},
	}
	if instruction := strings.TrimSpace(cfg.SystemInstruction); instruction != "" {
		genConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: instruction}},
		}
	}
	if cfg.MaxOutputTokens > 0 {
		genConfig.MaxOutputTokens = int32(cfg.MaxOutputTokens)
	}

	timeoutSeconds := cfg.APITimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 120
	}

	slog.Debug("google_session_ready",
		"model", model,
		"timeout_seconds", timeoutSeconds,
	)
	return &GoogleSession{
		models:  client.Models,
		model:   model,
		config:  genConfig,
		timeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// SendMessageStream submits the content parts and returns a stream of
// response chunks. History is committed only after the stream ends
// without error.
func (s *GoogleSession) SendMessageStream(ctx context.Context, parts ...Part) (Stream, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("at least one content part is required")
	}

	userContent := &genai.Content{Role: genai.RoleUser, Parts: toGenaiParts(parts)}

	s.mu.Lock()
	contents := make([]*genai.Content, len(s.history), len(s.history)+1)
	copy(contents, s.history)
	contents = append(contents, userContent)
	s.mu.Unlock()

	callCtx, cancel := s.withTimeout(ctx)
	stream := s.models.GenerateContentStream(callCtx, s.model, contents, s.config)

	return newGoogleStream(stream, cancel, func(reply string) {
		s.commit(userContent, reply)
	}), nil
}

// commit appends the completed exchange to the session history.
func (s *GoogleSession) commit(userContent *genai.Content, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, userContent, &genai.Content{
		Role:  genai.RoleModel,
		Parts: []*genai.Part{{Text: reply}},
	})
}

func (s *GoogleSession) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline || s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func toGenaiParts(parts []Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.Data != nil {
			out = append(out, &genai.Part{
				InlineData: &genai.Blob{MIMEType: p.MIMEType, Data: p.Data},
			})
			continue
		}
		out = append(out, &genai.Part{Text: p.Text})
	}
	return out
}

type googleStreamEvent struct {
	delta string
	err   error
	done  bool
}

type googleStream struct {
	events  chan googleStreamEvent
	current Chunk
	err     error
	done    bool
	cancel  context.CancelFunc
}

func newGoogleStream(stream iter.Seq2[*genai.GenerateContentResponse, error], cancel context.CancelFunc, onDone func(reply string)) *googleStream {
	s := &googleStream{
		events: make(chan googleStreamEvent, 32),
		cancel: cancel,
	}
	go func() {
		defer close(s.events)
		var output strings.Builder
		for resp, err := range stream {
			if err != nil {
				s.events <- googleStreamEvent{err: err}
				return
			}
			delta := extractVisibleText(resp)
			if delta == "" {
				continue
			}
			output.WriteString(delta)
			s.events <- googleStreamEvent{delta: delta}
		}
		if onDone != nil {
			onDone(output.String())
		}
		s.events <- googleStreamEvent{done: true}
	}()
	return s
}

func (s *googleStream) Next() bool {
	if s.done || s.err != nil {
		return false
	}

	for ev := range s.events {
		if ev.err != nil {
			s.err = ev.err
			s.done = true
			return false
		}
		if ev.done {
			s.done = true
			return false
		}
		if ev.delta == "" {
			continue
		}
		s.current = Chunk{Text: ev.delta}
		return true
	}

	s.done = true
	return false
}

func (s *googleStream) Chunk() Chunk {
	return s.current
}

func (s *googleStream) Err() error {
	return s.err
}

func (s *googleStream) Close() error {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.done {
		return nil
	}
	// Drain remaining events to allow producer goroutine to finish.
	for range s.events {
	}
	s.done = true
	return nil
}

// Ensure interface compliance
var _ Session = (*GoogleSession)(nil)

func extractVisibleText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}
