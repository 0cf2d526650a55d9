// Package web serves the browser chat interface: a server-rendered
// transcript page, form endpoints for sending messages and managing
// the attachment slot, and a Server-Sent Events stream that pushes
// transcript updates to the page as a response streams in.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"gemchat/pkg/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	// MaxMessageBytes bounds the chat form body.
	MaxMessageBytes = 64 * 1024

	// MaxAttachmentBytes bounds an uploaded file. The payload travels
	// inline in the API request, so this stays modest.
	MaxAttachmentBytes = 10 * 1024 * 1024
)

// Server hosts the chat front end.
type Server struct {
	addr       string
	controller *session.Controller
	broker     *Broker
	templates  *template.Template
	httpServer *http.Server
}

// NewServer creates the web server around an existing controller. The
// controller's notifier should be the value returned by Notifier() so
// send progress reaches connected browsers.
func NewServer(addr string, controller *session.Controller) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		addr:       addr,
		controller: controller,
		broker:     NewBroker(),
		templates:  tmpl,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleIndex)
	mux.Handle("GET /events", s.broker)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /attach", s.handleAttach)
	mux.HandleFunc("POST /detach", s.handleDetach)

	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to mount static files: %w", err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Notifier returns a session.Notifier that broadcasts send progress to
// every connected browser.
func (s *Server) Notifier() session.Notifier {
	return &sseNotifier{broker: s.broker}
}

// Broker exposes the SSE broker, mainly for tests.
func (s *Server) Broker() *Broker {
	return s.broker
}

// Handler returns the server's root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe runs the server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_listening", "addr", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = s.broker.Shutdown(shutdownCtx)
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	slog.Info("server_stopped")
	return <-errCh
}

// entryView is one transcript entry prepared for the template. HTML is
// produced by the markup renderer, which escapes user input before
// substituting tags, so marking it trusted here is safe.
type entryView struct {
	Sender string
	HTML   template.HTML
}

type indexView struct {
	Entries    []entryView
	Attachment string
	Busy       bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	view := indexView{Busy: s.controller.Busy()}
	for _, e := range s.controller.Transcript().Entries() {
		view.Entries = append(view.Entries, entryView{
			Sender: string(e.Sender),
			HTML:   template.HTML(e.HTML),
		})
	}
	if file, ok := s.controller.Attachments().Current(); ok {
		view.Attachment = file.Name
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", view); err != nil {
		slog.Error("template_render_failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// handleChat runs one send synchronously. Progress and failures reach
// the page over SSE; the response only acknowledges the request, so an
// upstream failure is still a 200 here.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxMessageBytes)

	// The send blocks until the model finishes streaming, which can
	// outlive the server's WriteTimeout; the ack must stay writable.
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form data"})
		return
	}

	message := r.FormValue("message")
	err := s.controller.Send(r.Context(), message)
	if errors.Is(err, session.ErrEmptyMessage) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is empty"})
		return
	}
	if err != nil {
		slog.Warn("chat_send_failed", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAttach(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxAttachmentBytes)
	if err := r.ParseMultipartForm(MaxAttachmentBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid upload"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file field"})
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read upload"})
		return
	}

	s.controller.Attachments().Attach(header.Filename, header.Header.Get("Content-Type"), raw)
	slog.Info("attachment_staged", "name", header.Filename, "size", len(raw))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "name": header.Filename})
}

func (s *Server) handleDetach(w http.ResponseWriter, r *http.Request) {
	s.controller.Attachments().Clear()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("json_write_failed", "error", err)
	}
}

// sseNotifier forwards controller events to the broker. The AI entry
// is re-broadcast in full on every chunk; the page replaces the
// in-progress bubble wholesale.
type sseNotifier struct {
	broker *Broker
}

func (n *sseNotifier) UserMessage(html string) {
	n.broker.Broadcast(EventUserMessage, map[string]string{"html": html})
}

func (n *sseNotifier) AIUpdate(html string) {
	n.broker.Broadcast(EventAIChunk, map[string]string{"html": html})
}

func (n *sseNotifier) Error(html string) {
	n.broker.Broadcast(EventError, map[string]string{"html": html})
}

func (n *sseNotifier) Done() {
	n.broker.Broadcast(EventDone, map[string]bool{"done": true})
}

var _ session.Notifier = (*sseNotifier)(nil)
