package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Event types sent to the browser.
const (
	// EventUserMessage carries a rendered user transcript entry.
	// Data schema: {"html": string}
	EventUserMessage = "user-message"

	// EventAIChunk carries the full re-rendered AI response so far;
	// the client replaces the in-progress entry wholesale.
	// Data schema: {"html": string}
	EventAIChunk = "ai-chunk"

	// EventError carries a rendered error transcript entry.
	// Data schema: {"html": string}
	EventError = "error"

	// EventDone signals the end of a send; the client re-enables
	// input. Sent after success and after failure alike.
	// Data schema: {"done": bool}
	EventDone = "done"

	// MaxConnections caps concurrent SSE connections.
	MaxConnections = 16
)

// Event represents a Server-Sent Event with a named type and JSON data.
type Event struct {
	Type string
	Data interface{}
}

// connection is a single open SSE connection.
type connection struct {
	writer  http.ResponseWriter
	flusher http.Flusher
	mu      sync.Mutex
	done    chan struct{}
}

// Broker fans events out to every connected browser. This is a
// single-user application, so events are broadcast; there is no
// session keying.
type Broker struct {
	mu          sync.RWMutex
	connections map[*connection]struct{}
}

// NewBroker creates a new SSE broker.
func NewBroker() *Broker {
	return &Broker{
		connections: make(map[*connection]struct{}),
	}
}

// ServeHTTP handles SSE connection requests: it registers the
// connection and keeps it open until the client disconnects.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.RLock()
	current := len(b.connections)
	b.mu.RUnlock()
	if current >= MaxConnections {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// The server's WriteTimeout would otherwise kill long-lived SSE
	// connections. httptest recorders don't support the response
	// controller; ignoring the error there is fine.
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	conn := &connection{
		writer:  w,
		flusher: flusher,
		done:    make(chan struct{}),
	}

	b.addConnection(conn)
	defer b.removeConnection(conn)

	_ = b.sendToConnection(conn, Event{
		Type: "connected",
		Data: map[string]bool{"ok": true},
	})

	select {
	case <-r.Context().Done():
		// Client disconnected
	case <-conn.done:
		// Connection closed by broker
	}
}

// Broadcast sends an event to every connected client. Send errors are
// ignored; a failed connection is cleaned up when its handler returns.
func (b *Broker) Broadcast(eventType string, data interface{}) {
	b.mu.RLock()
	connections := make([]*connection, 0, len(b.connections))
	for conn := range b.connections {
		connections = append(connections, conn)
	}
	b.mu.RUnlock()

	event := Event{Type: eventType, Data: data}
	for _, conn := range connections {
		if err := b.sendToConnection(conn, event); err != nil {
			slog.Debug("sse_send_failed", "error", err)
		}
	}
}

// ConnectionCount returns the number of active connections.
func (b *Broker) ConnectionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.connections)
}

func (b *Broker) addConnection(conn *connection) {
	b.mu.Lock()
	b.connections[conn] = struct{}{}
	b.mu.Unlock()
}

func (b *Broker) removeConnection(conn *connection) {
	b.mu.Lock()
	delete(b.connections, conn)
	b.mu.Unlock()
}

// sendToConnection writes one event in SSE wire format:
//
//	event: <type>
//	data: <json>
//	<blank line>
func (b *Broker) sendToConnection(conn *connection, event Event) error {
	jsonData, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()

	if _, err := fmt.Fprintf(conn.writer, "event: %s\ndata: %s\n\n", event.Type, jsonData); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	conn.flusher.Flush()
	return nil
}

// Shutdown closes all connections.
func (b *Broker) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.connections {
		close(conn.done)
		delete(b.connections, conn)
	}
	return nil
}
