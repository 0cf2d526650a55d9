package web

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func waitForConnections(t *testing.T, b *Broker, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if b.ConnectionCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected %d connections, got %d", want, b.ConnectionCount())
}

// readEvent reads one "event:"/"data:" pair, skipping blank lines.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var eventType, data string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("Failed to read SSE stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && eventType != "":
			return eventType, data
		}
	}
}

func TestBrokerBroadcast(t *testing.T) {
	broker := NewBroker()
	server := httptest.NewServer(broker)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected text/event-stream, got %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	eventType, _ := readEvent(t, reader)
	if eventType != "connected" {
		t.Fatalf("Expected connected event first, got %q", eventType)
	}

	waitForConnections(t, broker, 1)
	broker.Broadcast(EventAIChunk, map[string]string{"html": "Hel"})

	eventType, data := readEvent(t, reader)
	if eventType != EventAIChunk {
		t.Errorf("Expected %q event, got %q", EventAIChunk, eventType)
	}
	if !strings.Contains(data, `"html":"Hel"`) {
		t.Errorf("Expected html payload, got %q", data)
	}
}

func TestBrokerShutdownClosesConnections(t *testing.T) {
	broker := NewBroker()
	server := httptest.NewServer(broker)
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer resp.Body.Close()

	waitForConnections(t, broker, 1)
	if err := broker.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
	waitForConnections(t, broker, 0)
}

func TestBrokerBroadcastWithoutConnections(t *testing.T) {
	broker := NewBroker()
	// Must not panic or block.
	broker.Broadcast(EventDone, map[string]bool{"done": true})
	if broker.ConnectionCount() != 0 {
		t.Errorf("Expected no connections, got %d", broker.ConnectionCount())
	}
}
