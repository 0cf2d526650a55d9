// Package transcript maintains the ordered, append-only chat log shown
// to the user. Entries are immutable once written, except the
// in-progress AI entry, whose text is replaced wholesale on every
// streamed chunk through its handle.
package transcript

import (
	"sync"

	"gemchat/pkg/markup"
)

// Sender identifies who produced a transcript entry.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAI    Sender = "ai"
	SenderError Sender = "error"
)

// Entry is one transcript line plus its rendered HTML. The handle
// returned by Append allows in-place updates of a streaming AI entry.
type Entry struct {
	t      *Transcript
	sender Sender
	text   string
	html   string
}

// Snapshot is a read-only copy of an entry.
type Snapshot struct {
	Sender Sender
	Text   string
	HTML   string
}

// Transcript is a thread-safe append-only list of entries.
type Transcript struct {
	mu      sync.RWMutex
	entries []*Entry
}

func New() *Transcript {
	return &Transcript{}
}

// Append renders text and adds a new entry, returning its handle.
func (t *Transcript) Append(text string, sender Sender) *Entry {
	e := &Entry{
		t:      t,
		sender: sender,
		text:   text,
		html:   markup.Render(text),
	}
	t.mu.Lock()
	t.entries = append(t.entries, e)
	t.mu.Unlock()
	return e
}

// Entries returns a snapshot of all entries in order.
func (t *Transcript) Entries() []Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Snapshot, len(t.entries))
	for i, e := range t.entries {
		out[i] = Snapshot{Sender: e.sender, Text: e.text, HTML: e.html}
	}
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// SetText replaces the entry's displayed text and re-renders it.
func (e *Entry) SetText(text string) {
	e.t.mu.Lock()
	e.text = text
	e.html = markup.Render(text)
	e.t.mu.Unlock()
}

// Text returns the entry's current raw text.
func (e *Entry) Text() string {
	e.t.mu.RLock()
	defer e.t.mu.RUnlock()
	return e.text
}

// HTML returns the entry's current rendered HTML.
func (e *Entry) HTML() string {
	e.t.mu.RLock()
	defer e.t.mu.RUnlock()
	return e.html
}

// Sender returns who produced the entry.
func (e *Entry) Sender() Sender {
	return e.sender
}
