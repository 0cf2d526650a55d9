package attachment

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAttachReplacesExisting(t *testing.T) {
	m := NewManager()

	m.Attach("first.txt", "text/plain", []byte("one"))
	m.Attach("second.txt", "text/plain", []byte("two"))

	f, ok := m.Current()
	if !ok {
		t.Fatal("Expected an attachment")
	}
	if f.Name != "second.txt" {
		t.Errorf("Expected second attachment to win, got %q", f.Name)
	}

	raw, err := f.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error: %v", err)
	}
	if !bytes.Equal(raw, []byte("two")) {
		t.Errorf("Expected payload %q, got %q", "two", raw)
	}
}

func TestTakeConsumesSlot(t *testing.T) {
	m := NewManager()
	m.Attach("doc.txt", "text/plain", []byte("data"))

	f, ok := m.Take()
	if !ok {
		t.Fatal("Expected Take to return the attachment")
	}
	if f.Name != "doc.txt" {
		t.Errorf("Expected doc.txt, got %q", f.Name)
	}

	if _, ok := m.Take(); ok {
		t.Error("Expected slot to be empty after Take")
	}
	if _, ok := m.Current(); ok {
		t.Error("Expected Current to report empty after Take")
	}
}

func TestClear(t *testing.T) {
	m := NewManager()
	m.Attach("doc.txt", "text/plain", []byte("data"))
	m.Clear()

	if _, ok := m.Current(); ok {
		t.Error("Expected no attachment after Clear")
	}
}

func TestTakeEmpty(t *testing.T) {
	m := NewManager()
	if _, ok := m.Take(); ok {
		t.Error("Expected Take on empty manager to return false")
	}
}

func TestAttachPath(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0600); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	m := NewManager()
	f, err := m.AttachPath(path)
	if err != nil {
		t.Fatalf("AttachPath() error: %v", err)
	}
	if f.Name != "notes.txt" {
		t.Errorf("Expected base name notes.txt, got %q", f.Name)
	}
	if !strings.HasPrefix(f.MIMEType, "text/plain") {
		t.Errorf("Expected text/plain MIME type, got %q", f.MIMEType)
	}
	if _, ok := m.Current(); !ok {
		t.Error("Expected attachment to be stored")
	}
}

func TestAttachPathMissingFileLeavesSlotEmpty(t *testing.T) {
	m := NewManager()
	if _, err := m.AttachPath(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("Expected error for missing file")
	}
	if _, ok := m.Current(); ok {
		t.Error("Failed read must leave no attachment")
	}
}

func TestSniffMIMEFallsBackToContentDetection(t *testing.T) {
	m := NewManager()
	f := m.Attach("noext", "", []byte("plain text content"))
	if !strings.HasPrefix(f.MIMEType, "text/plain") {
		t.Errorf("Expected detected text/plain, got %q", f.MIMEType)
	}
}
