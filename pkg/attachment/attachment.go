// Package attachment holds the single pending file a user may attach
// to their next message.
package attachment

import (
	"encoding/base64"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// File is a pending attachment. Data is the base64-encoded payload.
type File struct {
	Name     string
	MIMEType string
	Data     string
}

// Bytes returns the decoded payload.
func (f File) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(f.Data)
}

// Manager owns the attachment slot. At most one file is held at a
// time; attaching replaces any existing file, and Take consumes the
// slot atomically so a send can never reuse stale data.
type Manager struct {
	mu   sync.Mutex
	file *File
}

// NewManager creates an empty attachment manager.
func NewManager() *Manager {
	return &Manager{}
}

// Attach stores raw file content, replacing any existing attachment.
// Last write wins when attaches race.
func (m *Manager) Attach(name, mimeType string, raw []byte) File {
	if mimeType == "" {
		mimeType = sniffMIME(name, raw)
	}
	f := File{
		Name:     name,
		MIMEType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(raw),
	}

	m.mu.Lock()
	m.file = &f
	m.mu.Unlock()
	return f
}

// AttachPath reads a file from disk and attaches it. Used by the
// terminal front end's /attach command.
func (m *Manager) AttachPath(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return m.Attach(filepath.Base(path), "", raw), nil
}

// Current returns the pending attachment without consuming it.
func (m *Manager) Current() (File, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file == nil {
		return File{}, false
	}
	return *m.file, true
}

// Take snapshots and clears the slot in one step. The caller owns the
// returned file; a concurrent or retried send sees an empty slot.
func (m *Manager) Take() (File, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file == nil {
		return File{}, false
	}
	f := *m.file
	m.file = nil
	return f, true
}

// Clear removes the pending attachment, if any.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.file = nil
	m.mu.Unlock()
}

// sniffMIME picks a MIME type from the file extension, falling back to
// content detection.
func sniffMIME(name string, raw []byte) string {
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		if mt := mime.TypeByExtension(ext); mt != "" {
			return mt
		}
	}
	return http.DetectContentType(raw)
}
