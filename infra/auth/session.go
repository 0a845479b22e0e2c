package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/CrestNiraj12/novaterm/app"
	"github.com/CrestNiraj12/novaterm/domain"
)

var (
	_ app.Session      = (*FileSession)(nil)
	_ app.ViewerSource = StaticViewer("")
)

// FileSession keeps the viewer's user ID in a file on disk.
type FileSession struct {
	path string
}

// NewFileSession creates a session backed by the given file path.
func NewFileSession(path string) *FileSession {
	return &FileSession{path: path}
}

// Path returns the session file location.
func (f *FileSession) Path() string {
	return f.path
}

// ViewerID reads and returns the stored user ID, trimming whitespace.
// A missing or empty file means nobody is logged in.
func (f *FileSession) ViewerID() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no session at %s (run `novaterm login`): %w", f.path, domain.ErrUnauthorized)
		}
		return "", fmt.Errorf("reading session from %s: %w", f.path, err)
	}

	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", fmt.Errorf("session file %s is empty: %w", f.path, domain.ErrUnauthorized)
	}

	return id, nil
}

// Save stores the user ID, creating the parent directory if needed.
func (f *FileSession) Save(viewerID string) error {
	viewerID = strings.TrimSpace(viewerID)
	if viewerID == "" {
		return fmt.Errorf("refusing to save an empty session")
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(viewerID+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// Clear removes the session file. Clearing a missing session is not an error.
func (f *FileSession) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}

// StaticViewer is a fixed viewer ID, used by the demo backend.
type StaticViewer string

func (s StaticViewer) ViewerID() (string, error) {
	if s == "" {
		return "", domain.ErrUnauthorized
	}
	return string(s), nil
}
