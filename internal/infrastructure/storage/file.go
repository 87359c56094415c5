package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rasmith-dev/propadmin/internal/core/domain"
	"github.com/rasmith-dev/propadmin/internal/core/ports"
)

// fileDoc is the on-disk layout; the keys match the browser storage keys.
type fileDoc struct {
	Token string `json:"token,omitempty"`
	User  string `json:"user,omitempty"`
}

// File stores the session pair as one JSON document. Writes go to a temp
// file in the same directory and are renamed over the target, so readers
// see either the old pair or the new one.
type File struct {
	path string
	mu   sync.RWMutex
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string { return f.path }

func (f *File) Load(_ context.Context) (ports.StoredSession, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return ports.StoredSession{}, nil
	}
	if err != nil {
		return ports.StoredSession{}, fmt.Errorf("read session file: %w", err)
	}
	var doc fileDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return ports.StoredSession{}, fmt.Errorf("%w: %v", domain.ErrCorruptSession, err)
	}
	return ports.StoredSession{Token: doc.Token, User: doc.User}, nil
}

func (f *File) Save(_ context.Context, token, user string) error {
	b, err := json.Marshal(fileDoc{Token: token, User: user})
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
