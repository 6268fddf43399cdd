package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	domain "github.com/rkhanna/amulwatch/pkg/types"
)

// JSONFile implements Store on a single JSON document, written with a
// temp-file-plus-rename so a crash mid-write leaves the previous state
// authoritative.
type JSONFile struct {
	path string
	log  *slog.Logger
}

// JSONFileOption configures a JSONFile store.
type JSONFileOption func(*JSONFile)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) JSONFileOption {
	return func(s *JSONFile) {
		s.log = l
	}
}

// NewJSONFile creates a JSON file store at path.
func NewJSONFile(path string, opts ...JSONFileOption) *JSONFile {
	s := &JSONFile{
		path: path,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load implements Store.Load.
func (s *JSONFile) Load(_ context.Context) (*domain.State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("state file unreadable, starting empty", "path", s.path, "error", err)
		}
		return domain.NewState(), nil
	}

	st := domain.NewState()
	if err := json.Unmarshal(data, st); err != nil {
		s.log.Warn("state file corrupt, starting empty", "path", s.path, "error", err)
		return domain.NewState(), nil
	}
	if st.Tracked == nil {
		st.Tracked = map[string]domain.Snapshot{}
	}
	return st, nil
}

// Save implements Store.Save.
func (s *JSONFile) Save(_ context.Context, st *domain.State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	// Temp file in the same directory so the rename stays on one
	// filesystem and is atomic.
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp state file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
