// Package storage persists submitted session files on disk and in the cloud.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrInvalidName is returned for names that would escape the data directory.
var ErrInvalidName = errors.New("invalid file name")

// Uploader copies a session file to remote storage.
type Uploader interface {
	Upload(ctx context.Context, name string, content []byte) error
}

// SessionFilename is the file name used for a participant's session, both on
// disk and in the bucket.
func SessionFilename(participantID string) string {
	return fmt.Sprintf("dados_participante_%s.json", participantID)
}

// LocalStore writes session files into a single directory.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the directory if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir returns the directory files are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name), nil
}

// Save writes content atomically: readers see either the old file or the new
// one, never a partial write.
func (s *LocalStore) Save(name string, content []byte) error {
	target, err := s.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("renaming %s: %w", name, err)
	}
	return nil
}

// Read returns the content of a stored file.
func (s *LocalStore) Read(name string) ([]byte, error) {
	target, err := s.path(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(target)
}
