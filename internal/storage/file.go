package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

const probeFile = ".write-probe"

// FileStore writes one JSON file per key under a directory
type FileStore struct {
	fs  afero.Fs
	dir string
}

// NewFileStore prepares dir on fsys and verifies it is writable
func NewFileStore(fsys afero.Fs, dir string) (*FileStore, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	probe := filepath.Join(dir, probeFile)
	if err := afero.WriteFile(fsys, probe, []byte("ok"), 0o644); err != nil {
		return nil, fmt.Errorf("storage directory is not writable: %w", err)
	}
	_ = fsys.Remove(probe)

	return &FileStore{fs: fsys, dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	payload, err := afero.ReadFile(s.fs, s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return payload, true, nil
}

// Save writes to a temp file and renames it over the target so readers
// never observe a half-written collection.
func (s *FileStore) Save(_ context.Context, key string, payload []byte) error {
	tmp := s.path(key) + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := s.fs.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	err := s.fs.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Persistent() bool { return true }

func (s *FileStore) Close() error { return nil }
