// Package store persists the council configuration as a JSON file.
//
// Writes are atomic (temp file then rename) so a crash mid-write can
// never leave a partial configuration on disk, and guarded by an
// advisory file lock so two processes cannot interleave the temp/rename
// pair. Reads are lock-free; replace is last-writer-wins.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danmuck/councilctl/internal/council"
	"github.com/gofrs/flock"
)

// FileStore keeps the configuration in one JSON file. It implements the
// council.Store port.
type FileStore struct {
	path string
	lock *flock.Flock
}

var _ council.Store = (*FileStore)(nil)

// NewFileStore creates a store backed by the given file path. The parent
// directory is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Load reads the persisted configuration. council.ErrNotFound means no
// write has happened yet; other errors are real IO or corruption
// failures.
func (s *FileStore) Load() (council.Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return council.Config{}, council.ErrNotFound
		}
		return council.Config{}, fmt.Errorf("store: read %s: %w", s.path, err)
	}
	var cfg council.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return council.Config{}, fmt.Errorf("store: parse %s: %w", s.path, err)
	}
	return cfg, nil
}

// Write atomically replaces the persisted configuration.
func (s *FileStore) Write(cfg council.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode config: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("store: create %s: %w", dir, err)
		}
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("store: lock %s: %w", s.lock.Path(), err)
	}
	defer func() { _ = s.lock.Unlock() }()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("store: rename %s: %w", tmp, err)
	}
	return nil
}
