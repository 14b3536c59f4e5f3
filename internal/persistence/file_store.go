// Package persistence stores the settings engine's opaque serialized state
// to disk, so an applied configuration can be reverted after a process
// restart.
package persistence

import (
	"errors"
	"fmt"
	"os"

	"github.com/LizardByte/libdisplaydevice-sub001/internal/logging"
)

// FileStore writes the engine's persisted state to a single file.
type FileStore struct {
	path string
}

// NewFileStore constructs a store writing to path. It panics on an empty
// path: that's a programming error at the call site, not a runtime
// condition the caller should handle, matching the original's
// constructor-time std::runtime_error.
func NewFileStore(path string) *FileStore {
	if path == "" {
		panic("persistence: empty path provided for FileStore")
	}
	return &FileStore{path: path}
}

// Store writes data to the file, truncating any previous contents. It does
// not create missing parent directories — the caller is responsible for
// ensuring the directory exists.
func (s *FileStore) Store(data []byte) error {
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		logging.Errorf("persistence: failed to write %s: %v", s.path, err)
		return fmt.Errorf("persistence: write %s: %w", s.path, err)
	}
	return nil
}

// Load reads the file's contents. A missing file is not an error: it
// returns an empty, non-nil slice, matching the original's "never
// persisted yet" semantics.
func (s *FileStore) Load() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []byte{}, nil
	}
	if err != nil {
		logging.Errorf("persistence: failed to read %s: %v", s.path, err)
		return nil, fmt.Errorf("persistence: read %s: %w", s.path, err)
	}
	return data, nil
}

// Clear removes the file. Removing an already-missing file is not an
// error: Clear is idempotent.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Errorf("persistence: failed to remove %s: %v", s.path, err)
		return fmt.Errorf("persistence: remove %s: %w", s.path, err)
	}
	return nil
}
