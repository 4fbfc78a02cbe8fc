// Package file provides a file-backed key-value store.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/veldra/credvault-go/pkg/kv"
)

// Store persists keys to a single JSON file.
//
// Every mutation rewrites the whole file through a temp-file rename, so a
// crash mid-write leaves the previous contents intact. File permissions are
// 0600 since the file carries encrypted credentials.
type Store struct {
	mu    sync.Mutex
	path  string
	items map[string]string
}

// NewStore opens or creates the store at path.
//
// An existing file that fails to parse is treated as empty rather than
// failing open. The next write replaces it.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("file: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("file: create dir: %w", err)
	}

	s := &Store{
		path:  path,
		items: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("file: read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &s.items); err != nil {
		s.items = make(map[string]string)
	}

	return s, nil
}

// GetItem returns the value stored under key.
func (s *Store) GetItem(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.items[key]
	if !ok {
		return "", kv.ErrNotFound
	}
	return value, nil
}

// SetItem stores value under key and flushes to disk.
func (s *Store) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = value
	return s.flushLocked()
}

// RemoveItem deletes key and flushes to disk.
func (s *Store) RemoveItem(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; !ok {
		return nil
	}
	delete(s.items, key)
	return s.flushLocked()
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// flushLocked writes the full map atomically. Caller holds s.mu.
func (s *Store) flushLocked() error {
	data, err := json.Marshal(s.items)
	if err != nil {
		return fmt.Errorf("file: marshal: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o600); err != nil {
		return fmt.Errorf("file: write temp: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("file: rename: %w", err)
	}
	return nil
}
