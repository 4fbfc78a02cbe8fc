// Package memory provides an in-memory key-value store.
package memory

import (
	"github.com/veldra/credvault-go/pkg/cmap"
	"github.com/veldra/credvault-go/pkg/kv"
)

// Store is an in-memory kv.Store backed by a sharded concurrent map.
//
// It is used in tests and as the fallback when no durable storage is
// configured. Contents are lost on process exit.
type Store struct {
	items *cmap.Map[string, string]
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		items: cmap.New[string, string](),
	}
}

// GetItem returns the value stored under key.
func (s *Store) GetItem(key string) (string, error) {
	value, ok := s.items.Get(key)
	if !ok {
		return "", kv.ErrNotFound
	}
	return value, nil
}

// SetItem stores value under key.
func (s *Store) SetItem(key, value string) error {
	s.items.Set(key, value)
	return nil
}

// RemoveItem deletes key.
func (s *Store) RemoveItem(key string) error {
	s.items.Delete(key)
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	return s.items.Count()
}

// Clear removes all keys.
func (s *Store) Clear() {
	s.items.Clear()
}
