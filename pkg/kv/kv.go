// Package kv defines the durable key-value contract for credential
// persistence.
package kv

import "errors"

// ErrNotFound indicates the requested key does not exist in the store.
var ErrNotFound = errors.New("kv: key not found")

// Store is the synchronous key-value interface the credential layer
// persists through.
//
// Implementations are treated as unreliable: every method may fail
// (storage disabled, disk full, corrupted file) and callers are expected
// to degrade gracefully rather than propagate the failure.
type Store interface {
	// GetItem returns the value stored under key.
	// Returns ErrNotFound if the key does not exist.
	GetItem(key string) (string, error)

	// SetItem stores value under key, replacing any previous value.
	SetItem(key, value string) error

	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(key string) error
}
