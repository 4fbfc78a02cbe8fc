// Package keyring derives the symmetric key protecting credentials at rest.
package keyring

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/veldra/credvault-go/pkg/kv"
)

// mapStore is an in-memory kv.Store for testing.
type mapStore struct {
	items map[string]string
}

func newMapStore() *mapStore {
	return &mapStore{items: make(map[string]string)}
}

func (s *mapStore) GetItem(key string) (string, error) {
	v, ok := s.items[key]
	if !ok {
		return "", kv.ErrNotFound
	}
	return v, nil
}

func (s *mapStore) SetItem(key, value string) error {
	s.items[key] = value
	return nil
}

func (s *mapStore) RemoveItem(key string) error {
	delete(s.items, key)
	return nil
}

// brokenStore fails every operation, simulating disabled storage.
type brokenStore struct{}

func (brokenStore) GetItem(string) (string, error) { return "", errors.New("storage disabled") }
func (brokenStore) SetItem(string, string) error   { return errors.New("storage disabled") }
func (brokenStore) RemoveItem(string) error        { return errors.New("storage disabled") }

func TestKeyring_DeriveStable(t *testing.T) {
	store := newMapStore()
	ring := New(store, "https://api.example.com", "linux/amd64")

	key1, err := ring.Key()
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if len(key1) != KeyLength {
		t.Fatalf("Key() length = %d, want %d", len(key1), KeyLength)
	}
	if ring.Degraded() {
		t.Error("Degraded() = true with a working store")
	}

	// A second keyring over the same store must derive the same key
	// (salt and installation ID are persisted).
	ring2 := New(store, "https://api.example.com", "linux/amd64")
	key2, err := ring2.Key()
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if !bytes.Equal(key1, key2) {
		t.Error("derivation is not stable across keyring instances")
	}
}

func TestKeyring_SaltPersisted(t *testing.T) {
	store := newMapStore()
	ring := New(store, "https://api.example.com", "linux/amd64")

	if _, err := ring.Key(); err != nil {
		t.Fatalf("Key() error = %v", err)
	}

	hexSalt, err := store.GetItem(SaltKey)
	if err != nil {
		t.Fatalf("salt was not persisted: %v", err)
	}
	salt, err := hex.DecodeString(hexSalt)
	if err != nil {
		t.Fatalf("persisted salt is not hex: %v", err)
	}
	if len(salt) != SaltLength {
		t.Errorf("persisted salt length = %d, want %d", len(salt), SaltLength)
	}

	if _, err := store.GetItem(InstallKey); err != nil {
		t.Errorf("installation ID was not persisted: %v", err)
	}
}

func TestKeyring_DifferentOrigins(t *testing.T) {
	store := newMapStore()

	ring1 := New(store, "https://api.example.com", "linux/amd64")
	key1, _ := ring1.Key()

	ring2 := New(store, "https://other.example.com", "linux/amd64")
	key2, _ := ring2.Key()

	if bytes.Equal(key1, key2) {
		t.Error("different origins derived the same key")
	}
}

func TestKeyring_BrokenStoreFallsBack(t *testing.T) {
	ring := New(brokenStore{}, "https://api.example.com", "linux/amd64")

	key, err := ring.Key()
	if err != nil {
		t.Fatalf("Key() should not fail with broken storage, got %v", err)
	}
	if len(key) != KeyLength {
		t.Fatalf("Key() length = %d, want %d", len(key), KeyLength)
	}
	if !ring.Degraded() {
		t.Error("Degraded() = false with broken storage, want true")
	}

	// Degraded derivation must still be deterministic.
	ring2 := New(brokenStore{}, "https://api.example.com", "linux/amd64")
	key2, _ := ring2.Key()
	if !bytes.Equal(key, key2) {
		t.Error("degraded derivation is not deterministic")
	}
}

func TestKeyring_MalformedSaltRegenerated(t *testing.T) {
	store := newMapStore()
	store.items[SaltKey] = "not-hex!!"

	ring := New(store, "https://api.example.com", "linux/amd64")
	if _, err := ring.Key(); err != nil {
		t.Fatalf("Key() error = %v", err)
	}

	hexSalt, _ := store.GetItem(SaltKey)
	if _, err := hex.DecodeString(hexSalt); err != nil {
		t.Errorf("malformed salt was not replaced: %v", err)
	}
}

func TestSubkey(t *testing.T) {
	master := bytes.Repeat([]byte{0x42}, 32)

	access, err := Subkey(master, "credvault:access", 32)
	if err != nil {
		t.Fatalf("Subkey() error = %v", err)
	}
	refresh, err := Subkey(master, "credvault:refresh", 32)
	if err != nil {
		t.Fatalf("Subkey() error = %v", err)
	}

	if bytes.Equal(access, refresh) {
		t.Error("subkeys for different purposes are equal")
	}

	again, _ := Subkey(master, "credvault:access", 32)
	if !bytes.Equal(access, again) {
		t.Error("subkey derivation is not deterministic")
	}
}

func TestSubkey_ShortMaster(t *testing.T) {
	if _, err := Subkey([]byte("short"), "info", 32); err != ErrKeyTooShort {
		t.Errorf("Subkey() error = %v, want ErrKeyTooShort", err)
	}
}

func TestZero(t *testing.T) {
	key := []byte{1, 2, 3, 4}
	Zero(key)
	for i, b := range key {
		if b != 0 {
			t.Errorf("Zero() left byte %d = %d", i, b)
		}
	}
}
