// Package keyring derives the symmetric key protecting credentials at rest.
package keyring

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"

	"github.com/veldra/credvault-go/pkg/kv"
)

const (
	// SaltKey is the storage key holding the persisted random salt (hex).
	SaltKey = "auth-salt"

	// InstallKey is the storage key holding the installation ID.
	InstallKey = "auth-install-id"

	// SaltLength is the salt length in bytes.
	SaltLength = 16

	// Iterations is the PBKDF2 work factor.
	Iterations = 120_000

	// KeyLength is the derived key length in bytes (AES-256 / ChaCha20).
	KeyLength = 32
)

// defaultSalt is the fixed fallback used when salt persistence fails
// (storage disabled or broken). Falling back keeps the credential store
// usable in degraded mode at the cost of a device-shared salt; this is a
// documented weakening, not an oversight.
var defaultSalt = []byte{
	0x63, 0x76, 0x2d, 0x73, 0x61, 0x6c, 0x74, 0x2d,
	0x66, 0x61, 0x6c, 0x6c, 0x62, 0x61, 0x63, 0x6b,
}

// ErrKeyTooShort indicates a master key below the minimum length.
var ErrKeyTooShort = errors.New("keyring: key too short (minimum 16 bytes)")

// Keyring derives and caches the symmetric credential key.
//
// The passphrase is built from environment-stable but NOT secret material
// (backend origin, a partial client fingerprint, and a persisted
// installation ID). This is an obfuscation layer against casual file
// inspection; the real security boundary is the storage isolation of the
// device, not the secrecy of the key inputs.
type Keyring struct {
	store       kv.Store
	origin      string
	fingerprint string

	key      []byte
	degraded bool
}

// New creates a keyring over the given store. origin is the identity
// backend origin; fingerprint is a short stable client descriptor
// (platform, hostname prefix).
func New(store kv.Store, origin, fingerprint string) *Keyring {
	return &Keyring{
		store:       store,
		origin:      origin,
		fingerprint: fingerprint,
	}
}

// Key returns the derived symmetric key, deriving it on first use.
//
// Derivation is PBKDF2-SHA256 over the passphrase with a persisted random
// salt. Salt persistence failures fall back to a fixed default salt
// rather than failing, so a broken store degrades instead of locking the
// caller out.
func (k *Keyring) Key() ([]byte, error) {
	if k.key != nil {
		return k.key, nil
	}

	salt, degraded := k.loadOrCreateSalt()
	k.degraded = degraded
	k.key = pbkdf2.Key([]byte(k.passphrase()), salt, Iterations, KeyLength, sha256.New)
	return k.key, nil
}

// Degraded reports whether the last derivation used the fallback salt.
func (k *Keyring) Degraded() bool {
	return k.degraded
}

// passphrase assembles the derivation input. Installation ID is persisted
// on first use so the passphrase stays stable across restarts.
func (k *Keyring) passphrase() string {
	parts := []string{k.origin, k.fingerprint, k.installID()}
	return strings.Join(parts, "|")
}

// installID returns the persisted installation ID, creating one (ULID)
// on first use. Storage failure yields a fixed placeholder so derivation
// still succeeds.
func (k *Keyring) installID() string {
	if id, err := k.store.GetItem(InstallKey); err == nil && id != "" {
		return id
	}

	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	if err := k.store.SetItem(InstallKey, id); err != nil {
		return "install-unavailable"
	}
	return id
}

// loadOrCreateSalt returns the persisted salt, generating and persisting
// a fresh one if absent. Returns (defaultSalt, true) when the store
// cannot hold a salt.
func (k *Keyring) loadOrCreateSalt() ([]byte, bool) {
	if hexSalt, err := k.store.GetItem(SaltKey); err == nil {
		if salt, err := hex.DecodeString(hexSalt); err == nil && len(salt) == SaltLength {
			return salt, false
		}
		// Malformed persisted salt: regenerate below.
	}

	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return defaultSalt, true
	}
	if err := k.store.SetItem(SaltKey, hex.EncodeToString(salt)); err != nil {
		return defaultSalt, true
	}
	return salt, false
}

// Subkey derives a purpose-bound subkey from a master key using HKDF.
// Useful for separating keys per field without another PBKDF2 pass.
func Subkey(masterKey []byte, info string, length int) ([]byte, error) {
	if len(masterKey) < 16 {
		return nil, ErrKeyTooShort
	}

	reader := hkdf.New(sha256.New, masterKey, nil, []byte(info))
	key := make([]byte, length)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Zero securely zeros a key in memory.
func Zero(key []byte) {
	for i := range key {
		key[i] = 0
	}
}
