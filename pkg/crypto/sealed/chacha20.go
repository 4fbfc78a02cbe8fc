// Package sealed provides authenticated encryption for credentials at rest.
package sealed

import (
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

// ChaCha20 implements ChaCha20-Poly1305 authenticated encryption.
type ChaCha20 struct {
	baseCipher
}

// NewChaCha20 creates a new ChaCha20-Poly1305 cipher.
//
// Key must be exactly 32 bytes.
func NewChaCha20(key []byte) (*ChaCha20, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, errors.New("sealed: invalid key size for ChaCha20-Poly1305: must be 32 bytes")
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	return &ChaCha20{baseCipher: baseCipher{aead: aead}}, nil
}

// Type returns the cipher type.
func (c *ChaCha20) Type() CipherType {
	return CipherChaCha20
}

// Seal encrypts plaintext with additional data.
func (c *ChaCha20) Seal(plaintext, additionalData []byte) ([]byte, error) {
	return c.seal(plaintext, additionalData)
}

// Open decrypts ciphertext with additional data.
func (c *ChaCha20) Open(ciphertext, additionalData []byte) ([]byte, error) {
	return c.open(ciphertext, additionalData)
}
