// Package sealed provides authenticated encryption for credentials at rest.
package sealed

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
)

// AESGCM implements AES-GCM authenticated encryption.
type AESGCM struct {
	baseCipher
}

// NewAESGCM creates a new AES-GCM cipher.
//
// Key must be 16, 24, or 32 bytes for AES-128, AES-192, or AES-256.
func NewAESGCM(key []byte) (*AESGCM, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, errors.New("sealed: invalid key size for AES-GCM: must be 16, 24, or 32 bytes")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &AESGCM{baseCipher: baseCipher{aead: aead}}, nil
}

// Type returns the cipher type.
func (c *AESGCM) Type() CipherType {
	return CipherAESGCM
}

// Seal encrypts plaintext with additional data.
func (c *AESGCM) Seal(plaintext, additionalData []byte) ([]byte, error) {
	return c.seal(plaintext, additionalData)
}

// Open decrypts ciphertext with additional data.
func (c *AESGCM) Open(ciphertext, additionalData []byte) ([]byte, error) {
	return c.open(ciphertext, additionalData)
}
