// Package sealed provides authenticated encryption for credentials at rest.
package sealed

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
	"runtime"
)

// CipherType identifies the AEAD algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

// Cipher provides authenticated encryption with a fresh random nonce per
// call. The nonce is prepended to the returned ciphertext.
type Cipher interface {
	// Type returns the cipher type.
	Type() CipherType

	// Seal encrypts plaintext, binding additionalData into the
	// authentication tag.
	Seal(plaintext, additionalData []byte) ([]byte, error)

	// Open decrypts ciphertext produced by Seal with the same
	// additionalData.
	Open(ciphertext, additionalData []byte) ([]byte, error)

	// NonceSize returns the nonce size in bytes.
	NonceSize() int

	// Overhead returns the authentication tag size in bytes.
	Overhead() int
}

// NewCipher creates a cipher with the given key, selecting AES-GCM where
// the architecture has hardware AES and ChaCha20-Poly1305 otherwise.
func NewCipher(key []byte) (Cipher, error) {
	if hasHardwareAES() {
		return NewAESGCM(key)
	}
	return NewChaCha20(key)
}

// NewCipherWithType creates a cipher of the specified type.
func NewCipherWithType(key []byte, cipherType CipherType) (Cipher, error) {
	switch cipherType {
	case CipherAESGCM:
		return NewAESGCM(key)
	case CipherChaCha20:
		return NewChaCha20(key)
	default:
		return nil, errors.New("sealed: unknown cipher type: " + string(cipherType))
	}
}

// hasHardwareAES reports whether Go's crypto/aes is hardware accelerated
// on this architecture (AES-NI on amd64, crypto extensions on arm64).
func hasHardwareAES() bool {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return true
	default:
		return false
	}
}

// baseCipher implements nonce handling shared by both AEADs.
type baseCipher struct {
	aead cipher.AEAD
}

func (c *baseCipher) NonceSize() int {
	return c.aead.NonceSize()
}

func (c *baseCipher) Overhead() int {
	return c.aead.Overhead()
}

func (c *baseCipher) seal(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	// Prepend nonce to ciphertext.
	return c.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

func (c *baseCipher) open(ciphertext, additionalData []byte) ([]byte, error) {
	if len(ciphertext) < c.aead.NonceSize() {
		return nil, errors.New("sealed: ciphertext too short")
	}

	nonce := ciphertext[:c.aead.NonceSize()]
	ciphertext = ciphertext[c.aead.NonceSize():]

	return c.aead.Open(nil, nonce, ciphertext, additionalData)
}
