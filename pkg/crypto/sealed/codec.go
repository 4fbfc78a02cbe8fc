// Package sealed provides authenticated encryption for credentials at rest.
package sealed

import (
	"encoding/base64"
	"errors"
)

// ErrDecryptFailed indicates authentication failed during decryption:
// tampered data, a wrong key, or input that was never a sealed blob.
// Callers must treat this identically to "no valid credential".
var ErrDecryptFailed = errors.New("sealed: decryption failed: wrong key or corrupted data")

// Codec encodes credentials into base64 blobs of nonce || ciphertext.
type Codec struct {
	cipher Cipher
}

// NewCodec creates a codec with a cipher selected for the current
// architecture.
func NewCodec(key []byte) (*Codec, error) {
	c, err := NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &Codec{cipher: c}, nil
}

// NewCodecWithCipher creates a codec over an explicit cipher.
func NewCodecWithCipher(c Cipher) *Codec {
	return &Codec{cipher: c}
}

// Encrypt seals plaintext and returns a base64 blob. A fresh random nonce
// is generated per call; additionalData binds the blob to its field
// (access vs refresh token) so blobs cannot be swapped between fields.
func (c *Codec) Encrypt(plaintext, additionalData string) (string, error) {
	raw, err := c.cipher.Seal([]byte(plaintext), []byte(additionalData))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decrypt opens a base64 blob produced by Encrypt.
//
// Any failure (bad base64, truncated blob, failed authentication tag)
// returns ErrDecryptFailed; the plaintext is never partially recovered.
func (c *Codec) Decrypt(blob, additionalData string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", ErrDecryptFailed
	}

	plaintext, err := c.cipher.Open(raw, []byte(additionalData))
	if err != nil {
		return "", ErrDecryptFailed
	}
	return string(plaintext), nil
}

// IsSealed reports whether a value looks like a blob produced by Encrypt.
//
// This is a best-effort heuristic (valid base64 and a minimum decoded
// length of nonce + tag), used only to avoid double-encrypting on write.
// It is NOT a security boundary: a plaintext that happens to be long
// valid base64 will be misclassified, and Decrypt remains the only
// authoritative check.
func (c *Codec) IsSealed(value string) bool {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return false
	}
	return len(raw) >= c.cipher.NonceSize()+c.cipher.Overhead()
}
