// Package sealed provides authenticated encryption for credentials at rest.
//
// It offers two AEAD implementations behind one interface:
//   - AES-GCM where hardware AES is available
//   - ChaCha20-Poly1305 otherwise
//
// Codec layers base64 blob encoding on top: every blob is
// nonce || ciphertext || tag, base64 encoded, with a fresh random nonce
// per Encrypt call. Decryption of anything that fails authentication
// returns ErrDecryptFailed, never a wrong plaintext.
package sealed
