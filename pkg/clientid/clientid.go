// Package clientid derives stable client identifiers and token display helpers.
package clientid

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"os"
	"os/user"
	"runtime"
	"strings"
)

// Fingerprint derives a stable fingerprint for the current machine and OS user.
//
// The fingerprint is a hex encoded SHA-256 over hostname, username and
// platform. It is stable across restarts of the same installation and is
// used to bind derived encryption keys to the machine they were created on.
func Fingerprint() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}

	username := "unknown-user"
	if u, err := user.Current(); err == nil && u.Username != "" {
		username = u.Username
	}

	parts := []string{hostname, username, runtime.GOOS, runtime.GOARCH}
	return Hash(strings.Join(parts, "|"))
}

// Hash computes the hex encoded SHA-256 hash of a value.
func Hash(value string) string {
	h := sha256.Sum256([]byte(value))
	return hex.EncodeToString(h[:])
}

// Verify compares a value against an expected hash in constant time.
func Verify(value, expectedHash string) bool {
	actual := Hash(value)
	return subtle.ConstantTimeCompare([]byte(actual), []byte(expectedHash)) == 1
}

// Abbreviate returns a redacted form of a token suitable for display.
//
// Tokens of 12 characters or fewer are fully masked.
func Abbreviate(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return strings.Repeat("*", len(token))
	}
	return token[:6] + "..." + token[len(token)-4:]
}
