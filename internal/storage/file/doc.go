// Package file provides a file-backed key-value store for CredVault.
//
// Keys and values are persisted as a single JSON object. Writes go through
// a temp file followed by an atomic rename so the store never observes a
// partially written file.
package file
