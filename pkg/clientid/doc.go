// Package clientid derives stable client identifiers.
//
// The package provides a machine fingerprint used for key derivation,
// SHA-256 hashing helpers and a redacted token display form for CLI output.
package clientid
