// Package buildinfo provides build information for CredVault.
//
// Release builds inject Version, Commit and BuildTime via ldflags:
//
//	go build -ldflags "-X buildinfo.Version=1.0.0 -X buildinfo.Commit=abc123"
//
// Without ldflags, Get falls back to the VCS revision and time stamped
// into the binary by the Go toolchain, and the Go compiler version is
// always read from the runtime.
package buildinfo
