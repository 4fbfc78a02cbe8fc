// Package tlsroots provides TLS trust management for the backend connection.
//
// This package handles TLS certificate loading and management:
//
//   - roots.go: System certificates + custom CA loading
//   - watcher.go: Client keypair hot-reload via fsnotify
//
// Features:
//
//   - System certificate pool integration
//   - Custom CA certificate support (private identity backends)
//   - Client certificates for backends requiring mutual TLS
//   - Automatic keypair reload on rotation
package tlsroots
