// Package metric provides Prometheus metrics for CredVault.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Prometheus registry and HTTP handler
//   - collector.go: Build info collector
//
// Metrics include:
//
//   - Refresh attempt counters and waiter gauges
//   - Decrypt failure and persist queue statistics
//   - OTP verification and resend counters
//
// The agent command exposes the registry at /metrics.
package metric
