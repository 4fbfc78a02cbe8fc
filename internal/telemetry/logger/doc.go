// Package logger provides structured logging for CredVault.
//
// This package wraps log/slog for structured logging:
//
//   - logger.go: Logger configuration and initialization
//   - context.go: Context propagation and operation tagging
//   - redact.go: Sensitive data redaction
//
// Features:
//
//   - JSON and text output formats
//   - Runtime log level adjustment
//   - Automatic masking of tokens, passwords and OTP codes
//   - Operation names carried through context into log lines
package logger
