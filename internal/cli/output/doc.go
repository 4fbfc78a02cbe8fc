// Package output provides output formatting for the CredVault CLI.
//
// This package handles all CLI output formatting:
//
//   - formatter.go: Format parsing, Formatter interface and factory
//   - table.go: Table rendering with wide mode support
//   - encode.go: JSON and YAML output formatting
//   - spinner.go: Progress animation for long operations
//
// Formatters support:
//
//   - Multiple output formats (table, json, yaml)
//   - Wide mode for additional columns
//   - Machine-readable output for scripting
package output
