// Package config provides CLI configuration for CredVault.
//
// This package defines CLI-specific configuration:
//
//   - spec.go: CLIConfig struct (~/.credvault/config.yaml)
//   - loader.go: Loading and precedence (defaults < file < env)
//
// Configuration includes:
//
//   - Identity backend connection (URL, trust roots, timeout)
//   - Credential storage engine and path
//   - Agent refresh and metrics settings
//   - Output format preferences
//
// Environment overrides use the CREDVAULT_ prefix with underscores as path
// separators (CREDVAULT_BACKEND_URL sets backend.url). Keys whose leaf name
// itself contains an underscore, such as agent.refresh_interval, cannot be
// addressed this way and are file-only settings.
package config
