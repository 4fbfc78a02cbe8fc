// Package command provides CLI command definitions for CredVault.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: Root command and global flags
//   - vault.go: Wiring of storage, crypto and backend client
//   - auth.go: login, verify and logout commands
//   - status.go: Session state display
//   - refresh.go: Forced token refresh
//   - reset.go: Password reset flow
//   - agent.go: Long-running background agent
//   - config.go: Configuration subcommand group
//
// Commands follow a consistent pattern of parsing flags,
// calling the appropriate service, and formatting output.
package command
