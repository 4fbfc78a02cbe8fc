// Package domain defines the core domain models for CredVault.
//
// Domain models are pure value objects without any IO dependencies or
// framework coupling. This package contains:
//
//   - Session: the client-side view of "who is logged in"
//   - User: loosely-typed, additive profile record
//   - Ticket: ephemeral OTP verification record and flow states
//   - Classify: best-effort classification of backend messages
//   - Errors: structured domain error definitions
package domain
