// Package service provides domain services for CredVault.
//
// Domain services contain pure business logic and orchestrate operations
// on domain models. They define interfaces for storage and backend
// dependencies, allowing for dependency injection and testability.
//
// This package contains:
//
//   - CredentialStore: encrypted-at-rest session state with a write-behind
//     persistence queue; in-memory state is synchronously authoritative
//   - RefreshCoordinator: single-flight token refresh with a FIFO waiter
//     queue and a periodic proactive loop
//   - VerificationService: the OTP activation and password-reset flows
//
// Services are thread-safe; every instance is explicitly constructed so
// tests can create isolated instances per case.
package service
