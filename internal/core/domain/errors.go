// Package domain defines the core domain models for CredVault.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a structured error with a stable code.
// Codes are what callers switch on; messages are for humans.
type DomainError struct {
	Code    string // Error code (e.g., "CV-SESS-4010")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface. A nil receiver is tolerated so
// typed-nil values (e.g. an unmatched classification) cannot crash
// error formatting.
func (e *DomainError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is implements errors.Is() support; two DomainErrors match on code.
// A nil receiver or target matches nothing.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Credential Errors (CRED)
// ============================================================================

var (
	// ErrTokenInvalidLocal indicates a caller tried to establish a session
	// with an empty or placeholder token. Rejected at the store boundary.
	ErrTokenInvalidLocal = NewDomainError("CV-CRED-4001", "invalid or placeholder token")

	// ErrCredentialCorrupt indicates the persisted credential could not be
	// decrypted. Treated as "no session", never retried.
	ErrCredentialCorrupt = NewDomainError("CV-CRED-4002", "stored credential corrupted or foreign")
)

// ============================================================================
// Session Errors (SESS)
// ============================================================================

var (
	// ErrRefreshFailed indicates the backend rejected or was unreachable
	// during token refresh. Terminal for the current refresh cycle.
	ErrRefreshFailed = NewDomainError("CV-SESS-4010", "token refresh failed")

	// ErrSessionExpired indicates the session is no longer usable and the
	// caller must re-authenticate.
	ErrSessionExpired = NewDomainError("CV-SESS-4011", "session expired")

	// ErrNoRefreshToken indicates a refresh was requested without a
	// refresh token on hand.
	ErrNoRefreshToken = NewDomainError("CV-SESS-4012", "no refresh token available")

	// ErrNoTokenInResponse indicates the backend reported a successful
	// login but returned no usable bearer token. This is a hard error:
	// the client never fabricates a placeholder token to coax state.
	ErrNoTokenInResponse = NewDomainError("CV-SESS-4013", "login succeeded without a bearer token")
)

// ============================================================================
// Verification Errors (OTP)
// ============================================================================

var (
	// ErrCodeInvalid indicates a locally rejected verification code
	// (wrong length or non-digits). No network round-trip is made.
	ErrCodeInvalid = NewDomainError("CV-OTP-4001", "verification code must be 6 digits")

	// ErrEmailInvalid indicates a missing or blank email address.
	ErrEmailInvalid = NewDomainError("CV-OTP-4002", "email address required")

	// ErrFlowState indicates the operation is not valid in the flow's
	// current state.
	ErrFlowState = NewDomainError("CV-OTP-4003", "operation not valid in current verification state")

	// ErrWrongCode indicates the backend rejected the code. Retryable.
	ErrWrongCode = NewDomainError("CV-OTP-4010", "wrong verification code")

	// ErrExpiredCode indicates the code expired. Retryable via resend.
	ErrExpiredCode = NewDomainError("CV-OTP-4011", "verification code expired")

	// ErrAlreadyActive indicates the account is already activated. Terminal.
	ErrAlreadyActive = NewDomainError("CV-OTP-4090", "account already active")

	// ErrAlreadyExists indicates the account already exists. Terminal.
	ErrAlreadyExists = NewDomainError("CV-OTP-4091", "account already exists")

	// ErrRateLimited indicates too many attempts, locally or at the backend.
	ErrRateLimited = NewDomainError("CV-OTP-4290", "too many attempts, slow down")
)

// ============================================================================
// Transport Errors (NET)
// ============================================================================

var (
	// ErrUnauthorized is the 401-equivalent authentication failure.
	ErrUnauthorized = NewDomainError("CV-NET-4010", "authentication required")

	// ErrBackend indicates a backend response outside the known domain
	// categories.
	ErrBackend = NewDomainError("CV-NET-5000", "backend request failed")

	// ErrTransport indicates the network was unreachable or timed out.
	// Never causes a logout by itself.
	ErrTransport = NewDomainError("CV-NET-5001", "network unreachable or timed out")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrStorage indicates a storage layer error.
	ErrStorage = NewDomainError("CV-SYS-5001", "storage error")
)
