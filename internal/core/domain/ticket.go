// Package domain defines the core domain models for CredVault.
package domain

import (
	"strings"
	"time"
)

// OTPCodeLength is the fixed OTP code length. This is a contract of the
// identity backend API, not a guess; wrong-length codes are rejected
// locally without a network call.
const OTPCodeLength = 6

// FlowPurpose identifies why an OTP flow was started.
type FlowPurpose string

const (
	// PurposeRegistration activates a freshly registered account.
	// Successful verification does NOT establish a session; the flow
	// terminates in a redirect to login.
	PurposeRegistration FlowPurpose = "registration"

	// PurposeLogin activates an inactive account discovered at login.
	// Successful verification establishes a session when the backend
	// returns a bearer token in the same response.
	PurposeLogin FlowPurpose = "login"

	// PurposePasswordReset confirms control of the email before a
	// password change.
	PurposePasswordReset FlowPurpose = "password-reset"
)

// FlowState is the position of a verification flow.
type FlowState int

const (
	// StateAnonymous is the initial state, before any code was issued.
	StateAnonymous FlowState = iota

	// StateAwaitingCode means a code was issued and a verify is expected.
	StateAwaitingCode

	// StateVerified is the terminal state of registration/login flows.
	StateVerified

	// StateResetRequested means a password-reset code was issued.
	StateResetRequested

	// StateCodeVerified means the reset code was accepted; a new
	// password may now be set.
	StateCodeVerified

	// StatePasswordSet is the terminal state of the reset flow.
	StatePasswordSet
)

// String returns the state name.
func (s FlowState) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAwaitingCode:
		return "awaiting-code"
	case StateVerified:
		return "verified"
	case StateResetRequested:
		return "reset-requested"
	case StateCodeVerified:
		return "code-verified"
	case StatePasswordSet:
		return "password-set"
	default:
		return "unknown"
	}
}

// Ticket is the ephemeral record held for the duration of an OTP dialog.
// It is destroyed on success, cancel, or navigation away; never persisted.
type Ticket struct {
	Email      string
	Purpose    FlowPurpose
	IssuedAt   time.Time
	CodeLength int
}

// NewTicket creates a ticket for the given email and purpose.
func NewTicket(email string, purpose FlowPurpose) (Ticket, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Ticket{}, ErrEmailInvalid
	}
	return Ticket{
		Email:      email,
		Purpose:    purpose,
		IssuedAt:   time.Now(),
		CodeLength: OTPCodeLength,
	}, nil
}

// ValidateCode rejects codes of the wrong shape before any network call.
func (t Ticket) ValidateCode(code string) error {
	if len(code) != t.CodeLength {
		return ErrCodeInvalid
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return ErrCodeInvalid
		}
	}
	return nil
}
