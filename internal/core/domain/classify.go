// Package domain defines the core domain models for CredVault.
package domain

import "strings"

// Category is the coarse classification of a backend message.
type Category int

const (
	// CategoryUnknown means the message matched no known pattern.
	CategoryUnknown Category = iota

	// CategoryWrongCode: the submitted OTP code was wrong. Retryable.
	CategoryWrongCode

	// CategoryExpiredCode: the OTP code expired. Retryable via resend.
	CategoryExpiredCode

	// CategoryAlreadyActive: the account is already activated. Terminal.
	CategoryAlreadyActive

	// CategoryAlreadyExists: the account already exists. Terminal.
	CategoryAlreadyExists

	// CategoryRateLimited: the backend throttled the request.
	CategoryRateLimited
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryWrongCode:
		return "wrong-code"
	case CategoryExpiredCode:
		return "expired-code"
	case CategoryAlreadyActive:
		return "already-active"
	case CategoryAlreadyExists:
		return "already-exists"
	case CategoryRateLimited:
		return "rate-limited"
	default:
		return "unknown"
	}
}

// Classify maps a backend message to a Category by keyword matching.
//
// The backend's error contract is an unstructured free-text "message"
// field, so this is a best-effort heuristic and the single place the
// heuristic lives. When the backend grows structured error codes, this
// function is the only code that changes; callers switch on Category.
func Classify(message string) Category {
	m := strings.ToLower(message)

	switch {
	case contains(m, "already active", "already verified", "already activated"):
		return CategoryAlreadyActive
	case contains(m, "already exists", "already registered", "already taken", "already in use"):
		return CategoryAlreadyExists
	case contains(m, "too many", "rate limit", "try again later"):
		return CategoryRateLimited
	case contains(m, "expired"):
		return CategoryExpiredCode
	case contains(m, "invalid code", "wrong code", "incorrect code",
		"invalid otp", "wrong otp", "incorrect otp",
		"entered is incorrect", "invalid verification"):
		return CategoryWrongCode
	default:
		return CategoryUnknown
	}
}

// CategoryError maps a Category to its domain error, or nil for
// CategoryUnknown.
func CategoryError(c Category) *DomainError {
	switch c {
	case CategoryWrongCode:
		return ErrWrongCode
	case CategoryExpiredCode:
		return ErrExpiredCode
	case CategoryAlreadyActive:
		return ErrAlreadyActive
	case CategoryAlreadyExists:
		return ErrAlreadyExists
	case CategoryRateLimited:
		return ErrRateLimited
	default:
		return nil
	}
}

func contains(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
