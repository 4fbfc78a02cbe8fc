// Package domain defines the core domain models for CredVault.
//
// Domain models are pure value objects without IO dependencies or
// framework coupling.
package domain

import "strings"

// Storage keys for the persisted session layout.
const (
	// AuthStorageKey is the storage key holding the persisted session
	// record: JSON {"state":{"accessToken":blob,"refreshToken":blob,"user":{...}}}.
	AuthStorageKey = "auth-storage"
)

// placeholderTokens are values that look like a token slot but carry no
// credential: serialization artifacts and explicit placeholders. They are
// rejected at the store boundary instead of being persisted.
var placeholderTokens = map[string]struct{}{
	"":                {},
	"null":            {},
	"undefined":       {},
	"temporary_token": {},
}

// User holds loosely-typed profile fields. All fields are additive: a
// partial record is always valid and merges never require completeness.
type User struct {
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`

	// Role flags are pointers so a partial update can leave them untouched.
	Active   *bool `json:"is_active,omitempty"`
	Provider *bool `json:"is_provider,omitempty"`

	// Extra carries profile fields the client does not model.
	Extra map[string]any `json:"extra,omitempty"`
}

// Merge folds non-empty fields of partial into u.
func (u *User) Merge(partial *User) {
	if partial == nil {
		return
	}
	if partial.Email != "" {
		u.Email = partial.Email
	}
	if partial.FullName != "" {
		u.FullName = partial.FullName
	}
	if partial.Active != nil {
		u.Active = partial.Active
	}
	if partial.Provider != nil {
		u.Provider = partial.Provider
	}
	if len(partial.Extra) > 0 {
		if u.Extra == nil {
			u.Extra = make(map[string]any, len(partial.Extra))
		}
		for k, v := range partial.Extra {
			u.Extra[k] = v
		}
	}
}

// IsActive reports the active flag, defaulting to true when unset.
// A backend that never sends the flag means ordinary active accounts.
func (u *User) IsActive() bool {
	if u == nil || u.Active == nil {
		return true
	}
	return *u.Active
}

// Clone creates a deep copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	if u.Active != nil {
		v := *u.Active
		clone.Active = &v
	}
	if u.Provider != nil {
		v := *u.Provider
		clone.Provider = &v
	}
	if u.Extra != nil {
		clone.Extra = make(map[string]any, len(u.Extra))
		for k, v := range u.Extra {
			clone.Extra[k] = v
		}
	}
	return &clone
}

// Session is the authoritative client-side view of "who is logged in".
//
// A session is either fully absent (zero value with Authenticated false)
// or fully present (non-empty AccessToken with Authenticated true); no
// partially-valid state is ever exposed to consumers.
type Session struct {
	// AccessToken is the short-lived bearer credential; empty when
	// logged out.
	AccessToken string

	// RefreshToken is the long-lived credential used only for refresh.
	RefreshToken string

	// User holds the profile fields, when known.
	User *User

	// Authenticated is true iff AccessToken is present and was set
	// through a successful authentication or refresh.
	Authenticated bool

	// Loaded becomes true exactly once, after the store has attempted to
	// decrypt any persisted session on startup. Consumers must not act
	// on auth state before it is true.
	Loaded bool
}

// Empty returns the absent session.
func Empty() Session {
	return Session{}
}

// IsEmpty reports whether the session carries no credential.
func (s Session) IsEmpty() bool {
	return s.AccessToken == "" && s.RefreshToken == "" && !s.Authenticated
}

// Clone creates a deep copy of the session.
func (s Session) Clone() Session {
	clone := s
	clone.User = s.User.Clone()
	return clone
}

// ValidToken reports whether a value is a usable bearer or refresh token.
// Empty, whitespace-only, and known placeholder values are rejected.
func ValidToken(token string) bool {
	trimmed := strings.TrimSpace(token)
	if trimmed != token {
		return false
	}
	_, placeholder := placeholderTokens[token]
	return !placeholder
}
