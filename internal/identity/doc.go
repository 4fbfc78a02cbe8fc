// Package identity implements the HTTP client for the identity backend
// and the authenticating transport the rest of the client stack rides on.
//
// Client speaks the backend's JSON-over-POST contract and maps its
// free-text error messages to domain errors in one place. AuthTransport
// wraps any http.RoundTripper, attaches the bearer token from the
// credential store, and on a 401 drives a single-flight refresh through
// the coordinator before retrying the request exactly once.
package identity
