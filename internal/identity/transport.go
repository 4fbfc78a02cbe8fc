package identity

import (
	"context"
	"io"
	"net/http"

	"github.com/veldra/credvault-go/internal/telemetry/logger"
)

// TokenSource yields the current bearer token, or "" when there is none.
// *service.CredentialStore satisfies it.
type TokenSource interface {
	AccessToken() string
}

// Coordinator runs a refresh and returns the new bearer token.
// *service.RefreshCoordinator satisfies it.
type Coordinator interface {
	Refresh(ctx context.Context) (string, error)
}

// retryMarker tags a request context so a refreshed request is retried
// exactly once. A 401 on the retried request is surfaced as-is.
type retryMarker struct{}

func markRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retryMarker{}, true)
}

func wasRetried(ctx context.Context) bool {
	v, _ := ctx.Value(retryMarker{}).(bool)
	return v
}

// exemptPaths are endpoints where a 401 means "wrong credentials or
// code", not "stale session". Triggering a refresh there would mask the
// real failure, and /refresh-token itself must never recurse.
var exemptPaths = map[string]bool{
	PathLogin:               true,
	PathRefreshToken:        true,
	PathVerify:              true,
	PathResendOTP:           true,
	PathForgotPassword:      true,
	PathVerifyPasswordReset: true,
	PathResetPassword:       true,
}

// AuthTransport is an http.RoundTripper that attaches the current
// bearer token and transparently refreshes it on a 401.
//
// The refresh goes through the Coordinator, so any number of concurrent
// requests hitting a 401 at once collapse into a single backend refresh
// call; each request then retries once with the new token.
type AuthTransport struct {
	// Base is the underlying transport. nil means http.DefaultTransport.
	Base http.RoundTripper

	// Tokens supplies the bearer token for outgoing requests.
	Tokens TokenSource

	// Coordinator performs the single-flight refresh on a 401.
	Coordinator Coordinator

	// Logger is optional.
	Logger logger.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	// RoundTrippers must not mutate the caller's request.
	out := req.Clone(req.Context())
	if out.Header.Get("Authorization") == "" {
		if tok := t.Tokens.AccessToken(); tok != "" {
			out.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := base.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || exemptPaths[req.URL.Path] {
		return resp, nil
	}
	if wasRetried(req.Context()) {
		// Second 401 in a row: the refreshed token was rejected too.
		return resp, nil
	}

	// Release the connection before refreshing.
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	tok, rerr := t.Coordinator.Refresh(req.Context())
	if rerr != nil {
		t.logf("refresh after 401 failed", "path", req.URL.Path, "error", rerr)
		return nil, rerr
	}

	retry := req.Clone(markRetried(req.Context()))
	retry.Header.Set("Authorization", "Bearer "+tok)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	return t.RoundTrip(retry)
}

func (t *AuthTransport) logf(msg string, args ...any) {
	if t.Logger != nil {
		t.Logger.Debug(msg, args...)
	}
}
