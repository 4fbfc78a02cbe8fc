package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/veldra/credvault-go/internal/core/domain"
	"github.com/veldra/credvault-go/internal/core/service"
	"github.com/veldra/credvault-go/internal/telemetry/logger"
)

// Per-call deadlines. Auth-sensitive calls fail fast so an interactive
// prompt never hangs on a slow backend; logout is best-effort and gets
// the shortest budget.
const (
	DefaultTimeout = 30 * time.Second
	AuthTimeout    = 10 * time.Second
	LogoutTimeout  = 5 * time.Second
)

// Client talks JSON over HTTP to the identity backend. It satisfies
// service.Refresher and service.OTPBackend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a backend client for the given base URL. A bare
// host:port is assumed to be https.
func NewClient(baseURL string, opts ...Option) *Client {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logger.Default(),
		userAgent:  "credvault-client",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL reports the normalized backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	ctx, cancel := context.WithTimeout(ctx, AuthTimeout)
	defer cancel()

	var resp apiResponse
	if err := c.post(ctx, PathLogin, loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken:  resp.Token,
		RefreshToken: resp.RefreshToken,
		User:         resp.User.toUser(),
		Message:      resp.Message,
	}, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (service.RefreshResult, error) {
	ctx, cancel := context.WithTimeout(ctx, AuthTimeout)
	defer cancel()

	var resp apiResponse
	if err := c.post(ctx, PathRefreshToken, refreshRequest{RefreshToken: refreshToken}, &resp); err != nil {
		return service.RefreshResult{}, err
	}
	return service.RefreshResult{
		AccessToken:  resp.Token,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// Verify submits an OTP code for account activation or login.
func (c *Client) Verify(ctx context.Context, email, code string) (*service.AuthPayload, error) {
	ctx, cancel := context.WithTimeout(ctx, AuthTimeout)
	defer cancel()

	var resp apiResponse
	if err := c.post(ctx, PathVerify, verifyRequest{Email: email, OTP: code}, &resp); err != nil {
		return nil, err
	}
	return &service.AuthPayload{
		AccessToken:  resp.Token,
		RefreshToken: resp.RefreshToken,
		User:         resp.User.toUser(),
	}, nil
}

// ResendOTP re-issues an activation code.
func (c *Client) ResendOTP(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	return c.post(ctx, PathResendOTP, emailRequest{Email: email}, nil)
}

// ForgotPassword starts the password-reset flow for the account.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	return c.post(ctx, PathForgotPassword, emailRequest{Email: email}, nil)
}

// VerifyPasswordReset submits a reset code and returns the one-shot
// reset token the backend issues.
func (c *Client) VerifyPasswordReset(ctx context.Context, email, code string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, AuthTimeout)
	defer cancel()

	var resp apiResponse
	if err := c.post(ctx, PathVerifyPasswordReset, verifyRequest{Email: email, OTP: code}, &resp); err != nil {
		return "", err
	}
	return resp.ResetToken, nil
}

// ResetPassword sets a new password using a reset token.
func (c *Client) ResetPassword(ctx context.Context, email, resetToken, newPassword string) error {
	ctx, cancel := context.WithTimeout(ctx, AuthTimeout)
	defer cancel()

	return c.post(ctx, PathResetPassword, resetPasswordRequest{
		Email:      email,
		ResetToken: resetToken,
		Password:   newPassword,
	}, nil)
}

// Logout tells the backend to revoke the session. Failures are returned
// but callers treat them as advisory: the local session is cleared
// regardless.
func (c *Client) Logout(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, LogoutTimeout)
	defer cancel()

	return c.post(ctx, PathLogout, struct{}{}, nil)
}

// post issues a JSON POST and decodes the response into out when out is
// non-nil. Transport failures, auth rejections and backend error
// messages are mapped to domain errors.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log := c.logger
		if op := logger.OperationFromContext(ctx); op != "" {
			log = log.With("op", op)
		}
		log.Debug("backend request failed", "path", path, "error", err)
		return domain.ErrTransport.WithCause(err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.ErrTransport.WithCause(err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return c.errorFromResponse(path, resp.StatusCode, raw)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return domain.ErrBackend.WithDetails("malformed response body").WithCause(err)
		}
	}
	return nil
}

// errorFromResponse turns a non-2xx backend reply into a domain error.
// The backend's failure contract is an unstructured message field, so
// classification happens here and nowhere above this layer.
func (c *Client) errorFromResponse(path string, status int, raw []byte) error {
	var resp apiResponse
	_ = json.Unmarshal(raw, &resp)
	msg := resp.Message

	c.logger.Debug("backend rejected request",
		"path", path,
		"status", status,
		"message", msg,
	)

	if classified := domain.CategoryError(domain.Classify(msg)); classified != nil {
		return classified
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if msg != "" {
			return domain.ErrUnauthorized.WithDetails(msg)
		}
		return domain.ErrUnauthorized
	case status == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case msg != "":
		return domain.ErrBackend.WithDetails(msg)
	default:
		return domain.ErrBackend.WithDetails(fmt.Sprintf("status %d", status))
	}
}
