// Package service provides domain services for CredVault.
//
// VerificationService drives the OTP account-activation and password-reset
// flows against the identity backend.
package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/veldra/credvault-go/internal/core/domain"
	"github.com/veldra/credvault-go/internal/telemetry/logger"
	"github.com/veldra/credvault-go/internal/telemetry/metric"
)

// DefaultResendInterval is the minimum spacing between resend requests
// enforced client-side. The backend rate limits independently.
const DefaultResendInterval = 30 * time.Second

// AuthPayload is the credential-bearing portion of a backend response.
type AuthPayload struct {
	AccessToken  string
	RefreshToken string
	User         *domain.User
}

// OTPBackend is the slice of the identity backend the verification flows
// consume.
type OTPBackend interface {
	// Verify submits an activation or login OTP code. A payload with a
	// token is returned on the login path.
	Verify(ctx context.Context, email, code string) (*AuthPayload, error)

	// ResendOTP re-issues an activation code.
	ResendOTP(ctx context.Context, email string) error

	// ForgotPassword starts the password-reset flow.
	ForgotPassword(ctx context.Context, email string) error

	// VerifyPasswordReset submits a reset code and returns the one-shot
	// reset token.
	VerifyPasswordReset(ctx context.Context, email, code string) (string, error)

	// ResetPassword sets the new password using the reset token.
	ResetPassword(ctx context.Context, email, resetToken, newPassword string) error
}

// VerificationService models the OTP flows as an explicit state machine.
//
// Registration/login: Anonymous -> AwaitingCode -> Verified.
// Password reset: Anonymous -> ResetRequested -> CodeVerified -> PasswordSet.
//
// The ticket lives only for the duration of a flow and is destroyed on
// success, cancel or reset.
type VerificationService struct {
	store   *CredentialStore
	backend OTPBackend
	logger  logger.Logger
	metrics *metric.Registry
	limiter *rate.Limiter

	mu         sync.Mutex
	state      domain.FlowState
	ticket     *domain.Ticket
	resetToken string
}

// VerificationOption configures a VerificationService.
type VerificationOption func(*VerificationService)

// WithVerificationLogger sets the logger.
func WithVerificationLogger(l logger.Logger) VerificationOption {
	return func(v *VerificationService) { v.logger = l }
}

// WithVerificationMetrics sets the metrics registry.
func WithVerificationMetrics(m *metric.Registry) VerificationOption {
	return func(v *VerificationService) { v.metrics = m }
}

// WithResendLimiter overrides the client-side resend limiter.
func WithResendLimiter(l *rate.Limiter) VerificationOption {
	return func(v *VerificationService) { v.limiter = l }
}

// NewVerificationService creates a service in the Anonymous state.
func NewVerificationService(store *CredentialStore, backend OTPBackend, opts ...VerificationOption) *VerificationService {
	v := &VerificationService{
		store:   store,
		backend: backend,
		logger:  logger.Default(),
		limiter: rate.NewLimiter(rate.Every(DefaultResendInterval), 1),
		state:   domain.StateAnonymous,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// State returns the current flow state.
func (v *VerificationService) State() domain.FlowState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Ticket returns a copy of the active ticket, or nil outside a flow.
func (v *VerificationService) Ticket() *domain.Ticket {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ticket == nil {
		return nil
	}
	t := *v.ticket
	return &t
}

// Cancel abandons the current flow and returns to Anonymous. Idempotent.
func (v *VerificationService) Cancel() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = domain.StateAnonymous
	v.ticket = nil
	v.resetToken = ""
}

// ============================================================================
// Activation / login OTP flow
// ============================================================================

// Begin enters AwaitingCode for an activation or login OTP dialog.
//
// The backend has already sent a code as a side effect of login or
// registration, so no network call is made here.
func (v *VerificationService) Begin(email string, purpose domain.FlowPurpose) error {
	ticket, err := domain.NewTicket(email, purpose)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.state = domain.StateAwaitingCode
	v.ticket = &ticket
	v.resetToken = ""

	v.logger.Info("verification started", "purpose", string(purpose), "email", ticket.Email)
	return nil
}

// Verify submits an OTP code for the active activation or login flow.
//
// A wrong-length or non-digit code is rejected locally without a network
// call. On the login path a successful verify establishes a session from
// the returned token; an absent token is a hard error. The registration
// path never establishes a session: it terminates in Verified and the
// caller redirects to login.
func (v *VerificationService) Verify(ctx context.Context, code string) error {
	// 1. Snapshot flow state
	v.mu.Lock()
	if v.state != domain.StateAwaitingCode || v.ticket == nil {
		v.mu.Unlock()
		return domain.ErrFlowState
	}
	ticket := *v.ticket
	v.mu.Unlock()

	// 2. Local code check, no network round-trip on failure
	if err := ticket.ValidateCode(code); err != nil {
		v.countVerify(ticket.Purpose, "invalid_input")
		return err
	}

	// 3. Submit to the backend
	payload, err := v.backend.Verify(ctx, ticket.Email, code)
	if err != nil {
		v.countVerify(ticket.Purpose, verifyOutcome(err))
		return err
	}

	// 4. Login path: establish the session from the same response
	if ticket.Purpose == domain.PurposeLogin {
		if payload == nil || !domain.ValidToken(payload.AccessToken) {
			v.countVerify(ticket.Purpose, "no_token")
			return domain.ErrNoTokenInResponse
		}
		if err := v.store.SetSession(payload.AccessToken, payload.User, payload.RefreshToken); err != nil {
			v.countVerify(ticket.Purpose, "no_token")
			return err
		}
	}

	// 5. Terminal state; ticket destroyed
	v.mu.Lock()
	v.state = domain.StateVerified
	v.ticket = nil
	v.mu.Unlock()

	v.countVerify(ticket.Purpose, "success")
	v.logger.Info("verification succeeded", "purpose", string(ticket.Purpose))
	return nil
}

// Resend re-issues a code for the active flow.
//
// Always available from AwaitingCode or ResetRequested regardless of prior
// failed verify attempts, but spaced by a client-side limiter.
func (v *VerificationService) Resend(ctx context.Context) error {
	v.mu.Lock()
	state := v.state
	if v.ticket == nil {
		v.mu.Unlock()
		return domain.ErrFlowState
	}
	ticket := *v.ticket
	v.mu.Unlock()

	if state != domain.StateAwaitingCode && state != domain.StateResetRequested {
		return domain.ErrFlowState
	}

	if !v.limiter.Allow() {
		v.countResend("rate_limited")
		return domain.ErrRateLimited
	}

	var err error
	if state == domain.StateResetRequested {
		err = v.backend.ForgotPassword(ctx, ticket.Email)
	} else {
		err = v.backend.ResendOTP(ctx, ticket.Email)
	}
	if err != nil {
		v.countResend("error")
		return err
	}

	v.countResend("sent")
	v.logger.Info("verification code resent", "email", ticket.Email)
	return nil
}

// ============================================================================
// Password reset flow
// ============================================================================

// RequestReset starts the password-reset flow for email.
func (v *VerificationService) RequestReset(ctx context.Context, email string) error {
	ticket, err := domain.NewTicket(email, domain.PurposePasswordReset)
	if err != nil {
		return err
	}

	if err := v.backend.ForgotPassword(ctx, ticket.Email); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.state = domain.StateResetRequested
	v.ticket = &ticket
	v.resetToken = ""

	v.logger.Info("password reset requested", "email", ticket.Email)
	return nil
}

// VerifyReset submits the reset code and holds the returned reset token
// for CompleteReset.
func (v *VerificationService) VerifyReset(ctx context.Context, code string) error {
	v.mu.Lock()
	if v.state != domain.StateResetRequested || v.ticket == nil {
		v.mu.Unlock()
		return domain.ErrFlowState
	}
	ticket := *v.ticket
	v.mu.Unlock()

	if err := ticket.ValidateCode(code); err != nil {
		v.countVerify(ticket.Purpose, "invalid_input")
		return err
	}

	resetToken, err := v.backend.VerifyPasswordReset(ctx, ticket.Email, code)
	if err != nil {
		v.countVerify(ticket.Purpose, verifyOutcome(err))
		return err
	}

	v.mu.Lock()
	v.state = domain.StateCodeVerified
	v.resetToken = resetToken
	v.mu.Unlock()

	v.countVerify(ticket.Purpose, "success")
	return nil
}

// CompleteReset sets the new password using the held reset token and
// terminates the flow.
func (v *VerificationService) CompleteReset(ctx context.Context, newPassword string) error {
	v.mu.Lock()
	if v.state != domain.StateCodeVerified || v.ticket == nil {
		v.mu.Unlock()
		return domain.ErrFlowState
	}
	ticket := *v.ticket
	resetToken := v.resetToken
	v.mu.Unlock()

	if err := v.backend.ResetPassword(ctx, ticket.Email, resetToken, newPassword); err != nil {
		return err
	}

	v.mu.Lock()
	v.state = domain.StatePasswordSet
	v.ticket = nil
	v.resetToken = ""
	v.mu.Unlock()

	v.logger.Info("password reset completed", "email", ticket.Email)
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

func (v *VerificationService) countVerify(purpose domain.FlowPurpose, outcome string) {
	if v.metrics == nil {
		return
	}
	v.metrics.VerifyAttempts.WithLabelValues(string(purpose), outcome).Inc()
}

func (v *VerificationService) countResend(outcome string) {
	if v.metrics == nil {
		return
	}
	v.metrics.ResendTotal.WithLabelValues(outcome).Inc()
}

// verifyOutcome maps a backend error to a metrics label.
func verifyOutcome(err error) string {
	switch {
	case domain.IsDomainError(err, domain.ErrWrongCode.Code):
		return "wrong_code"
	case domain.IsDomainError(err, domain.ErrExpiredCode.Code):
		return "expired_code"
	case domain.IsDomainError(err, domain.ErrAlreadyActive.Code):
		return "already_active"
	case domain.IsDomainError(err, domain.ErrRateLimited.Code):
		return "rate_limited"
	default:
		return "error"
	}
}
