package identity

import "github.com/veldra/credvault-go/internal/core/domain"

// Backend endpoints.
const (
	PathLogin               = "/login"
	PathRefreshToken        = "/refresh-token"
	PathVerify              = "/verify"
	PathResendOTP           = "/resend-otp"
	PathForgotPassword      = "/forgot-password"
	PathVerifyPasswordReset = "/verify-password-reset"
	PathResetPassword       = "/reset-password"
	PathLogout              = "/logout"
)

// loginRequest is the POST /login body.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// refreshRequest is the POST /refresh-token body.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// verifyRequest is the body for /verify and /verify-password-reset.
type verifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// emailRequest is the body for /resend-otp and /forgot-password.
type emailRequest struct {
	Email string `json:"email"`
}

// resetPasswordRequest is the POST /reset-password body.
type resetPasswordRequest struct {
	Email      string `json:"email"`
	ResetToken string `json:"reset_token"`
	Password   string `json:"password"`
}

// apiResponse is the union of fields the backend returns. Success is
// signaled by a 2xx status; Message, when present, is free text the
// client classifies with domain.Classify.
type apiResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	ResetToken   string       `json:"reset_token"`
	Message      string       `json:"message"`
	User         *userPayload `json:"user"`
}

// userPayload is the backend's user representation.
type userPayload struct {
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	IsActive   *bool  `json:"is_active"`
	IsProvider *bool  `json:"is_provider"`
}

// toUser converts the wire form to the domain model.
func (u *userPayload) toUser() *domain.User {
	if u == nil {
		return nil
	}
	return &domain.User{
		Email:    u.Email,
		FullName: u.FullName,
		Active:   u.IsActive,
		Provider: u.IsProvider,
	}
}

// LoginResult is the outcome of a credential login.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *domain.User
	Message      string
}
