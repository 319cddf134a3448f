package authsvc

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/farahmhedhbi/fleet-management-sub000/internal/api"
)

// Upstream endpoints
const (
	LoginPath          = "/api/auth/login"
	RegisterPath       = "/api/auth/register"
	ForgotPasswordPath = "/api/auth/forgot-password"
	ResetPasswordPath  = "/reset-password"
	ChangePasswordPath = "/api/auth/change-password"
	MePath             = "/api/auth/me"
)

const (
	forgotPasswordDefaultMessage = "If the email exists, a reset link has been sent."
	resetPasswordDefaultMessage  = "Password has been reset."
	changePasswordDefaultMessage = "Password changed."
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	Role          string `json:"role"`
	Phone         string `json:"phone,omitempty"`
	LicenseNumber string `json:"licenseNumber,omitempty"`
}

// AuthResponse is returned by login and register
type AuthResponse struct {
	Token     string `json:"token"`
	Type      string `json:"type"`
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// MessageResponse is the body of the password endpoints
type MessageResponse struct {
	Message string `json:"message"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// SessionClearer is the part of the session store Logout needs
type SessionClearer interface {
	Clear() error
}

// Service performs the network round trips that create or destroy a
// session. It holds no session state of its own.
type Service struct {
	client *api.Client
	// public serves the endpoints that need no session: login, register
	// and the password reset pair
	public *api.Client
	log    zerolog.Logger
}

// New creates a Service over client
func New(client *api.Client, log zerolog.Logger) *Service {
	return &Service{client: client, public: client.WithoutSession(), log: log}
}

// Login exchanges credentials for a token and user
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := s.public.Post(ctx, LoginPath, LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, s.classify(err, "login", func(status int) (string, error) {
			if status == http.StatusUnauthorized || status == http.StatusForbidden {
				return "Invalid email or password", ErrInvalidCredentials
			}
			return "", nil
		}, "Login failed")
	}
	if resp.Token == "" {
		return nil, &Error{Kind: ErrUnexpected, Message: "Login failed", Status: http.StatusOK}
	}

	s.log.Info().Str("email", email).Int64("user_id", resp.ID).Msg("User logged in")
	return &resp, nil
}

// Register creates an account and returns a session for it
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := s.public.Post(ctx, RegisterPath, req, &resp); err != nil {
		return nil, s.classify(err, "register", func(status int) (string, error) {
			if status == http.StatusBadRequest || status == http.StatusConflict {
				return "Invalid registration data", ErrValidation
			}
			return "", nil
		}, "Registration failed")
	}
	if resp.Token == "" {
		return nil, &Error{Kind: ErrUnexpected, Message: "Registration failed", Status: http.StatusOK}
	}

	s.log.Info().Str("email", req.Email).Str("role", req.Role).Msg("User registered")
	return &resp, nil
}

// Logout clears the local session. Server-side invalidation is not attempted.
func (s *Service) Logout(store SessionClearer) error {
	return store.Clear()
}

// ForgotPassword asks the API to mail a reset link. Any HTTP response counts
// as success: the API never reveals whether the email exists.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	var resp MessageResponse
	err := s.public.Post(ctx, ForgotPasswordPath, forgotPasswordRequest{Email: email}, &resp)
	if err != nil {
		if errors.Is(err, api.ErrNoResponse) {
			return "", s.classify(err, "forgot-password", nil, "")
		}
		s.log.Debug().Err(err).Msg("Forgot-password answered with an error status")
		return forgotPasswordDefaultMessage, nil
	}

	if resp.Message == "" {
		return forgotPasswordDefaultMessage, nil
	}
	return resp.Message, nil
}

// ResetPassword sets a new password using a mailed reset token
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	var resp MessageResponse
	err := s.public.Post(ctx, ResetPasswordPath, resetPasswordRequest{Token: token, NewPassword: newPassword}, &resp)
	if err != nil {
		return "", s.classify(err, "reset-password", func(status int) (string, error) {
			switch status {
			case http.StatusBadRequest, http.StatusNotFound, http.StatusGone:
				return "Invalid or expired reset link", ErrInvalidOrExpiredToken
			}
			return "", nil
		}, "Password reset failed")
	}

	return messageOr(resp.Message, resetPasswordDefaultMessage), nil
}

// ChangePassword changes the signed-in user's password. The caller must
// end the session on success: the API may have invalidated the token.
func (s *Service) ChangePassword(ctx context.Context, oldPassword, newPassword string) (string, error) {
	var resp MessageResponse
	err := s.client.Post(ctx, ChangePasswordPath, changePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}, &resp)
	if err != nil {
		return "", s.classify(err, "change-password", func(status int) (string, error) {
			if status == http.StatusBadRequest || status == http.StatusForbidden {
				return "Current password is incorrect", ErrInvalidOldPassword
			}
			return "", nil
		}, "Password change failed")
	}

	return messageOr(resp.Message, changePasswordDefaultMessage), nil
}

// classify maps a client error to a tagged Error. byStatus returns the kind
// and default message for statuses the operation understands.
func (s *Service) classify(err error, op string, byStatus func(status int) (string, error), fallback string) error {
	if errors.Is(err, api.ErrNoResponse) {
		s.log.Warn().Err(err).Str("op", op).Msg("Fleet API unreachable")
		return &Error{
			Kind:    ErrNetwork,
			Message: "Cannot connect to server. Please check your connection.",
			Err:     err,
		}
	}

	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return &Error{Kind: ErrUnexpected, Message: fallback, Err: err}
	}

	if byStatus != nil {
		if msg, kind := byStatus(apiErr.Status); kind != nil {
			// Anything but a credentials failure carries the server's explanation
			if kind != ErrInvalidCredentials && apiErr.Message != "" && apiErr.Message != "Server error" {
				msg = apiErr.Message
			}
			return &Error{Kind: kind, Message: msg, Status: apiErr.Status, Err: err}
		}
	}

	s.log.Error().Err(err).Str("op", op).Int("status", apiErr.Status).Msg("Unexpected fleet API response")
	return &Error{Kind: ErrUnexpected, Message: messageOr(apiErr.Message, fallback), Status: apiErr.Status, Err: err}
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
