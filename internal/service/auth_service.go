package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/auth"
	"github.com/mmynk/fintrack/internal/models"
)

// Client-facing messages for credential failures.
const (
	MsgMissingFields   = "email, password and name are required"
	MsgEmailRegistered = "email already registered"
	MsgUserNotFound    = "User not found"
	MsgInvalidPassword = "Invalid password"
	MsgPasswordTooLong = "password must be at most 72 bytes"
)

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginInput carries the fields of a login request.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is a freshly authenticated session.
type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// TokenIssuer issues session tokens.
type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
}

// AuthService registers users and starts sessions.
type AuthService struct {
	authenticator auth.Authenticator
	tokens        TokenIssuer
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, tokens TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		tokens:        tokens,
		logger:        logger,
	}
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	s.logger.Info("Register request", "email", in.Email)

	user, err := s.authenticator.Register(ctx, in.Email, in.Name, in.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingField):
			return nil, apperr.New(apperr.CodeInvalidArgument, MsgMissingFields)
		case errors.Is(err, auth.ErrPasswordTooLong):
			return nil, apperr.New(apperr.CodeInvalidArgument, MsgPasswordTooLong)
		case errors.Is(err, auth.ErrEmailExists):
			s.logger.Warn("Registration rejected", "email", in.Email, "reason", "duplicate")
			return nil, apperr.New(apperr.CodeInvalidArgument, MsgEmailRegistered)
		default:
			s.logger.Error("Registration failed", "email", in.Email, "error", err)
			return nil, apperr.Wrap(apperr.CodeUnavailable, "failed to create user", err)
		}
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Login authenticates a user and issues a session token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	s.logger.Info("Login request", "email", in.Email)

	user, err := s.authenticator.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			s.logger.Warn("Login failed", "email", in.Email, "reason", "unknown user")
			return nil, apperr.New(apperr.CodeNotFound, MsgUserNotFound)
		case errors.Is(err, auth.ErrInvalidPassword):
			s.logger.Warn("Login failed", "email", in.Email, "reason", "bad password")
			return nil, apperr.New(apperr.CodeInvalidArgument, MsgInvalidPassword)
		default:
			s.logger.Error("Login failed", "email", in.Email, "error", err)
			return nil, apperr.Wrap(apperr.CodeUnavailable, "failed to look up user", err)
		}
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, apperr.Wrap(apperr.CodeInternal, "failed to issue token", err)
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID, "email", user.Email)
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Me returns the account behind an authenticated request.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.authenticator.Lookup(ctx, userID)
	if errors.Is(err, auth.ErrUserNotFound) {
		s.logger.Warn("Token for unknown user", "user_id", userID)
		return nil, apperr.New(apperr.CodeUnauthenticated, MsgUserNotFound)
	}
	if err != nil {
		s.logger.Error("User lookup failed", "user_id", userID, "error", err)
		return nil, apperr.Wrap(apperr.CodeUnavailable, "failed to look up user", err)
	}
	return user, nil
}
