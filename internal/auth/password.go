package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

var (
	ErrMissingField    = errors.New("email, password and name are required")
	ErrEmailExists     = errors.New("email already registered")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")
	// ErrPasswordTooLong is returned for passwords bcrypt cannot hash.
	ErrPasswordTooLong = fmt.Errorf("password must be at most %d bytes", MaxPasswordBytes)
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// UserStorage defines the interface for user persistence operations.
// This allows the authenticator to be independent of the storage implementation.
type UserStorage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage UserStorage
	cost    int
}

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(storage UserStorage) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage: storage,
		cost:    bcrypt.DefaultCost,
	}
}

// WithCost returns a copy of a that hashes with the given bcrypt cost.
// Tests use bcrypt.MinCost to stay fast.
func (a *PasswordAuthenticator) WithCost(cost int) *PasswordAuthenticator {
	cp := *a
	cp.cost = cost
	return &cp
}

// ValidateCredential checks that a password was supplied and fits bcrypt's
// input limit. No strength policy is enforced.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if credential == "" {
		return ErrMissingField
	}
	if len(credential) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// Register creates a new user account with a hashed password.
// Email uniqueness is left to the store's constraint, so two concurrent
// registrations for one email cannot both succeed.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, displayName, credential string) (*models.User, error) {
	email = strings.TrimSpace(email)
	displayName = strings.TrimSpace(displayName)
	if email == "" || displayName == "" {
		return nil, ErrMissingField
	}
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(credential), a.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ErrPasswordTooLong
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(email, displayName, string(hashedPassword))

	if err := a.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies the email and password, returning the user if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.User, error) {
	user, err := a.storage.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidPassword
	}

	return user, nil
}

// Lookup fetches a user by ID.
func (a *PasswordAuthenticator) Lookup(ctx context.Context, userID string) (*models.User, error) {
	user, err := a.storage.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return user, nil
}
