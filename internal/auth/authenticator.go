package auth

import (
	"context"

	"github.com/mmynk/fintrack/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password, passkeys, OAuth, etc.)
// without changing the service layer code.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	// Returns ErrEmailExists if the email is taken.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	// Returns ErrUserNotFound or ErrInvalidPassword on failure.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// Lookup returns the user a verified token belongs to.
	// Returns ErrUserNotFound if the account no longer exists.
	Lookup(ctx context.Context, userID string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}

// TokenVerifier resolves a token to the user ID it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

var (
	_ Authenticator = (*PasswordAuthenticator)(nil)
	_ TokenVerifier = (*TokenManager)(nil)
)
