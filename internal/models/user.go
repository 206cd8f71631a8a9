package models

import "time"

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// Email is the user's login, unique across all users.
	// Stored and compared exactly as given (case-sensitive).
	Email string `json:"email"`

	// Name is the display name of the user.
	Name string `json:"name"`

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `json:"-"`

	// CreatedAt is when the account was registered (UTC).
	CreatedAt time.Time `json:"createdAt"`
}

// NewUser creates a new User with the given credentials.
// The ID is left empty; the store assigns one on insert.
func NewUser(email, name, passwordHash string) *User {
	return &User{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}
