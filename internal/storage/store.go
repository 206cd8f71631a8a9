// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/fintrack/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrEmailExists is returned by CreateUser when the email is already taken.
	// Backends enforce this with a UNIQUE constraint, so concurrent
	// registrations cannot both succeed.
	ErrEmailExists = errors.New("email already exists")
)

// UserStore persists user identities.
type UserStore interface {
	// CreateUser inserts a new user. user.ID is assigned if empty.
	// Returns ErrEmailExists if the email is taken; no row is written.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns ErrNotFound if no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns ErrNotFound if no user has the ID.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// TransactionStore persists transactions. Every read is scoped to one owner.
type TransactionStore interface {
	// CreateTransaction inserts tx. tx.ID is assigned if empty.
	CreateTransaction(ctx context.Context, tx *models.Transaction) error

	// ListTransactions returns all of userID's transactions, newest first.
	ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error)

	// ListTransactionsSince returns userID's transactions dated at or after
	// since, newest first.
	ListTransactionsSince(ctx context.Context, userID string, since time.Time) ([]models.Transaction, error)
}

// Store combines all persistence operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	UserStore
	TransactionStore

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
