package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

// CreateUser inserts a new user. A taken email fails on the UNIQUE index.
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Email, user.Name, user.PasswordHash, toMillis(user.CreatedAt),
	)
	if isUniqueViolation(err) {
		return storage.ErrEmailExists
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE email = $1`,
		email,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var createdAt int64
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.CreatedAt = fromMillis(createdAt)
	return user, nil
}
