package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/fintrack/internal/models"
)

// CreateTransaction persists a new transaction.
func (s *PostgresStore) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.Date.IsZero() {
		tx.Date = models.StampTime(time.Now())
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, amount, description, type, category, date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tx.ID, tx.UserID, tx.Amount.String(), tx.Description, string(tx.Type), tx.Category, toMillis(tx.Date),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// ListTransactions returns all of a user's transactions, newest first.
func (s *PostgresStore) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, amount, description, type, category, date
		 FROM transactions
		 WHERE user_id = $1
		 ORDER BY date DESC, seq DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return scanTransactions(rows)
}

// ListTransactionsSince returns a user's transactions dated at or after since, newest first.
func (s *PostgresStore) ListTransactionsSince(ctx context.Context, userID string, since time.Time) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, amount, description, type, category, date
		 FROM transactions
		 WHERE user_id = $1 AND date >= $2
		 ORDER BY date DESC, seq DESC`,
		userID, toMillis(since),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	defer rows.Close()

	txs := []models.Transaction{}
	for rows.Next() {
		var (
			tx   models.Transaction
			kind string
			date int64
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.Description, &kind, &tx.Category, &date); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Type = models.TransactionType(kind)
		tx.Date = fromMillis(date)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txs, nil
}
