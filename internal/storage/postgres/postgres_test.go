package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("connection refused")))
	assert.False(t, isUniqueViolation(nil))
}

// openTestStore connects to the database named by FINTRACK_TEST_POSTGRES_DSN.
func openTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("FINTRACK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FINTRACK_TEST_POSTGRES_DSN not set, skipping postgres integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPostgresStoreIntegration(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// Unique emails per run so the test can share a database.
	email := "pg-" + uuid.NewString() + "@x.com"

	user := models.NewUser(email, "PG", "hash")
	require.NoError(t, store.CreateUser(ctx, user))

	err := store.CreateUser(ctx, models.NewUser(email, "PG2", "hash"))
	assert.ErrorIs(t, err, storage.ErrEmailExists)

	_, err = store.GetUserByEmail(ctx, "missing-"+email)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i, amount := range []string{"10", "5.25"} {
		require.NoError(t, store.CreateTransaction(ctx, &models.Transaction{
			UserID:      user.ID,
			Amount:      decimal.RequireFromString(amount),
			Description: "tx",
			Type:        models.TransactionDeposit,
			Category:    "other",
			Date:        base.Add(time.Duration(i) * time.Minute),
		}))
	}

	txs, err := store.ListTransactions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("5.25")))

	txs, err = store.ListTransactionsSince(ctx, user.ID, base.Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}
