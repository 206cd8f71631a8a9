package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/auth"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage/sqlite"
)

const testSecret = "service-test-secret-0123456789"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestAuthService(t *testing.T) (*AuthService, *auth.TokenManager) {
	t.Helper()
	store := newTestStore(t)
	tokens := auth.NewTokenManager(testSecret, time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	return NewAuthService(authenticator, tokens, discardLogger()), tokens
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

type recordingPublisher struct {
	mu  sync.Mutex
	txs []*models.Transaction
	err error
}

func (p *recordingPublisher) PublishTransactionCreated(_ context.Context, tx *models.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.txs = append(p.txs, tx)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	svc, tokens := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw1234", Name: "A"})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)

	result, err := svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "pw1234"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
	assert.Equal(t, "A", result.User.Name)
	assert.WithinDuration(t, time.Now().Add(time.Hour), result.ExpiresAt, 5*time.Second)

	userID, err := tokens.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestAuthServiceRegisterErrors(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw1234", Name: "A"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "other", Name: "B"})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	assert.Equal(t, MsgEmailRegistered, apperr.MessageOf(err))

	_, err = svc.Register(ctx, RegisterInput{Email: "b@x.com", Name: "B"})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	assert.Equal(t, MsgMissingFields, apperr.MessageOf(err))

	_, err = svc.Register(ctx, RegisterInput{Email: "c@x.com", Password: strings.Repeat("x", 73), Name: "C"})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	assert.Equal(t, MsgPasswordTooLong, apperr.MessageOf(err))
}

func TestAuthServiceLoginErrors(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Password: "pw1234", Name: "A"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "wrong"})
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	assert.Equal(t, MsgInvalidPassword, apperr.MessageOf(err))

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@x.com", Password: "pw1234"})
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	assert.Equal(t, MsgUserNotFound, apperr.MessageOf(err))
}

func TestAuthServiceConcurrentRegistration(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	const attempts = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(ctx, RegisterInput{Email: "race@x.com", Password: "pw", Name: "R"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			assert.Equal(t, MsgEmailRegistered, apperr.MessageOf(err))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, succeeded)
}

type failingAuthenticator struct{ err error }

func (f failingAuthenticator) Register(context.Context, string, string, string) (*models.User, error) {
	return nil, f.err
}

func (f failingAuthenticator) Authenticate(context.Context, string, string) (*models.User, error) {
	return nil, f.err
}

func (f failingAuthenticator) Lookup(context.Context, string) (*models.User, error) {
	return nil, f.err
}

func (f failingAuthenticator) ValidateCredential(string) error { return nil }

func TestAuthServiceStoreFailureIsUnavailable(t *testing.T) {
	storeErr := errors.New("database is closed")
	svc := NewAuthService(failingAuthenticator{err: storeErr}, auth.NewTokenManager(testSecret, time.Hour), discardLogger())

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@x.com", Password: "pw", Name: "A"})
	assert.Equal(t, apperr.CodeUnavailable, apperr.CodeOf(err))
	assert.ErrorIs(t, err, storeErr)

	_, err = svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "pw"})
	assert.Equal(t, apperr.CodeUnavailable, apperr.CodeOf(err))

	_, err = svc.Me(context.Background(), "u1")
	assert.Equal(t, apperr.CodeUnavailable, apperr.CodeOf(err))
}

func TestAuthServiceMe(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "me@x.com", Password: "pw1234", Name: "Me"})
	require.NoError(t, err)

	got, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "me@x.com", got.Email)
	assert.Equal(t, "Me", got.Name)

	_, err = svc.Me(ctx, "deleted-user")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
	assert.Equal(t, MsgUserNotFound, apperr.MessageOf(err))
}

func newUser(t *testing.T, store *sqlite.SQLiteStore, email string) *models.User {
	t.Helper()
	user := models.NewUser(email, "Test", "hash")
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func TestTransactionServiceAdd(t *testing.T) {
	store := newTestStore(t)
	pub := &recordingPublisher{}
	svc := NewTransactionService(store, pub, discardLogger())
	user := newUser(t, store, "a@x.com")

	tx, err := svc.Add(context.Background(), user.ID, AddTransactionInput{
		Amount:      amount("42.50"),
		Description: "coffee",
		Type:        models.TransactionWithdraw,
		Category:    "food",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, user.ID, tx.UserID)
	assert.WithinDuration(t, time.Now(), tx.Date, 5*time.Second)

	require.Len(t, pub.txs, 1)
	assert.Equal(t, tx.ID, pub.txs[0].ID)

	txs, err := svc.List(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("42.5")))
	assert.Equal(t, "coffee", txs[0].Description)
}

func TestTransactionServiceAllowsOverdraft(t *testing.T) {
	store := newTestStore(t)
	svc := NewTransactionService(store, nil, discardLogger())
	user := newUser(t, store, "a@x.com")

	_, err := svc.Add(context.Background(), user.ID, AddTransactionInput{
		Amount:      amount("1000000"),
		Description: "rent",
		Type:        models.TransactionWithdraw,
		Category:    "housing",
	})
	assert.NoError(t, err, "withdrawals are never checked against the balance")
}

func TestTransactionServiceDefaultDateNotBeforeNow(t *testing.T) {
	store := newTestStore(t)
	svc := NewTransactionService(store, nil, discardLogger())
	now := time.Date(2026, 10, 18, 12, 0, 0, 250_400_000, time.UTC)
	svc.now = func() time.Time { return now }
	user := newUser(t, store, "a@x.com")

	tx, err := svc.Add(context.Background(), user.ID, AddTransactionInput{
		Amount:      amount("3"),
		Description: "tea",
		Type:        models.TransactionWithdraw,
		Category:    "food",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 18, 12, 0, 0, 251_000_000, time.UTC), tx.Date)

	txs, err := svc.List(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.False(t, txs[0].Date.Before(now))
}

func TestTransactionServiceUsesGivenDate(t *testing.T) {
	store := newTestStore(t)
	svc := NewTransactionService(store, nil, discardLogger())
	user := newUser(t, store, "a@x.com")

	when := time.Date(2026, 10, 1, 9, 30, 0, 123456789, time.FixedZone("CEST", 2*3600))
	tx, err := svc.Add(context.Background(), user.ID, AddTransactionInput{
		Amount:      amount("1"),
		Description: "bus",
		Type:        models.TransactionWithdraw,
		Category:    "transport",
		Date:        &when,
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 1, 7, 30, 0, 123000000, time.UTC), tx.Date)
}

func TestTransactionServiceValidation(t *testing.T) {
	store := newTestStore(t)
	pub := &recordingPublisher{}
	svc := NewTransactionService(store, pub, discardLogger())
	user := newUser(t, store, "a@x.com")

	valid := func() AddTransactionInput {
		return AddTransactionInput{
			Amount:      amount("5"),
			Description: "lunch",
			Type:        models.TransactionWithdraw,
			Category:    "food",
		}
	}

	tests := []struct {
		name   string
		mutate func(*AddTransactionInput)
	}{
		{"missing amount", func(in *AddTransactionInput) { in.Amount = nil }},
		{"negative amount", func(in *AddTransactionInput) { in.Amount = amount("-1") }},
		{"missing description", func(in *AddTransactionInput) { in.Description = " " }},
		{"unknown type", func(in *AddTransactionInput) { in.Type = "transfer" }},
		{"missing type", func(in *AddTransactionInput) { in.Type = "" }},
		{"missing category", func(in *AddTransactionInput) { in.Category = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			_, err := svc.Add(context.Background(), user.ID, in)
			require.Error(t, err)
			assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
		})
	}

	txs, err := svc.List(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, txs, "rejected input must not be stored")
	assert.Empty(t, pub.txs)
}

func TestTransactionServicePublishFailureDoesNotFailAdd(t *testing.T) {
	store := newTestStore(t)
	svc := NewTransactionService(store, &recordingPublisher{err: errors.New("broker down")}, discardLogger())
	user := newUser(t, store, "a@x.com")

	_, err := svc.Add(context.Background(), user.ID, AddTransactionInput{
		Amount:      amount("3"),
		Description: "tea",
		Type:        models.TransactionWithdraw,
		Category:    "food",
	})
	assert.NoError(t, err)
}

func TestTransactionServiceStoreFailure(t *testing.T) {
	store := newTestStore(t)
	svc := NewTransactionService(store, nil, discardLogger())
	require.NoError(t, store.Close())

	_, err := svc.List(context.Background(), "someone")
	assert.Equal(t, apperr.CodeUnavailable, apperr.CodeOf(err))
}

func TestAnalyticsServiceSummary(t *testing.T) {
	store := newTestStore(t)
	txSvc := NewTransactionService(store, nil, discardLogger())
	svc := NewAnalyticsService(store, 1, discardLogger())
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	alice := newUser(t, store, "alice@x.com")
	bob := newUser(t, store, "bob@x.com")
	ctx := context.Background()

	add := func(ownerID, amt string, typ models.TransactionType, category string, date time.Time) {
		t.Helper()
		_, err := txSvc.Add(ctx, ownerID, AddTransactionInput{
			Amount: amount(amt), Description: category, Type: typ, Category: category, Date: &date,
		})
		require.NoError(t, err)
	}

	add(alice.ID, "10", models.TransactionWithdraw, "groceries", now.AddDate(0, 0, -2))
	add(alice.ID, "5", models.TransactionWithdraw, "groceries", now.AddDate(0, 0, -2))
	add(alice.ID, "999", models.TransactionDeposit, "salary", now.AddDate(0, -2, 0))
	add(bob.ID, "77", models.TransactionWithdraw, "groceries", now.AddDate(0, 0, -1))

	result, err := svc.Summary(ctx, alice.ID, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, []string{"groceries-withdraw"}, result.CategoryTotals.Keys())
	total, _ := result.CategoryTotals.Get("groceries-withdraw")
	assert.True(t, total.Equal(decimal.NewFromInt(15)))

	day, ok := result.DailyTotals.Get("2026-10-16")
	require.True(t, ok)
	assert.True(t, day.Withdrawals.Equal(decimal.NewFromInt(15)))
	assert.True(t, day.Deposits.IsZero())

	// An explicit window start widens the range.
	result, err = svc.Summary(ctx, alice.ID, now.AddDate(0, -3, 0))
	require.NoError(t, err)
	_, ok = result.CategoryTotals.Get("salary-deposit")
	assert.True(t, ok)
}

func TestAnalyticsServiceDefaultWindow(t *testing.T) {
	svc := NewAnalyticsService(nil, 0, discardLogger())
	svc.now = func() time.Time { return time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC) }

	assert.Equal(t, time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC), svc.DefaultWindowStart())
}
