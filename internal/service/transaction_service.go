package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/events"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

// AddTransactionInput carries the fields of a new transaction.
// Amount is a pointer so a missing amount can be told apart from zero.
type AddTransactionInput struct {
	Amount      *decimal.Decimal       `json:"amount"`
	Description string                 `json:"description"`
	Type        models.TransactionType `json:"type"`
	Category    string                 `json:"category"`
	Date        *time.Time             `json:"date,omitempty"`
}

// TransactionService records and lists a user's transactions.
type TransactionService struct {
	store     storage.TransactionStore
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewTransactionService creates a TransactionService. A nil publisher
// disables event publishing.
func NewTransactionService(store storage.TransactionStore, publisher events.Publisher, logger *slog.Logger) *TransactionService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &TransactionService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func validateTransaction(in AddTransactionInput) error {
	if in.Amount == nil {
		return apperr.New(apperr.CodeInvalidArgument, "amount is required")
	}
	if in.Amount.IsNegative() {
		return apperr.New(apperr.CodeInvalidArgument, "amount must not be negative")
	}
	if strings.TrimSpace(in.Description) == "" {
		return apperr.New(apperr.CodeInvalidArgument, "description is required")
	}
	if !in.Type.Valid() {
		return apperr.New(apperr.CodeInvalidArgument, "type must be deposit or withdraw")
	}
	if strings.TrimSpace(in.Category) == "" {
		return apperr.New(apperr.CodeInvalidArgument, "category is required")
	}
	return nil
}

// Add records a transaction for ownerID. Withdrawals are not checked
// against the balance.
func (s *TransactionService) Add(ctx context.Context, ownerID string, in AddTransactionInput) (*models.Transaction, error) {
	if err := validateTransaction(in); err != nil {
		return nil, err
	}

	date := models.StampTime(s.now())
	if in.Date != nil && !in.Date.IsZero() {
		date = in.Date.UTC().Truncate(time.Millisecond)
	}

	tx := &models.Transaction{
		UserID:      ownerID,
		Amount:      *in.Amount,
		Description: strings.TrimSpace(in.Description),
		Type:        in.Type,
		Category:    strings.TrimSpace(in.Category),
		Date:        date,
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		s.logger.Error("Failed to create transaction", "user_id", ownerID, "error", err)
		return nil, apperr.Wrap(apperr.CodeUnavailable, "failed to save transaction", err)
	}

	if err := s.publisher.PublishTransactionCreated(ctx, tx); err != nil {
		s.logger.Warn("Failed to publish transaction event", "transaction_id", tx.ID, "error", err)
	}

	s.logger.Info("Transaction created", "transaction_id", tx.ID, "user_id", ownerID, "type", tx.Type)
	return tx, nil
}

// List returns ownerID's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, ownerID string) ([]models.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, ownerID)
	if err != nil {
		s.logger.Error("Failed to list transactions", "user_id", ownerID, "error", err)
		return nil, apperr.Wrap(apperr.CodeUnavailable, "failed to load transactions", err)
	}
	return txs, nil
}
