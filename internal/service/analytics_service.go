package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/fintrack/internal/analytics"
	"github.com/mmynk/fintrack/internal/apperr"
	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/storage"
)

// AnalyticsService summarises a user's recent transactions.
type AnalyticsService struct {
	store  storage.TransactionStore
	months int
	logger *slog.Logger
	now    func() time.Time
}

// NewAnalyticsService creates an AnalyticsService over a trailing window of
// months calendar months.
func NewAnalyticsService(store storage.TransactionStore, months int, logger *slog.Logger) *AnalyticsService {
	if months <= 0 {
		months = analytics.DefaultWindowMonths
	}
	return &AnalyticsService{
		store:  store,
		months: months,
		logger: logger,
		now:    time.Now,
	}
}

// DefaultWindowStart returns the start of the configured trailing window.
func (s *AnalyticsService) DefaultWindowStart() time.Time {
	return analytics.WindowStart(s.now(), s.months)
}

// Summary folds ownerID's transactions dated at or after since.
// A zero since uses the default window.
func (s *AnalyticsService) Summary(ctx context.Context, ownerID string, since time.Time) (models.Analytics, error) {
	if since.IsZero() {
		since = s.DefaultWindowStart()
	}

	txs, err := s.store.ListTransactionsSince(ctx, ownerID, since)
	if err != nil {
		s.logger.Error("Failed to load transactions for analytics", "user_id", ownerID, "error", err)
		return models.Analytics{}, apperr.Wrap(apperr.CodeUnavailable, "failed to load analytics", err)
	}

	s.logger.Debug("Analytics computed", "user_id", ownerID, "since", since, "transactions", len(txs))
	return analytics.Aggregate(txs), nil
}
