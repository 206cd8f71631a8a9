// Package analytics derives per-user summaries from transaction history.
// Nothing here touches storage; callers pass the transactions in.
package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/models"
)

// DefaultWindowMonths is the trailing window used when none is configured.
const DefaultWindowMonths = 1

// WindowStart returns the inclusive lower bound of a trailing window of
// months calendar months ending at now. Month arithmetic follows
// time.AddDate, so March 31 minus one month normalises to March 3 (or 2).
func WindowStart(now time.Time, months int) time.Time {
	if months <= 0 {
		months = DefaultWindowMonths
	}
	return now.UTC().AddDate(0, -months, 0)
}

// Aggregator folds transactions into category and daily totals.
//
// Algorithm:
//   - Category key is "<category>-<type>"; deposits and withdrawals of the
//     same category are separate keys and never netted.
//   - Daily key is the transaction's UTC calendar date; each day has a
//     deposits bucket and a withdrawals bucket.
//   - Keys appear in the order they were first seen.
//
// Sums are exact decimals, so totals do not depend on traversal order.
type Aggregator struct {
	categories *models.CategoryTotals
	daily      *models.DailyTotals
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		categories: models.NewCategoryTotals(),
		daily:      models.NewDailyTotals(),
	}
}

// Add folds one transaction into the totals.
func (a *Aggregator) Add(tx models.Transaction) {
	a.categories.Add(models.CategoryKey(tx.Category, tx.Type), tx.Amount)
	a.daily.Add(tx.Date.UTC().Format(models.DateLayout), tx.Type, tx.Amount)
}

// Result returns the totals accumulated so far.
func (a *Aggregator) Result() models.Analytics {
	return models.Analytics{
		CategoryTotals: a.categories,
		DailyTotals:    a.daily,
	}
}

// Aggregate folds txs into a fresh result. Calling it twice on the same
// input yields equal results.
func Aggregate(txs []models.Transaction) models.Analytics {
	agg := NewAggregator()
	for _, tx := range txs {
		agg.Add(tx)
	}
	return agg.Result()
}

// Balance returns total deposits minus total withdrawals.
// It is a display value; the server never stores or enforces it.
func Balance(txs []models.Transaction) decimal.Decimal {
	balance := decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case models.TransactionDeposit:
			balance = balance.Add(tx.Amount)
		case models.TransactionWithdraw:
			balance = balance.Sub(tx.Amount)
		}
	}
	return balance
}
