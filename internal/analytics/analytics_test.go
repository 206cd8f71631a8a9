package analytics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/fintrack/internal/models"
)

func tx(amount string, typ models.TransactionType, category string, date time.Time) models.Transaction {
	return models.Transaction{
		Amount:   decimal.RequireFromString(amount),
		Type:     typ,
		Category: category,
		Date:     date,
	}
}

func mustEqualDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestAggregateGroceries(t *testing.T) {
	day := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)
	result := Aggregate([]models.Transaction{
		tx("10", models.TransactionWithdraw, "groceries", day),
		tx("5", models.TransactionWithdraw, "groceries", day.Add(2*time.Hour)),
	})

	require.Equal(t, 1, result.CategoryTotals.Len())
	total, ok := result.CategoryTotals.Get("groceries-withdraw")
	require.True(t, ok)
	mustEqualDecimal(t, "15", total)

	daily, ok := result.DailyTotals.Get("2026-10-12")
	require.True(t, ok)
	mustEqualDecimal(t, "0", daily.Deposits)
	mustEqualDecimal(t, "15", daily.Withdrawals)
}

func TestAggregateKeepsDirectionsSeparate(t *testing.T) {
	day := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)
	result := Aggregate([]models.Transaction{
		tx("100", models.TransactionDeposit, "refunds", day),
		tx("40", models.TransactionWithdraw, "refunds", day),
	})

	assert.Equal(t, []string{"refunds-deposit", "refunds-withdraw"}, result.CategoryTotals.Keys())
	dep, _ := result.CategoryTotals.Get("refunds-deposit")
	wd, _ := result.CategoryTotals.Get("refunds-withdraw")
	mustEqualDecimal(t, "100", dep)
	mustEqualDecimal(t, "40", wd)
}

func TestAggregateBucketsByUTCDay(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	// 22:00 EST on the 11th is 03:00 UTC on the 12th.
	result := Aggregate([]models.Transaction{
		tx("7", models.TransactionDeposit, "salary", time.Date(2026, 10, 11, 22, 0, 0, 0, est)),
	})

	assert.Equal(t, []string{"2026-10-12"}, result.DailyTotals.Keys())
}

func TestAggregateEmpty(t *testing.T) {
	result := Aggregate(nil)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"categoryTotals":{},"dailyTotals":{}}`, string(data))
}

func TestAggregateOrderIndependentTotals(t *testing.T) {
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		tx("0.1", models.TransactionWithdraw, "coffee", base),
		tx("0.2", models.TransactionWithdraw, "coffee", base.Add(time.Hour)),
		tx("1000000", models.TransactionDeposit, "salary", base.Add(24*time.Hour)),
		tx("42.50", models.TransactionWithdraw, "coffee", base.Add(48*time.Hour)),
	}
	reversed := make([]models.Transaction, len(txs))
	for i := range txs {
		reversed[len(txs)-1-i] = txs[i]
	}

	a := Aggregate(txs)
	b := Aggregate(reversed)

	for _, key := range a.CategoryTotals.Keys() {
		av, _ := a.CategoryTotals.Get(key)
		bv, ok := b.CategoryTotals.Get(key)
		require.True(t, ok, key)
		assert.True(t, av.Equal(bv), key)
	}
	for _, day := range a.DailyTotals.Keys() {
		av, _ := a.DailyTotals.Get(day)
		bv, ok := b.DailyTotals.Get(day)
		require.True(t, ok, day)
		assert.True(t, av.Deposits.Equal(bv.Deposits), day)
		assert.True(t, av.Withdrawals.Equal(bv.Withdrawals), day)
	}

	coffee, _ := a.CategoryTotals.Get("coffee-withdraw")
	mustEqualDecimal(t, "42.8", coffee)
}

func TestAggregateIsIdempotent(t *testing.T) {
	day := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		tx("3", models.TransactionDeposit, "gift", day),
		tx("2", models.TransactionWithdraw, "food", day),
	}

	first, err := json.Marshal(Aggregate(txs))
	require.NoError(t, err)
	second, err := json.Marshal(Aggregate(txs))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestAggregatorStreaming(t *testing.T) {
	day := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)
	agg := NewAggregator()
	agg.Add(tx("1", models.TransactionDeposit, "salary", day))
	agg.Add(tx("2", models.TransactionDeposit, "salary", day.AddDate(0, 0, 1)))

	result := agg.Result()
	assert.Equal(t, []string{"2026-10-12", "2026-10-13"}, result.DailyTotals.Keys())
	total, _ := result.CategoryTotals.Get("salary-deposit")
	mustEqualDecimal(t, "3", total)
}

func TestWindowStart(t *testing.T) {
	tests := []struct {
		name   string
		now    time.Time
		months int
		want   time.Time
	}{
		{
			name:   "mid month",
			now:    time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2026, 9, 18, 12, 0, 0, 0, time.UTC),
		},
		{
			name:   "year boundary",
			now:    time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "end of month normalises",
			now:    time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
			months: 1,
			want:   time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "zero months falls back to default",
			now:    time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC),
			months: 0,
			want:   time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "converted to UTC",
			now:    time.Date(2026, 10, 18, 1, 0, 0, 0, time.FixedZone("CEST", 2*3600)),
			months: 1,
			want:   time.Date(2026, 9, 17, 23, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WindowStart(tt.now, tt.months)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestBalance(t *testing.T) {
	day := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		tx("100", models.TransactionDeposit, "salary", day),
		tx("42.50", models.TransactionWithdraw, "coffee", day),
		tx("1000000", models.TransactionWithdraw, "rent", day),
	}

	// Overdrawn balances are representable; nothing clamps them.
	mustEqualDecimal(t, "-999942.5", Balance(txs))
	mustEqualDecimal(t, "0", Balance(nil))
}
