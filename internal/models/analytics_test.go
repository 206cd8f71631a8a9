package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryTotalsKeepsFirstOccurrenceOrder(t *testing.T) {
	totals := NewCategoryTotals()
	totals.Add("salary-deposit", decimal.NewFromInt(100))
	totals.Add("groceries-withdraw", decimal.NewFromInt(5))
	totals.Add("salary-deposit", decimal.NewFromInt(50))
	totals.Add("bills-withdraw", decimal.RequireFromString("12.25"))

	assert.Equal(t, []string{"salary-deposit", "groceries-withdraw", "bills-withdraw"}, totals.Keys())

	got, ok := totals.Get("salary-deposit")
	require.True(t, ok)
	assert.True(t, got.Equal(decimal.NewFromInt(150)))

	data, err := json.Marshal(totals)
	require.NoError(t, err)
	assert.Equal(t, `{"salary-deposit":150,"groceries-withdraw":5,"bills-withdraw":12.25}`, string(data))
}

func TestDailyTotalsBuckets(t *testing.T) {
	daily := NewDailyTotals()
	daily.Add("2026-10-02", TransactionWithdraw, decimal.NewFromInt(5))
	daily.Add("2026-10-01", TransactionDeposit, decimal.NewFromInt(10))
	daily.Add("2026-10-02", TransactionDeposit, decimal.NewFromInt(7))

	assert.Equal(t, []string{"2026-10-02", "2026-10-01"}, daily.Keys())

	day, ok := daily.Get("2026-10-02")
	require.True(t, ok)
	assert.True(t, day.Deposits.Equal(decimal.NewFromInt(7)))
	assert.True(t, day.Withdrawals.Equal(decimal.NewFromInt(5)))

	data, err := json.Marshal(daily)
	require.NoError(t, err)
	assert.Equal(t,
		`{"2026-10-02":{"deposits":7,"withdrawals":5},"2026-10-01":{"deposits":10,"withdrawals":0}}`,
		string(data))
}

func TestAnalyticsJSONRoundTripPreservesOrder(t *testing.T) {
	in := []byte(`{"categoryTotals":{"b-deposit":1,"a-withdraw":2.5},"dailyTotals":{"2026-10-02":{"deposits":1,"withdrawals":2.5}}}`)

	var a Analytics
	require.NoError(t, json.Unmarshal(in, &a))
	assert.Equal(t, []string{"b-deposit", "a-withdraw"}, a.CategoryTotals.Keys())
	assert.Equal(t, 1, a.DailyTotals.Len())

	out, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, string(in), string(out))
}

func TestTransactionTypeValid(t *testing.T) {
	assert.True(t, TransactionDeposit.Valid())
	assert.True(t, TransactionWithdraw.Valid())
	assert.False(t, TransactionType("transfer").Valid())
	assert.False(t, TransactionType("").Valid())
}

func TestCategoryKey(t *testing.T) {
	assert.Equal(t, "groceries-deposit", CategoryKey("groceries", TransactionDeposit))
}

func TestStampTimeNeverPrecedesInput(t *testing.T) {
	zone := time.FixedZone("CEST", 2*3600)
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"exact millisecond", time.Date(2026, 10, 1, 9, 0, 0, 5_000_000, zone), time.Date(2026, 10, 1, 7, 0, 0, 5_000_000, time.UTC)},
		{"sub-millisecond rounds up", time.Date(2026, 10, 1, 9, 0, 0, 5_000_001, zone), time.Date(2026, 10, 1, 7, 0, 0, 6_000_000, time.UTC)},
		{"just below next second", time.Date(2026, 10, 1, 9, 0, 0, 999_999_999, zone), time.Date(2026, 10, 1, 7, 0, 1, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StampTime(tt.in)
			assert.Equal(t, tt.want, got)
			assert.False(t, got.Before(tt.in))
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}
