package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	TransactionDeposit  TransactionType = "deposit"
	TransactionWithdraw TransactionType = "withdraw"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TransactionDeposit || t == TransactionWithdraw
}

// Transaction is a single financial event owned by one user.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string `json:"id"`

	// UserID is the owning user. Set from the authenticated caller,
	// never from client input.
	UserID string `json:"userId"`

	// Amount is a non-negative magnitude; Type carries the direction.
	Amount decimal.Decimal `json:"amount"`

	Description string          `json:"description"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`

	// Date is when the transaction happened, in UTC with millisecond precision.
	Date time.Time `json:"date"`
}

// StampTime converts t to the stored form: UTC at millisecond precision,
// rounded up so a server-assigned stamp never precedes the moment it was taken.
func StampTime(t time.Time) time.Time {
	t = t.UTC()
	if ms := t.Truncate(time.Millisecond); !ms.Equal(t) {
		return ms.Add(time.Millisecond)
	}
	return t
}
