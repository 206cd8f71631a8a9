package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the day format used by analytics keys and the from filter.
const DateLayout = "2006-01-02"

// TransactionType is the direction of a transaction.
type TransactionType string

const (
	Deposit  TransactionType = "deposit"
	Withdraw TransactionType = "withdraw"
)

// Transaction is a transaction as returned by the API.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Date        time.Time       `json:"date"`
}

// NewTransaction is the body of an add-transaction request.
type NewTransaction struct {
	Amount      decimal.Decimal
	Description string
	Type        TransactionType
	Category    string
	// Date defaults to the server's clock when nil.
	Date *time.Time
}

// MarshalJSON sends the amount as a JSON number, which the server requires.
func (n NewTransaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount      json.Number     `json:"amount"`
		Description string          `json:"description"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category"`
		Date        *time.Time      `json:"date,omitempty"`
	}{
		Amount:      json.Number(n.Amount.String()),
		Description: n.Description,
		Type:        n.Type,
		Category:    n.Category,
		Date:        n.Date,
	})
}

// CategoryTotal is the sum for one "<category>-<type>" key.
type CategoryTotal struct {
	Key   string
	Total decimal.Decimal
}

// DayTotal holds one UTC day's sums.
type DayTotal struct {
	Day         string          `json:"-"`
	Deposits    decimal.Decimal `json:"deposits"`
	Withdrawals decimal.Decimal `json:"withdrawals"`
}

// Analytics is the analytics response. Both lists keep the server's order.
type Analytics struct {
	CategoryTotals []CategoryTotal
	DailyTotals    []DayTotal
}

// Category returns the total for key, e.g. "groceries-withdraw".
func (a *Analytics) Category(key string) (decimal.Decimal, bool) {
	for _, c := range a.CategoryTotals {
		if c.Key == key {
			return c.Total, true
		}
	}
	return decimal.Zero, false
}

// UnmarshalJSON decodes the two totals objects without losing key order.
func (a *Analytics) UnmarshalJSON(data []byte) error {
	var raw struct {
		CategoryTotals json.RawMessage `json:"categoryTotals"`
		DailyTotals    json.RawMessage `json:"dailyTotals"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.CategoryTotals = []CategoryTotal{}
	a.DailyTotals = []DayTotal{}
	err := eachMember(raw.CategoryTotals, func(key string, value json.RawMessage) error {
		var total decimal.Decimal
		if err := json.Unmarshal(value, &total); err != nil {
			return fmt.Errorf("category %q: %w", key, err)
		}
		a.CategoryTotals = append(a.CategoryTotals, CategoryTotal{Key: key, Total: total})
		return nil
	})
	if err != nil {
		return err
	}
	return eachMember(raw.DailyTotals, func(key string, value json.RawMessage) error {
		day := DayTotal{Day: key}
		if err := json.Unmarshal(value, &day); err != nil {
			return fmt.Errorf("day %q: %w", key, err)
		}
		a.DailyTotals = append(a.DailyTotals, day)
		return nil
	})
}

// eachMember calls fn for every member of a JSON object, in document order.
// A missing or null object has no members.
func eachMember(data json.RawMessage, fn func(string, json.RawMessage) error) error {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("expected JSON object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return nil
}

// Balance returns deposits minus withdrawals over txs.
func Balance(txs []Transaction) decimal.Decimal {
	balance := decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case Deposit:
			balance = balance.Add(tx.Amount)
		case Withdraw:
			balance = balance.Sub(tx.Amount)
		}
	}
	return balance
}
