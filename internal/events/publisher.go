// Package events announces domain changes to other systems.
// Publishing is best effort: a failed publish never fails the request that
// caused it.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/fintrack/internal/models"
)

// RoutingKeyTransactionCreated is the routing key for new transactions.
const RoutingKeyTransactionCreated = "transaction.created"

// Publisher announces domain events.
type Publisher interface {
	PublishTransactionCreated(ctx context.Context, tx *models.Transaction) error
	Close() error
}

// NopPublisher discards every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishTransactionCreated(context.Context, *models.Transaction) error {
	return nil
}

func (NopPublisher) Close() error { return nil }

// TransactionCreated is the message body for a newly recorded transaction.
// The description is left out; consumers fetch it if they need it.
type TransactionCreated struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"userId"`
	Type        models.TransactionType `json:"type"`
	Category    string                 `json:"category"`
	Amount      decimal.Decimal        `json:"amount"`
	Date        time.Time              `json:"date"`
	PublishedAt time.Time              `json:"publishedAt"`
}

// NewTransactionCreated builds the message for tx.
func NewTransactionCreated(tx *models.Transaction, now time.Time) *TransactionCreated {
	return &TransactionCreated{
		ID:          tx.ID,
		UserID:      tx.UserID,
		Type:        tx.Type,
		Category:    tx.Category,
		Amount:      tx.Amount,
		Date:        tx.Date,
		PublishedAt: now.UTC(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *TransactionCreated) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
