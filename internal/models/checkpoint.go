package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceCheckpoint is a known-true balance for an account on a date.
// It anchors all projection math for that account: everything before the
// most recent checkpoint is considered already reflected in its amount.
type BalanceCheckpoint struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
