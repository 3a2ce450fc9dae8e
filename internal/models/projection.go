package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Occurrence is one concrete calendar instance of a recurring transaction.
// It is ephemeral: produced during expansion, never persisted.
type Occurrence struct {
	SourceID    string          `json:"source_id"`
	AccountID   string          `json:"account_id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
}

// EventType discriminates projection events
type EventType string

const (
	EventCheckpoint  EventType = "checkpoint"
	EventTransaction EventType = "transaction"
	EventRecurring   EventType = "recurring"
)

// Event is a uniform view of a checkpoint or transaction occurrence on a
// specific date. Checkpoint events carry an absolute amount (a balance
// reset); transaction and recurring events carry a signed delta.
type Event struct {
	Type        EventType       `json:"type"`
	Date        time.Time       `json:"date"`
	AccountID   string          `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// DataPoint is one projected day: a balance per account plus their exact sum.
type DataPoint struct {
	Date     time.Time                  `json:"date"`
	Balances map[string]decimal.Decimal `json:"balances"`
	Total    decimal.Decimal            `json:"total"`
}

// Warning signals that an account dipped below the warning threshold on a day
type Warning struct {
	Date        time.Time       `json:"date"`
	AccountID   string          `json:"account_id"`
	AccountName string          `json:"account_name"`
	Balance     decimal.Decimal `json:"balance"`
	Threshold   decimal.Decimal `json:"threshold"`
}

// Result is the full output of a projection run
type Result struct {
	DataPoints []DataPoint `json:"data_points"`
	Warnings   []Warning   `json:"warnings"`
	Accounts   []Account   `json:"accounts"`
}
