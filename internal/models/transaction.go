package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is the base schedule of a recurrence rule
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
	FrequencyYearly   Frequency = "yearly"
)

// RecurrenceRule is the stored schedule configuration for a recurring
// transaction. For monthly rules at most one sub-mode is meaningful;
// when several are set, precedence is last-day-of-month, then
// weekday/week-of-month, then days-of-month.
type RecurrenceRule struct {
	Frequency      Frequency `json:"frequency"`
	Interval       int       `json:"interval,omitempty"`
	DaysOfMonth    []int     `json:"days_of_month,omitempty"`
	LastDayOfMonth bool      `json:"last_day_of_month,omitempty"`
	Weekday        *int      `json:"weekday,omitempty"`       // 0 = Sunday .. 6 = Saturday
	WeekOfMonth    *int      `json:"week_of_month,omitempty"` // 1..4, or -1 for last
}

// Transaction represents a single cash movement or a recurring template.
// Amount is signed: positive for inflows, negative for outflows.
type Transaction struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category,omitempty"`
	Date        time.Time       `json:"date"`
	IsRecurring bool            `json:"is_recurring"`
	Rule        *RecurrenceRule `json:"recurrence_rule,omitempty"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
