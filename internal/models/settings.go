package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settings holds per-user projection preferences
type Settings struct {
	UserID           int64           `json:"user_id"`
	WarningThreshold decimal.Decimal `json:"warning_threshold"`
	HorizonDays      int             `json:"horizon_days"`
	NotifyEmail      bool            `json:"notify_email"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
