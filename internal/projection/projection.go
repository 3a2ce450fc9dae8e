// Package projection turns accounts, balance checkpoints and transactions
// into a day-by-day balance forecast. Project is a pure function of its
// input: no clock reads, no I/O, no shared state, so identical inputs
// (including Today) always produce identical output and results may be
// memoized by the caller.
package projection

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avelin/cashflow-service/internal/calendar"
	"github.com/avelin/cashflow-service/internal/models"
	"github.com/avelin/cashflow-service/internal/money"
	"github.com/avelin/cashflow-service/internal/recurrence"
)

// Input carries everything a projection run depends on. Today is explicit
// rather than read from the clock; the service layer passes the current
// date and callers wanting live semantics re-invoke each calendar day.
type Input struct {
	Accounts         []models.Account
	Checkpoints      []models.BalanceCheckpoint
	Transactions     []models.Transaction
	HorizonDays      int
	WarningThreshold decimal.Decimal
	Today            time.Time
}

// anchor is an account's zero point: the most recent checkpoint at or
// before today, or a zero balance dated today when none exists.
type anchor struct {
	date       time.Time
	balance    decimal.Decimal
	checkpoint bool
}

// Project computes the daily balance timeline from today through the
// horizon, plus deduplicated low-balance warnings. It never fails for
// well-formed inputs: malformed rules expand to nothing, events against
// unknown accounts are dropped, and accounts without checkpoints start
// from zero.
func Project(in Input) models.Result {
	today := calendar.Normalize(in.Today)
	horizonDays := in.HorizonDays
	if horizonDays < 0 {
		horizonDays = 0
	}
	horizonEnd := today.AddDate(0, 0, horizonDays)
	threshold := money.Round(in.WarningThreshold)

	anchors := resolveAnchors(in.Accounts, in.Checkpoints, today)

	// The replay window opens at the earliest anchor across all accounts,
	// so transactions after an old checkpoint are reconciled into today's
	// balance no matter which account they belong to.
	windowStart := today
	for _, a := range anchors {
		if a.date.Before(windowStart) {
			windowStart = a.date
		}
	}

	events := collectEvents(in, anchors, today, windowStart, horizonEnd)

	// Same-day ties: a checkpoint resets the balance before that day's
	// transactions apply. The sort is stable so equal events keep input
	// order and output stays deterministic.
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].Type == models.EventCheckpoint && events[j].Type != models.EventCheckpoint
	})

	balances := replayHistory(events, anchors, today)

	return walkForward(in.Accounts, events, balances, today, horizonEnd, threshold)
}

// resolveAnchors picks each account's latest checkpoint at or before today
func resolveAnchors(accounts []models.Account, checkpoints []models.BalanceCheckpoint, today time.Time) map[string]anchor {
	anchors := make(map[string]anchor, len(accounts))
	for _, acct := range accounts {
		anchors[acct.ID] = anchor{date: today, balance: decimal.Zero}
	}
	for _, cp := range checkpoints {
		cur, ok := anchors[cp.AccountID]
		if !ok {
			continue
		}
		d := calendar.Normalize(cp.Date)
		if d.After(today) {
			continue
		}
		if !cur.checkpoint || d.After(cur.date) {
			anchors[cp.AccountID] = anchor{date: d, balance: money.Round(cp.Amount), checkpoint: true}
		}
	}
	return anchors
}

// collectEvents builds the merged event set: future checkpoints as resets,
// one-time transactions and expanded recurring occurrences as deltas, all
// restricted to [windowStart, horizonEnd].
func collectEvents(in Input, anchors map[string]anchor, today, windowStart, horizonEnd time.Time) []models.Event {
	var events []models.Event

	for _, cp := range in.Checkpoints {
		if _, ok := anchors[cp.AccountID]; !ok {
			continue
		}
		d := calendar.Normalize(cp.Date)
		if d.After(today) && !d.After(horizonEnd) {
			events = append(events, models.Event{
				Type:        models.EventCheckpoint,
				Date:        d,
				AccountID:   cp.AccountID,
				Amount:      money.Round(cp.Amount),
				Description: cp.Notes,
			})
		}
	}

	for _, tx := range in.Transactions {
		if tx.IsRecurring {
			for _, occ := range recurrence.Expand(tx, windowStart, horizonEnd) {
				events = append(events, models.Event{
					Type:        models.EventRecurring,
					Date:        occ.Date,
					AccountID:   occ.AccountID,
					Amount:      money.Round(occ.Amount),
					Description: occ.Description,
				})
			}
			continue
		}
		d := calendar.Normalize(tx.Date)
		if !d.Before(windowStart) && !d.After(horizonEnd) {
			events = append(events, models.Event{
				Type:        models.EventTransaction,
				Date:        d,
				AccountID:   tx.AccountID,
				Amount:      money.Round(tx.Amount),
				Description: tx.Description,
			})
		}
	}

	return events
}

// replayHistory folds events at or before today over the anchor balances to
// establish each account's true balance as of today. Events dated before an
// account's anchor are already reflected in the checkpoint amount and are
// discarded, as are checkpoint events themselves (consumed during anchor
// resolution). Today's own events are applied here and again on the first
// walk day; that double application on the anchor day is the documented
// behavior of the forecast.
func replayHistory(events []models.Event, anchors map[string]anchor, today time.Time) map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal, len(anchors))
	for id, a := range anchors {
		balances[id] = a.balance
	}
	for _, ev := range events {
		if ev.Date.After(today) {
			break
		}
		if ev.Type == models.EventCheckpoint {
			continue
		}
		a, ok := anchors[ev.AccountID]
		if !ok || ev.Date.Before(a.date) {
			continue
		}
		balances[ev.AccountID] = money.Add(balances[ev.AccountID], ev.Amount)
	}
	return balances
}

// walkForward steps one calendar day at a time from today through the
// horizon, applying that day's events in sorted order, snapshotting every
// account and flagging balances strictly below the threshold.
func walkForward(accounts []models.Account, events []models.Event, balances map[string]decimal.Decimal, today, horizonEnd time.Time, threshold decimal.Decimal) models.Result {
	points := make([]models.DataPoint, 0, int(horizonEnd.Sub(today).Hours()/24)+1)
	var warnings []models.Warning
	warned := make(map[string]bool)

	idx := 0
	for idx < len(events) && events[idx].Date.Before(today) {
		idx++
	}

	for _, day := range calendar.DateRange(today, horizonEnd) {
		for idx < len(events) && calendar.SameDay(events[idx].Date, day) {
			ev := events[idx]
			idx++
			if _, ok := balances[ev.AccountID]; !ok {
				continue
			}
			if ev.Type == models.EventCheckpoint {
				balances[ev.AccountID] = ev.Amount
			} else {
				balances[ev.AccountID] = money.Add(balances[ev.AccountID], ev.Amount)
			}
		}

		snapshot := make(map[string]decimal.Decimal, len(accounts))
		totals := make([]decimal.Decimal, 0, len(accounts))
		for _, acct := range accounts {
			b := balances[acct.ID]
			snapshot[acct.ID] = b
			totals = append(totals, b)
		}
		points = append(points, models.DataPoint{
			Date:     day,
			Balances: snapshot,
			Total:    money.Sum(totals),
		})

		for _, acct := range accounts {
			b := balances[acct.ID]
			if money.Compare(b, threshold) >= 0 {
				continue
			}
			key := acct.ID + "|" + day.Format("2006-01-02")
			if warned[key] {
				continue
			}
			warned[key] = true
			warnings = append(warnings, models.Warning{
				Date:        day,
				AccountID:   acct.ID,
				AccountName: acct.Name,
				Balance:     b,
				Threshold:   threshold,
			})
		}
	}

	return models.Result{DataPoints: points, Warnings: warnings, Accounts: accounts}
}
