// Package recurrence expands recurring transaction templates into concrete
// calendar occurrences inside a query window. Expansion never emits before
// the template's own date, after its end date, or outside the window, and
// every generation loop carries an explicit step budget so degenerate rules
// terminate with a truncated-but-valid result instead of spinning.
package recurrence

import (
	"sort"
	"time"

	"github.com/avelin/cashflow-service/internal/calendar"
	"github.com/avelin/cashflow-service/internal/models"
)

// DefaultMaxSteps bounds the number of candidate dates a single expansion
// will visit. Reaching the ceiling returns what was produced so far.
const DefaultMaxSteps = 1000

// Expand materializes every occurrence of a recurring transaction inside
// [rangeStart, rangeEnd], ordered ascending by date. Non-recurring
// transactions, rules with no reachable occurrence, and malformed rules
// all expand to an empty result.
func Expand(tx models.Transaction, rangeStart, rangeEnd time.Time) []models.Occurrence {
	return ExpandWithBudget(tx, rangeStart, rangeEnd, DefaultMaxSteps)
}

// ExpandWithBudget is Expand with the iteration ceiling as an explicit
// parameter, for callers that need a tighter or looser bound.
func ExpandWithBudget(tx models.Transaction, rangeStart, rangeEnd time.Time, maxSteps int) []models.Occurrence {
	if !tx.IsRecurring || tx.Rule == nil || maxSteps < 1 {
		return nil
	}

	w := window{
		start:  calendar.Normalize(rangeStart),
		end:    calendar.Normalize(rangeEnd),
		anchor: calendar.Normalize(tx.Date),
	}
	if w.anchor.After(w.end) {
		return nil
	}
	if tx.EndDate != nil {
		until := calendar.Normalize(*tx.EndDate)
		if until.Before(w.start) {
			return nil
		}
		w.until = &until
	}

	interval := tx.Rule.Interval
	if interval < 1 {
		interval = 1
	}

	switch tx.Rule.Frequency {
	case models.FrequencyDaily:
		return stepByDays(tx, w, interval, maxSteps)
	case models.FrequencyWeekly:
		return stepByDays(tx, w, interval*7, maxSteps)
	case models.FrequencyBiweekly:
		// Fixed two-week cadence; the rule's interval is ignored.
		return stepByDays(tx, w, 14, maxSteps)
	case models.FrequencyMonthly:
		return stepByMonths(tx, w, interval, maxSteps)
	case models.FrequencyYearly:
		return stepByYears(tx, w, interval, maxSteps)
	default:
		return nil
	}
}

// window is the effective expansion bounds for one transaction
type window struct {
	start  time.Time
	end    time.Time
	anchor time.Time
	until  *time.Time // inclusive end date from the template, if any
}

// contains reports whether a candidate date should be emitted
func (w window) contains(d time.Time) bool {
	if d.Before(w.anchor) || d.Before(w.start) || d.After(w.end) {
		return false
	}
	return w.until == nil || !d.After(*w.until)
}

// pastEnd reports whether generation can stop: the candidate is beyond
// both the query window and the template's own end date
func (w window) pastEnd(d time.Time) bool {
	if d.After(w.end) {
		return true
	}
	return w.until != nil && d.After(*w.until)
}

func occurrenceOf(tx models.Transaction, date time.Time) models.Occurrence {
	return models.Occurrence{
		SourceID:    tx.ID,
		AccountID:   tx.AccountID,
		Date:        date,
		Amount:      tx.Amount,
		Description: tx.Description,
		Category:    tx.Category,
	}
}

// stepByDays handles the daily, weekly and biweekly frequencies: a fixed
// day stride from the anchor.
func stepByDays(tx models.Transaction, w window, strideDays, maxSteps int) []models.Occurrence {
	var out []models.Occurrence
	cur := w.anchor
	for steps := 0; steps < maxSteps && !w.pastEnd(cur); steps++ {
		if w.contains(cur) {
			out = append(out, occurrenceOf(tx, cur))
		}
		cur = cur.AddDate(0, 0, strideDays)
	}
	return out
}

// stepByMonths visits every interval-th month from the anchor's month and
// emits the dates the rule's monthly sub-mode selects in each.
func stepByMonths(tx models.Transaction, w window, interval, maxSteps int) []models.Occurrence {
	mode := monthlyModeFor(tx.Rule, w.anchor)
	var out []models.Occurrence
	year, month := w.anchor.Year(), w.anchor.Month()
	for steps := 0; steps < maxSteps; steps++ {
		firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		if w.pastEnd(firstOfMonth) {
			break
		}
		for _, d := range mode.datesIn(year, month) {
			if w.contains(d) {
				out = append(out, occurrenceOf(tx, d))
			}
		}
		month += time.Month(interval)
		for month > time.December {
			month -= 12
			year++
		}
	}
	return out
}

// stepByYears reuses the anchor's month and day each interval-th year,
// substituting Feb 28 when the anchor is Feb 29 and the year is not a leap year.
func stepByYears(tx models.Transaction, w window, interval, maxSteps int) []models.Occurrence {
	var out []models.Occurrence
	month, day := w.anchor.Month(), w.anchor.Day()
	for steps, year := 0, w.anchor.Year(); steps < maxSteps; steps, year = steps+1, year+interval {
		d := calendar.ClampDayOfMonth(year, month, day)
		cur := time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
		if w.pastEnd(cur) {
			break
		}
		if w.contains(cur) {
			out = append(out, occurrenceOf(tx, cur))
		}
	}
	return out
}

// monthlyMode is the normalized form of a monthly rule's sub-mode. The
// stored RecurrenceRule keeps the three variants as optional fields; this
// sum type makes exactly one of them active during expansion.
type monthlyMode interface {
	// datesIn returns the selected dates within a month, ascending
	datesIn(year int, month time.Month) []time.Time
}

type lastDayMode struct{}

func (lastDayMode) datesIn(year int, month time.Month) []time.Time {
	return []time.Time{calendar.LastDayOfMonth(year, month)}
}

type nthWeekdayMode struct {
	weekday time.Weekday
	week    int // 1..4 or -1 for last
}

func (m nthWeekdayMode) datesIn(year int, month time.Month) []time.Time {
	d, ok := calendar.NthWeekdayOfMonth(year, month, m.weekday, m.week)
	if !ok {
		// The nth weekday does not exist this month; skip it.
		return nil
	}
	return []time.Time{d}
}

type daysOfMonthMode struct {
	days []int
}

func (m daysOfMonthMode) datesIn(year int, month time.Month) []time.Time {
	dates := make([]time.Time, 0, len(m.days))
	var prev time.Time
	for _, day := range calendar.ClampDaysOfMonth(year, month, m.days) {
		d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		// Clamping can collapse distinct rule days (30 and 31 both land on
		// Feb 28); emit each calendar date once.
		if !d.Equal(prev) {
			dates = append(dates, d)
			prev = d
		}
	}
	return dates
}

// monthlyModeFor normalizes the stored rule into a single active sub-mode.
// Precedence when several fields are set: last-day-of-month, then
// nth-weekday, then days-of-month. A monthly rule with no sub-mode at all
// falls back to the anchor's day of month.
func monthlyModeFor(rule *models.RecurrenceRule, anchor time.Time) monthlyMode {
	switch {
	case rule.LastDayOfMonth:
		return lastDayMode{}
	case rule.Weekday != nil && rule.WeekOfMonth != nil:
		return nthWeekdayMode{
			weekday: time.Weekday(*rule.Weekday),
			week:    *rule.WeekOfMonth,
		}
	case len(rule.DaysOfMonth) > 0:
		days := make([]int, len(rule.DaysOfMonth))
		copy(days, rule.DaysOfMonth)
		sort.Ints(days)
		return daysOfMonthMode{days: days}
	default:
		return daysOfMonthMode{days: []int{anchor.Day()}}
	}
}
