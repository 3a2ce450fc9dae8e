package recurrence

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avelin/cashflow-service/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func recurring(anchor time.Time, rule *models.RecurrenceRule) models.Transaction {
	return models.Transaction{
		ID:          "tx-1",
		AccountID:   "acct-1",
		Description: "subscription",
		Amount:      decimal.NewFromInt(-10),
		Date:        anchor,
		IsRecurring: true,
		Rule:        rule,
	}
}

func dates(occs []models.Occurrence) []time.Time {
	out := make([]time.Time, len(occs))
	for i, o := range occs {
		out[i] = o.Date
	}
	return out
}

func assertDates(t *testing.T, got []models.Occurrence, want []time.Time) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences %v, want %d %v", len(got), dates(got), len(want), want)
	}
	for i := range want {
		if !got[i].Date.Equal(want[i]) {
			t.Errorf("occurrence[%d] = %v, want %v", i, got[i].Date, want[i])
		}
	}
}

func TestExpandGuards(t *testing.T) {
	rule := &models.RecurrenceRule{Frequency: models.FrequencyDaily}
	start, end := date(2024, time.January, 1), date(2024, time.January, 31)

	notRecurring := recurring(date(2024, time.January, 1), rule)
	notRecurring.IsRecurring = false
	if got := Expand(notRecurring, start, end); len(got) != 0 {
		t.Errorf("non-recurring transaction expanded to %v", dates(got))
	}

	noRule := recurring(date(2024, time.January, 1), nil)
	if got := Expand(noRule, start, end); len(got) != 0 {
		t.Errorf("nil rule expanded to %v", dates(got))
	}

	lateAnchor := recurring(date(2024, time.March, 1), rule)
	if got := Expand(lateAnchor, start, end); len(got) != 0 {
		t.Errorf("anchor after window expanded to %v", dates(got))
	}

	ended := recurring(date(2023, time.June, 1), rule)
	endDate := date(2023, time.December, 31)
	ended.EndDate = &endDate
	if got := Expand(ended, start, end); len(got) != 0 {
		t.Errorf("template ended before window expanded to %v", dates(got))
	}

	unknownFreq := recurring(date(2024, time.January, 1), &models.RecurrenceRule{Frequency: "hourly"})
	if got := Expand(unknownFreq, start, end); len(got) != 0 {
		t.Errorf("unknown frequency expanded to %v", dates(got))
	}
}

func TestExpandDaily(t *testing.T) {
	tx := recurring(date(2024, time.January, 1), &models.RecurrenceRule{Frequency: models.FrequencyDaily, Interval: 3})
	got := Expand(tx, date(2024, time.January, 5), date(2024, time.January, 14))
	assertDates(t, got, []time.Time{
		date(2024, time.January, 7),
		date(2024, time.January, 10),
		date(2024, time.January, 13),
	})
}

func TestExpandWeeklyIntervalSpacing(t *testing.T) {
	// Weekly with interval=2 anchored Monday 2024-01-01
	tx := recurring(date(2024, time.January, 1), &models.RecurrenceRule{Frequency: models.FrequencyWeekly, Interval: 2})
	got := Expand(tx, date(2024, time.January, 1), date(2024, time.February, 15))
	assertDates(t, got, []time.Time{
		date(2024, time.January, 1),
		date(2024, time.January, 15),
		date(2024, time.January, 29),
		date(2024, time.February, 12),
	})
}

func TestExpandBiweeklyIgnoresInterval(t *testing.T) {
	tx := recurring(date(2024, time.January, 1), &models.RecurrenceRule{Frequency: models.FrequencyBiweekly, Interval: 5})
	got := Expand(tx, date(2024, time.January, 1), date(2024, time.February, 15))
	assertDates(t, got, []time.Time{
		date(2024, time.January, 1),
		date(2024, time.January, 15),
		date(2024, time.January, 29),
		date(2024, time.February, 12),
	})
}

func TestExpandHonorsEndDate(t *testing.T) {
	tx := recurring(date(2024, time.January, 1), &models.RecurrenceRule{Frequency: models.FrequencyWeekly})
	endDate := date(2024, time.January, 15)
	tx.EndDate = &endDate
	got := Expand(tx, date(2024, time.January, 1), date(2024, time.February, 28))
	assertDates(t, got, []time.Time{
		date(2024, time.January, 1),
		date(2024, time.January, 8),
		date(2024, time.January, 15),
	})
}

func TestExpandNeverEmitsBeforeAnchor(t *testing.T) {
	tx := recurring(date(2024, time.January, 10), &models.RecurrenceRule{Frequency: models.FrequencyDaily})
	got := Expand(tx, date(2024, time.January, 1), date(2024, time.January, 12))
	assertDates(t, got, []time.Time{
		date(2024, time.January, 10),
		date(2024, time.January, 11),
		date(2024, time.January, 12),
	})
}

func TestExpandMonthlyClampsOverflow(t *testing.T) {
	// Anchored Jan 31 with daysOfMonth=[31]: February clamps to the 29th
	// (2024 is a leap year), April to the 30th.
	tx := recurring(date(2024, time.January, 31), &models.RecurrenceRule{
		Frequency:   models.FrequencyMonthly,
		DaysOfMonth: []int{31},
	})
	got := Expand(tx, date(2024, time.January, 1), date(2024, time.April, 30))
	assertDates(t, got, []time.Time{
		date(2024, time.January, 31),
		date(2024, time.February, 29),
		date(2024, time.March, 31),
		date(2024, time.April, 30),
	})
}

func TestExpandMonthlyMultipleDaysDeduped(t *testing.T) {
	tx := recurring(date(2024, time.January, 15), &models.RecurrenceRule{
		Frequency:   models.FrequencyMonthly,
		DaysOfMonth: []int{15, 30, 31},
	})
	got := Expand(tx, date(2024, time.February, 1), date(2024, time.February, 29))
	// 30 and 31 both clamp to Feb 29; only one occurrence may result.
	assertDates(t, got, []time.Time{
		date(2024, time.February, 15),
		date(2024, time.February, 29),
	})
}

func TestExpandMonthlyLastDay(t *testing.T) {
	tx := recurring(date(2024, time.January, 31), &models.RecurrenceRule{
		Frequency:      models.FrequencyMonthly,
		LastDayOfMonth: true,
	})
	got := Expand(tx, date(2024, time.January, 1), date(2024, time.March, 31))
	assertDates(t, got, []time.Time{
		date(2024, time.January, 31),
		date(2024, time.February, 29),
		date(2024, time.March, 31),
	})
}

func TestExpandMonthlyNthWeekday(t *testing.T) {
	weekday := int(time.Friday)
	week := 2
	tx := recurring(date(2024, time.January, 1), &models.RecurrenceRule{
		Frequency:   models.FrequencyMonthly,
		Weekday:     &weekday,
		WeekOfMonth: &week,
	})
	got := Expand(tx, date(2024, time.January, 1), date(2024, time.March, 31))
	assertDates(t, got, []time.Time{
		date(2024, time.January, 12),
		date(2024, time.February, 9),
		date(2024, time.March, 8),
	})
}

func TestExpandMonthlyFifthWeekdaySkipsShortMonths(t *testing.T) {
	// A "5th Friday" rule: only months with five Fridays produce a date.
	weekday := int(time.Friday)
	week := 5
	tx := recurring(date(2024, time.January, 1), &models.RecurrenceRule{
		Frequency:   models.FrequencyMonthly,
		Weekday:     &weekday,
		WeekOfMonth: &week,
	})
	got := Expand(tx, date(2024, time.January, 1), date(2024, time.April, 30))
	// Of Jan-Apr 2024 only March has five Fridays (1, 8, 15, 22, 29).
	assertDates(t, got, []time.Time{
		date(2024, time.March, 29),
	})
}

func TestExpandMonthlyLastWeekday(t *testing.T) {
	weekday := int(time.Monday)
	week := -1
	tx := recurring(date(2024, time.January, 1), &models.RecurrenceRule{
		Frequency:   models.FrequencyMonthly,
		Weekday:     &weekday,
		WeekOfMonth: &week,
	})
	got := Expand(tx, date(2024, time.January, 1), date(2024, time.February, 29))
	assertDates(t, got, []time.Time{
		date(2024, time.January, 29),
		date(2024, time.February, 26),
	})
}

func TestExpandMonthlySubModePrecedence(t *testing.T) {
	// When a stored rule carries several sub-modes, last-day wins over
	// nth-weekday, which wins over days-of-month.
	weekday := int(time.Friday)
	week := 1
	tx := recurring(date(2024, time.January, 1), &models.RecurrenceRule{
		Frequency:      models.FrequencyMonthly,
		LastDayOfMonth: true,
		Weekday:        &weekday,
		WeekOfMonth:    &week,
		DaysOfMonth:    []int{10},
	})
	got := Expand(tx, date(2024, time.January, 1), date(2024, time.January, 31))
	assertDates(t, got, []time.Time{date(2024, time.January, 31)})

	tx.Rule.LastDayOfMonth = false
	got = Expand(tx, date(2024, time.January, 1), date(2024, time.January, 31))
	assertDates(t, got, []time.Time{date(2024, time.January, 5)})

	tx.Rule.Weekday = nil
	got = Expand(tx, date(2024, time.January, 1), date(2024, time.January, 31))
	assertDates(t, got, []time.Time{date(2024, time.January, 10)})
}

func TestExpandMonthlyDefaultsToAnchorDay(t *testing.T) {
	tx := recurring(date(2024, time.January, 20), &models.RecurrenceRule{Frequency: models.FrequencyMonthly})
	got := Expand(tx, date(2024, time.January, 1), date(2024, time.March, 31))
	assertDates(t, got, []time.Time{
		date(2024, time.January, 20),
		date(2024, time.February, 20),
		date(2024, time.March, 20),
	})
}

func TestExpandMonthlyInterval(t *testing.T) {
	tx := recurring(date(2024, time.January, 15), &models.RecurrenceRule{
		Frequency:   models.FrequencyMonthly,
		Interval:    3,
		DaysOfMonth: []int{15},
	})
	got := Expand(tx, date(2024, time.January, 1), date(2024, time.December, 31))
	assertDates(t, got, []time.Time{
		date(2024, time.January, 15),
		date(2024, time.April, 15),
		date(2024, time.July, 15),
		date(2024, time.October, 15),
	})
}

func TestExpandYearly(t *testing.T) {
	tx := recurring(date(2022, time.June, 15), &models.RecurrenceRule{Frequency: models.FrequencyYearly})
	got := Expand(tx, date(2023, time.January, 1), date(2025, time.December, 31))
	assertDates(t, got, []time.Time{
		date(2023, time.June, 15),
		date(2024, time.June, 15),
		date(2025, time.June, 15),
	})
}

func TestExpandYearlyLeapDay(t *testing.T) {
	// Feb 29 anchor: non-leap target years substitute Feb 28.
	tx := recurring(date(2024, time.February, 29), &models.RecurrenceRule{Frequency: models.FrequencyYearly})
	got := Expand(tx, date(2024, time.January, 1), date(2028, time.December, 31))
	assertDates(t, got, []time.Time{
		date(2024, time.February, 29),
		date(2025, time.February, 28),
		date(2026, time.February, 28),
		date(2027, time.February, 28),
		date(2028, time.February, 29),
	})
}

func TestExpandStepBudgetTruncates(t *testing.T) {
	tx := recurring(date(2024, time.January, 1), &models.RecurrenceRule{Frequency: models.FrequencyDaily})
	got := ExpandWithBudget(tx, date(2024, time.January, 1), date(2030, time.December, 31), 10)
	if len(got) != 10 {
		t.Fatalf("budget of 10 produced %d occurrences", len(got))
	}
	// Truncated output is still valid and ordered.
	for i := 1; i < len(got); i++ {
		if !got[i-1].Date.Before(got[i].Date) {
			t.Errorf("occurrences out of order at %d: %v >= %v", i, got[i-1].Date, got[i].Date)
		}
	}
}

func TestExpandDefaultBudgetBoundsHugeWindows(t *testing.T) {
	tx := recurring(date(2000, time.January, 1), &models.RecurrenceRule{Frequency: models.FrequencyDaily})
	got := Expand(tx, date(2000, time.January, 1), date(2100, time.December, 31))
	if len(got) != DefaultMaxSteps {
		t.Fatalf("expected expansion capped at %d, got %d", DefaultMaxSteps, len(got))
	}
}

func TestExpandInheritsTemplateFields(t *testing.T) {
	tx := recurring(date(2024, time.January, 1), &models.RecurrenceRule{Frequency: models.FrequencyWeekly})
	tx.Category = "rent"
	got := Expand(tx, date(2024, time.January, 1), date(2024, time.January, 8))
	if len(got) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(got))
	}
	for _, occ := range got {
		if occ.SourceID != tx.ID || occ.AccountID != tx.AccountID {
			t.Errorf("occurrence lost identity fields: %+v", occ)
		}
		if !occ.Amount.Equal(tx.Amount) || occ.Description != tx.Description || occ.Category != tx.Category {
			t.Errorf("occurrence lost template fields: %+v", occ)
		}
	}
}
