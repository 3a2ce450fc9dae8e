// Package calendar provides pure date arithmetic at day granularity.
// All functions strip time-of-day and work in UTC, so two values on the
// same calendar day always compare equal regardless of their clocks.
package calendar

import "time"

// Normalize strips the time-of-day from t, yielding midnight UTC of its date
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar day
func SameDay(a, b time.Time) bool {
	return Normalize(a).Equal(Normalize(b))
}

// Before reports whether a's calendar day is strictly before b's
func Before(a, b time.Time) bool {
	return Normalize(a).Before(Normalize(b))
}

// After reports whether a's calendar day is strictly after b's
func After(a, b time.Time) bool {
	return Normalize(a).After(Normalize(b))
}

// LastDayOfMonth returns the final calendar day of the given month
func LastDayOfMonth(year int, month time.Month) time.Time {
	// Day zero of the next month normalizes to the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of days in the given month
func DaysInMonth(year int, month time.Month) int {
	return LastDayOfMonth(year, month).Day()
}

// ClampDayOfMonth caps day to the actual length of the month, so a rule
// written for the 31st lands on Feb 28/29 rather than spilling into March
func ClampDayOfMonth(year int, month time.Month, day int) int {
	if day < 1 {
		return 1
	}
	if last := DaysInMonth(year, month); day > last {
		return last
	}
	return day
}

// ClampDaysOfMonth clamps each day in the list to the month's length
func ClampDaysOfMonth(year int, month time.Month, days []int) []int {
	clamped := make([]int, 0, len(days))
	for _, d := range days {
		clamped = append(clamped, ClampDayOfMonth(year, month, d))
	}
	return clamped
}

// NthWeekdayOfMonth returns the n-th occurrence of weekday in the month for
// n in 1..5, or the last occurrence for n == -1. The boolean is false when
// that occurrence does not exist (a 5th Friday in a 4-Friday month); callers
// treat that as "skip this month".
func NthWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, n int) (time.Time, bool) {
	if n == -1 {
		last := LastDayOfMonth(year, month)
		offset := (int(last.Weekday()) - int(weekday) + 7) % 7
		return last.AddDate(0, 0, -offset), true
	}
	if n < 1 || n > 5 {
		return time.Time{}, false
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	day := 1 + offset + (n-1)*7
	if day > DaysInMonth(year, month) {
		return time.Time{}, false
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
}

// DateRange enumerates every calendar day from start to end inclusive.
// An empty slice is returned when start is after end.
func DateRange(start, end time.Time) []time.Time {
	first, last := Normalize(start), Normalize(end)
	if first.After(last) {
		return nil
	}
	days := make([]time.Time, 0, int(last.Sub(first).Hours()/24)+1)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
