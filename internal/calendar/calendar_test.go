package calendar

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeStripsTime(t *testing.T) {
	in := time.Date(2024, time.March, 5, 23, 59, 58, 123, time.UTC)
	want := date(2024, time.March, 5)
	if got := Normalize(in); !got.Equal(want) {
		t.Errorf("Normalize(%v) = %v, want %v", in, got, want)
	}
}

func TestDayComparisons(t *testing.T) {
	morning := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2024, time.June, 1, 22, 30, 0, 0, time.UTC)
	nextDay := time.Date(2024, time.June, 2, 0, 1, 0, 0, time.UTC)

	if !SameDay(morning, evening) {
		t.Error("SameDay should ignore time-of-day")
	}
	if SameDay(morning, nextDay) {
		t.Error("SameDay across days should be false")
	}
	if !Before(evening, nextDay) {
		t.Error("Before should compare at day granularity")
	}
	if Before(morning, evening) {
		t.Error("Before within the same day should be false")
	}
	if !After(nextDay, evening) {
		t.Error("After should compare at day granularity")
	}
}

func TestLastDayOfMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.January, 31},
		{2024, time.February, 29}, // leap year
		{2023, time.February, 28},
		{2024, time.April, 30},
		{2024, time.December, 31},
		{2000, time.February, 29}, // divisible by 400
		{1900, time.February, 28}, // divisible by 100, not 400
	}
	for _, tt := range tests {
		got := LastDayOfMonth(tt.year, tt.month)
		if got.Day() != tt.want || got.Month() != tt.month || got.Year() != tt.year {
			t.Errorf("LastDayOfMonth(%d, %v) = %v, want day %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestClampDayOfMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		day   int
		want  int
	}{
		{2024, time.February, 31, 29},
		{2023, time.February, 31, 28},
		{2024, time.April, 31, 30},
		{2024, time.January, 31, 31},
		{2024, time.March, 15, 15},
		{2024, time.March, 0, 1},
	}
	for _, tt := range tests {
		if got := ClampDayOfMonth(tt.year, tt.month, tt.day); got != tt.want {
			t.Errorf("ClampDayOfMonth(%d, %v, %d) = %d, want %d", tt.year, tt.month, tt.day, got, tt.want)
		}
	}
}

func TestClampDaysOfMonth(t *testing.T) {
	got := ClampDaysOfMonth(2023, time.February, []int{15, 30, 31})
	want := []int{15, 28, 28}
	if len(got) != len(want) {
		t.Fatalf("ClampDaysOfMonth returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ClampDaysOfMonth[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestNthWeekdayOfMonth(t *testing.T) {
	tests := []struct {
		name    string
		year    int
		month   time.Month
		weekday time.Weekday
		n       int
		want    time.Time
		ok      bool
	}{
		{"first Monday Jan 2024", 2024, time.January, time.Monday, 1, date(2024, time.January, 1), true},
		{"second Friday Jan 2024", 2024, time.January, time.Friday, 2, date(2024, time.January, 12), true},
		{"fourth Wednesday Feb 2024", 2024, time.February, time.Wednesday, 4, date(2024, time.February, 28), true},
		{"last Friday Mar 2024", 2024, time.March, time.Friday, -1, date(2024, time.March, 29), true},
		{"last Thursday Feb 2024", 2024, time.February, time.Thursday, -1, date(2024, time.February, 29), true},
		{"fourth Thursday Nov 2024", 2024, time.November, time.Thursday, 4, date(2024, time.November, 28), true},
		{"fifth Friday Mar 2024", 2024, time.March, time.Friday, 5, date(2024, time.March, 29), true},
		{"fifth Friday Apr 2024 missing", 2024, time.April, time.Friday, 5, time.Time{}, false},
		{"n out of range high", 2024, time.January, time.Monday, 6, time.Time{}, false},
		{"n zero", 2024, time.January, time.Monday, 0, time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NthWeekdayOfMonth(tt.year, tt.month, tt.weekday, tt.n)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNthWeekdayStaysInMonth(t *testing.T) {
	// Every month has at least four of each weekday, so n=4 must always
	// exist and never spill into the next month.
	for _, wd := range []time.Weekday{time.Sunday, time.Wednesday, time.Saturday} {
		got, ok := NthWeekdayOfMonth(2023, time.February, wd, 4)
		if !ok {
			t.Fatalf("fourth %v of Feb 2023 should exist", wd)
		}
		if got.Month() != time.February {
			t.Errorf("fourth %v of Feb 2023 = %v, spilled out of month", wd, got)
		}
	}
}

func TestDateRange(t *testing.T) {
	got := DateRange(date(2024, time.February, 27), date(2024, time.March, 2))
	want := []time.Time{
		date(2024, time.February, 27),
		date(2024, time.February, 28),
		date(2024, time.February, 29),
		date(2024, time.March, 1),
		date(2024, time.March, 2),
	}
	if len(got) != len(want) {
		t.Fatalf("DateRange returned %d days, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("DateRange[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDateRangeSingleDayAndEmpty(t *testing.T) {
	single := DateRange(date(2024, time.May, 10), date(2024, time.May, 10))
	if len(single) != 1 || !single[0].Equal(date(2024, time.May, 10)) {
		t.Errorf("single-day range = %v", single)
	}
	if empty := DateRange(date(2024, time.May, 11), date(2024, time.May, 10)); len(empty) != 0 {
		t.Errorf("reversed range should be empty, got %v", empty)
	}
}
