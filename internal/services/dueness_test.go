package services

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestDailyChecker(t *testing.T) {
	checker := DailyChecker{}
	next := core.NewDate(2026, 8, 25)

	if !checker.IsDue(next, time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)) {
		t.Error("should be due on the charge date")
	}
	if !checker.IsDue(next, time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)) {
		t.Error("should be due after the charge date")
	}
	if checker.IsDue(next, time.Date(2026, 8, 24, 23, 59, 0, 0, time.UTC)) {
		t.Error("should not be due before the charge date")
	}

	if got := checker.PeriodToken(time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)); got != "2026-08-25" {
		t.Errorf("PeriodToken = %q", got)
	}
}

func TestWeeklyChecker(t *testing.T) {
	checker := WeeklyChecker{}
	next := core.NewDate(2026, 8, 24)

	if !checker.IsDue(next, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)) {
		t.Error("should be due on the charge date")
	}
	if checker.IsDue(next, time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)) {
		t.Error("should not be due the day before")
	}

	// 2026-08-24 is a Monday in ISO week 35.
	if got := checker.PeriodToken(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)); got != "2026-w35" {
		t.Errorf("PeriodToken = %q", got)
	}
}

func TestMonthlyChecker(t *testing.T) {
	checker := MonthlyChecker{}
	next := core.NewDate(2026, 9, 15)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "previous month", now: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), want: false},
		{name: "charge month, before the day", now: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), want: true},
		{name: "charge month, on the day", now: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), want: true},
		{name: "later month", now: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), want: true},
		{name: "next year earlier month", now: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), want: true},
		{name: "previous year", now: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(next, tt.now); got != tt.want {
				t.Errorf("IsDue(%s) = %v, want %v", tt.now.Format("2006-01-02"), got, tt.want)
			}
		})
	}

	if got := checker.PeriodToken(time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)); got != "2026-09" {
		t.Errorf("PeriodToken = %q", got)
	}
}

func TestYearlyChecker(t *testing.T) {
	checker := YearlyChecker{}
	next := core.NewDate(2026, 3, 31)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "earlier year", now: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), want: false},
		{name: "same year earlier month", now: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), want: false},
		{name: "same year same day", now: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), want: true},
		{name: "same year later month", now: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), want: true},
		{name: "later year", now: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(next, tt.now); got != tt.want {
				t.Errorf("IsDue(%s) = %v, want %v", tt.now.Format("2006-01-02"), got, tt.want)
			}
		})
	}

	// A charge day past the month's end clamps to the last day.
	if !checker.IsDue(core.NewDate(2025, 2, 28), time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)) {
		t.Error("should be due on the last day of February")
	}

	if got := checker.PeriodToken(time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)); got != "2026" {
		t.Errorf("PeriodToken = %q", got)
	}
}

func TestGetDuenessChecker(t *testing.T) {
	for _, c := range []core.Cadence{core.Daily, core.Weekly, core.Monthly, core.Yearly} {
		if _, err := GetDuenessChecker(c); err != nil {
			t.Errorf("GetDuenessChecker(%s) failed: %v", c, err)
		}
	}
	if _, err := GetDuenessChecker(core.Cadence("fortnightly")); err == nil {
		t.Error("unknown cadence should fail")
	}
}
