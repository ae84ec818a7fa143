// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for subscription dueness
// checking. Each cadence has its own strategy that decides whether a
// charge falls due, plus a period token the processor uses to dedup
// posted charges through the ledger's note markers.
package services

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// DuenessChecker is the strategy interface for a subscription cadence.
type DuenessChecker interface {
	// IsDue reports whether a charge is due now, given the
	// subscription's next charge date.
	IsDue(next core.Date, now time.Time) bool

	// PeriodToken identifies the charge period containing now. A
	// subscription is charged at most once per token.
	PeriodToken(now time.Time) string
}

// DailyChecker charges once per calendar day from the charge date on.
type DailyChecker struct{}

func (DailyChecker) IsDue(next core.Date, now time.Time) bool {
	return !now.Before(next.Time)
}

func (DailyChecker) PeriodToken(now time.Time) string {
	return now.Format("2006-01-02")
}

// WeeklyChecker charges once per ISO week from the charge date on.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(next core.Date, now time.Time) bool {
	return !now.Before(next.Time)
}

func (WeeklyChecker) PeriodToken(now time.Time) string {
	year, week := now.ISOWeek()
	return fmt.Sprintf("%04d-w%02d", year, week)
}

// MonthlyChecker charges once per month once the charge month arrives.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(next core.Date, now time.Time) bool {
	if now.Year() != next.Year() {
		return now.Year() > next.Year()
	}
	return int(now.Month()) >= next.Month()
}

func (MonthlyChecker) PeriodToken(now time.Time) string {
	return now.Format("2006-01")
}

// YearlyChecker charges once per year once the charge month and day
// are reached.
type YearlyChecker struct{}

func (YearlyChecker) IsDue(next core.Date, now time.Time) bool {
	if now.Year() < next.Year() {
		return false
	}
	if now.Year() > next.Year() {
		return true
	}
	if int(now.Month()) != next.Month() {
		return int(now.Month()) > next.Month()
	}
	// Clamp the target day for short months (e.g. charge date Jan 31).
	lastDay := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	target := next.Day()
	if target > lastDay {
		target = lastDay
	}
	return now.Day() >= target
}

func (YearlyChecker) PeriodToken(now time.Time) string {
	return now.Format("2006")
}

// duenessStrategies maps cadences to their corresponding checkers.
var duenessStrategies = map[core.Cadence]DuenessChecker{
	core.Daily:   DailyChecker{},
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// GetDuenessChecker returns the checker for a cadence, or an error for
// an unknown cadence.
func GetDuenessChecker(cadence core.Cadence) (DuenessChecker, error) {
	checker, ok := duenessStrategies[cadence]
	if !ok {
		return nil, fmt.Errorf("unknown cadence: %s", cadence)
	}
	return checker, nil
}
