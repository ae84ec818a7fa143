package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Daily   Cadence = "daily"
	Weekly  Cadence = "weekly"
	Monthly Cadence = "monthly"
	Yearly  Cadence = "yearly"
)

type (
	// Cadence is how often a subscription charges.
	Cadence string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is one ledger row. Amount is signed: income positive,
	// expenses negative.
	Transaction struct {
		ID       int64
		Date     Date
		Amount   Money
		Category string
		Note     string
	}

	// Subscription is a recurring charge template. Amount is stored
	// positive; posted charges are negated.
	Subscription struct {
		ID             int64
		Name           string
		Amount         Money
		Cadence        Cadence
		NextChargeDate Date
		Category       string
	}

	Card struct {
		ID      int64
		Name    string
		Limit   Money
		Balance Money
	}

	Goal struct {
		ID           int64
		Name         string
		TargetAmount Money
		TargetDate   Date
		CurrentSaved Money
	}

	// Budget is a per-category monthly spending limit, keyed by category.
	Budget struct {
		Category      string
		MonthlyBudget Money
	}
)

var (
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidCadence = errors.New("invalid cadence")
	ErrEmptyCategory  = errors.New("empty category")
	ErrEmptyName      = errors.New("empty name")
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String renders the date in YYYY-MM-DD form, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// In reports whether the date falls inside the given year and month.
func (d Date) In(year, month int) bool {
	return d.Year() == year && d.Month() == month
}

func (c Cadence) Validate() error {
	switch c {
	case Daily, Weekly, Monthly, Yearly:
		return nil
	default:
		return ErrInvalidCadence
	}
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Category) > 100 {
		return errors.New("category too long (max 100 characters)")
	}
	if len(t.Note) > 500 {
		return errors.New("note too long (max 500 characters)")
	}
	return nil
}

func (s Subscription) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if err := s.Cadence.Validate(); err != nil {
		return err
	}
	if err := s.NextChargeDate.Validate(); err != nil {
		return err
	}
	if s.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(s.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (c Card) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Limit.Cents < 0 || c.Balance.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Utilization returns balance/limit, or 0 when the card has no limit.
func (c Card) Utilization() float64 {
	if c.Limit.Cents <= 0 {
		return 0
	}
	return float64(c.Balance.Cents) / float64(c.Limit.Cents)
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if g.TargetAmount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if g.CurrentSaved.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Progress returns saved/target clamped to [0, 1].
func (g Goal) Progress() float64 {
	if g.TargetAmount.Cents <= 0 {
		return 0
	}
	p := float64(g.CurrentSaved.Cents) / float64(g.TargetAmount.Cents)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.MonthlyBudget.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// TotalUtilization returns the combined balance/limit ratio across cards,
// or 0 when no card has a limit.
func TotalUtilization(cards []Card) float64 {
	var balance, limit int64
	for _, c := range cards {
		balance += c.Balance.Cents
		limit += c.Limit.Cents
	}
	if limit <= 0 {
		return 0
	}
	return float64(balance) / float64(limit)
}
