// Package csvstore persists the ledger as plain CSV files in a data
// directory, one file per table. Transactions are append-only; the
// other tables are rewritten in full on change.
package csvstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

const (
	transactionsFile  = "transactions.csv"
	subscriptionsFile = "subscriptions.csv"
	cardsFile         = "cards.csv"
	goalsFile         = "goals.csv"
	budgetsFile       = "budgets.csv"
)

var (
	transactionHeader  = []string{"id", "date", "amount", "category", "note"}
	subscriptionHeader = []string{"id", "name", "amount", "cadence", "next_charge_date", "category"}
	cardHeader         = []string{"id", "name", "limit", "balance"}
	goalHeader         = []string{"id", "name", "target_amount", "target_date", "current_saved"}
	budgetHeader       = []string{"category", "monthly_budget"}
)

// Store implements ledger.Store over CSV files. Access is guarded by a
// single mutex; a single writing process is assumed and no file
// locking is done beyond that.
type Store struct {
	mu  sync.Mutex
	dir string
}

// Open ensures the data directory exists and returns a store over it.
// Files are created lazily, each with its header, on first append.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// AppendTransaction implements ledger.TransactionAppender.
func (s *Store) AppendTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readRows(transactionsFile, len(transactionHeader))
	if err != nil {
		return core.Transaction{}, err
	}
	t.ID = nextID(rows)
	record := []string{
		strconv.FormatInt(t.ID, 10),
		t.Date.String(),
		t.Amount.String(),
		t.Category,
		t.Note,
	}
	if err := s.appendRow(transactionsFile, transactionHeader, record); err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction appended",
		"id", t.ID,
		"date", t.Date.String(),
		"amount_cents", t.Amount.Cents,
		"category", t.Category)
	return t, nil
}

// ReadTransactions implements ledger.TransactionReader. A missing file
// reads as an empty ledger, not an error.
func (s *Store) ReadTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readTransactionsLocked()
}

func (s *Store) readTransactionsLocked() ([]core.Transaction, error) {
	rows, err := s.readRows(transactionsFile, len(transactionHeader))
	if err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(rows))
	for i, r := range rows {
		t, err := decodeTransaction(r)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", transactionsFile, i+2, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txs, err := s.readTransactionsLocked()
	if err != nil {
		return core.Transaction{}, err
	}
	for _, t := range txs {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, ledger.ErrNotFound)
}

func decodeTransaction(r []string) (core.Transaction, error) {
	id, err := strconv.ParseInt(r[0], 10, 64)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse id %q: %w", r[0], err)
	}
	date, err := core.ParseDate(r[1])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", r[1], err)
	}
	amount, err := core.ParseAmount(r[2])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount %q: %w", r[2], err)
	}
	return core.Transaction{ID: id, Date: date, Amount: amount, Category: r[3], Note: r[4]}, nil
}

// ListSubscriptions implements ledger.SubscriptionStore.
func (s *Store) ListSubscriptions(_ context.Context) ([]core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.readRows(subscriptionsFile, len(subscriptionHeader))
	if err != nil {
		return nil, err
	}
	out := make([]core.Subscription, 0, len(rows))
	for i, r := range rows {
		sub, err := decodeSubscription(r)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", subscriptionsFile, i+2, err)
		}
		out = append(out, sub)
	}
	return out, nil
}

func (s *Store) AddSubscription(_ context.Context, sub core.Subscription) (core.Subscription, error) {
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.readRows(subscriptionsFile, len(subscriptionHeader))
	if err != nil {
		return core.Subscription{}, err
	}
	sub.ID = nextID(rows)
	if err := s.appendRow(subscriptionsFile, subscriptionHeader, encodeSubscription(sub)); err != nil {
		return core.Subscription{}, err
	}
	return sub, nil
}

func (s *Store) UpdateSubscription(_ context.Context, sub core.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewriteByID(subscriptionsFile, subscriptionHeader, sub.ID, encodeSubscription(sub))
}

func (s *Store) DeleteSubscription(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewriteByID(subscriptionsFile, subscriptionHeader, id, nil)
}

func decodeSubscription(r []string) (core.Subscription, error) {
	id, err := strconv.ParseInt(r[0], 10, 64)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("parse id %q: %w", r[0], err)
	}
	amount, err := core.ParseAmount(r[2])
	if err != nil {
		return core.Subscription{}, fmt.Errorf("parse amount %q: %w", r[2], err)
	}
	next, err := core.ParseDate(r[4])
	if err != nil {
		return core.Subscription{}, fmt.Errorf("parse next_charge_date %q: %w", r[4], err)
	}
	return core.Subscription{
		ID:             id,
		Name:           r[1],
		Amount:         amount,
		Cadence:        core.Cadence(r[3]),
		NextChargeDate: next,
		Category:       r[5],
	}, nil
}

func encodeSubscription(sub core.Subscription) []string {
	return []string{
		strconv.FormatInt(sub.ID, 10),
		sub.Name,
		sub.Amount.String(),
		string(sub.Cadence),
		sub.NextChargeDate.String(),
		sub.Category,
	}
}

// ListCards implements ledger.CardStore.
func (s *Store) ListCards(_ context.Context) ([]core.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.readRows(cardsFile, len(cardHeader))
	if err != nil {
		return nil, err
	}
	out := make([]core.Card, 0, len(rows))
	for i, r := range rows {
		c, err := decodeCard(r)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", cardsFile, i+2, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) AddCard(_ context.Context, c core.Card) (core.Card, error) {
	if err := c.Validate(); err != nil {
		return core.Card{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.readRows(cardsFile, len(cardHeader))
	if err != nil {
		return core.Card{}, err
	}
	c.ID = nextID(rows)
	if err := s.appendRow(cardsFile, cardHeader, encodeCard(c)); err != nil {
		return core.Card{}, err
	}
	return c, nil
}

func (s *Store) UpdateCard(_ context.Context, c core.Card) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewriteByID(cardsFile, cardHeader, c.ID, encodeCard(c))
}

func (s *Store) DeleteCard(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewriteByID(cardsFile, cardHeader, id, nil)
}

func decodeCard(r []string) (core.Card, error) {
	id, err := strconv.ParseInt(r[0], 10, 64)
	if err != nil {
		return core.Card{}, fmt.Errorf("parse id %q: %w", r[0], err)
	}
	limit, err := core.ParseAmount(r[2])
	if err != nil {
		return core.Card{}, fmt.Errorf("parse limit %q: %w", r[2], err)
	}
	balance, err := core.ParseAmount(r[3])
	if err != nil {
		return core.Card{}, fmt.Errorf("parse balance %q: %w", r[3], err)
	}
	return core.Card{ID: id, Name: r[1], Limit: limit, Balance: balance}, nil
}

func encodeCard(c core.Card) []string {
	return []string{
		strconv.FormatInt(c.ID, 10),
		c.Name,
		c.Limit.String(),
		c.Balance.String(),
	}
}

// ListGoals implements ledger.GoalStore.
func (s *Store) ListGoals(_ context.Context) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.readRows(goalsFile, len(goalHeader))
	if err != nil {
		return nil, err
	}
	out := make([]core.Goal, 0, len(rows))
	for i, r := range rows {
		g, err := decodeGoal(r)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", goalsFile, i+2, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *Store) AddGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.readRows(goalsFile, len(goalHeader))
	if err != nil {
		return core.Goal{}, err
	}
	g.ID = nextID(rows)
	if err := s.appendRow(goalsFile, goalHeader, encodeGoal(g)); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

func (s *Store) UpdateGoal(_ context.Context, g core.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewriteByID(goalsFile, goalHeader, g.ID, encodeGoal(g))
}

func (s *Store) DeleteGoal(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewriteByID(goalsFile, goalHeader, id, nil)
}

func decodeGoal(r []string) (core.Goal, error) {
	id, err := strconv.ParseInt(r[0], 10, 64)
	if err != nil {
		return core.Goal{}, fmt.Errorf("parse id %q: %w", r[0], err)
	}
	target, err := core.ParseAmount(r[2])
	if err != nil {
		return core.Goal{}, fmt.Errorf("parse target_amount %q: %w", r[2], err)
	}
	targetDate, err := core.ParseDate(r[3])
	if err != nil {
		return core.Goal{}, fmt.Errorf("parse target_date %q: %w", r[3], err)
	}
	saved, err := core.ParseAmount(r[4])
	if err != nil {
		return core.Goal{}, fmt.Errorf("parse current_saved %q: %w", r[4], err)
	}
	return core.Goal{ID: id, Name: r[1], TargetAmount: target, TargetDate: targetDate, CurrentSaved: saved}, nil
}

func encodeGoal(g core.Goal) []string {
	return []string{
		strconv.FormatInt(g.ID, 10),
		g.Name,
		g.TargetAmount.String(),
		g.TargetDate.String(),
		g.CurrentSaved.String(),
	}
}

// ListBudgets implements ledger.BudgetStore.
func (s *Store) ListBudgets(_ context.Context) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.readRows(budgetsFile, len(budgetHeader))
	if err != nil {
		return nil, err
	}
	out := make([]core.Budget, 0, len(rows))
	for i, r := range rows {
		limit, err := core.ParseAmount(r[1])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: parse monthly_budget %q: %w", budgetsFile, i+2, r[1], err)
		}
		out = append(out, core.Budget{Category: r[0], MonthlyBudget: limit})
	}
	return out, nil
}

// UpsertBudget replaces the row for the budget's category, or appends
// one if the category has no budget yet.
func (s *Store) UpsertBudget(_ context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.readRows(budgetsFile, len(budgetHeader))
	if err != nil {
		return err
	}
	record := []string{b.Category, b.MonthlyBudget.String()}
	replaced := false
	for i, r := range rows {
		if r[0] == b.Category {
			rows[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		rows = append(rows, record)
	}
	return s.writeAll(budgetsFile, budgetHeader, rows)
}

// readRows returns the data rows of a table, without the header. A
// missing file reads as an empty table.
func (s *Store) readRows(name string, fields int) ([][]string, error) {
	f, err := os.Open(s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = fields
	var rows [][]string
	first := true
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if first {
			// The first record is always the header; every write path
			// creates the file with one.
			first = false
			continue
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// appendRow writes one record at the end of the file, creating the file
// with its header when missing or empty.
func (s *Store) appendRow(name string, header, record []string) error {
	f, err := os.OpenFile(s.path(name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s for append: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}
	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write %s header: %w", name, err)
		}
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("write %s row: %w", name, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", name, err)
	}
	return nil
}

// writeAll rewrites a table through a temp file and rename so readers
// never observe a half-written file.
func (s *Store) writeAll(name string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(s.dir, name+".tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s header: %w", name, err)
	}
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			tmp.Close()
			return fmt.Errorf("write %s row: %w", name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// rewriteByID replaces the row whose first column equals id, or removes
// it when record is nil.
func (s *Store) rewriteByID(name string, header []string, id int64, record []string) error {
	rows, err := s.readRows(name, len(header))
	if err != nil {
		return err
	}
	want := strconv.FormatInt(id, 10)
	found := false
	out := rows[:0]
	for _, r := range rows {
		if r[0] == want {
			found = true
			if record != nil {
				out = append(out, record)
			}
			continue
		}
		out = append(out, r)
	}
	if !found {
		return fmt.Errorf("%s id %d: %w", name, id, ledger.ErrNotFound)
	}
	return s.writeAll(name, header, out)
}

func nextID(rows [][]string) int64 {
	var max int64
	for _, r := range rows {
		if len(r) == 0 {
			continue
		}
		if id, err := strconv.ParseInt(r[0], 10, 64); err == nil && id > max {
			max = id
		}
	}
	return max + 1
}

var _ ledger.Store = (*Store)(nil)
