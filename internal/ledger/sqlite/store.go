// Package sqlite is the embedded-database ledger backend. It keeps the
// same append/read contract as the CSV store behind real transactions.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fintrack/internal/core"
	"fintrack/internal/ledger"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dbPath and applies
// pending migrations.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// AppendTransaction implements ledger.TransactionAppender.
func (s *Store) AppendTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (date, amount_cents, category, note) VALUES (?, ?, ?, ?)`,
		t.Date.String(), t.Amount.Cents, t.Category, t.Note)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("last insert id: %w", err)
	}
	t.ID = id

	slog.InfoContext(ctx, "Transaction appended",
		"id", t.ID,
		"date", t.Date.String(),
		"amount_cents", t.Amount.Cents,
		"category", t.Category)
	return t, nil
}

// ReadTransactions implements ledger.TransactionReader, oldest first.
func (s *Store) ReadTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, amount_cents, category, note FROM transactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, date, amount_cents, category, note FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, ledger.ErrNotFound)
	}
	return t, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (core.Transaction, error) {
	var (
		t       core.Transaction
		dateStr string
	)
	if err := row.Scan(&t.ID, &dateStr, &t.Amount.Cents, &t.Category, &t.Note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	date, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: parse date %q: %w", t.ID, dateStr, err)
	}
	t.Date = date
	return t, nil
}

// ListSubscriptions implements ledger.SubscriptionStore.
func (s *Store) ListSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, amount_cents, cadence, next_charge_date, category FROM subscriptions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select subscriptions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Subscription, 0)
	for rows.Next() {
		var (
			sub     core.Subscription
			cadence string
			next    string
		)
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Amount.Cents, &cadence, &next, &sub.Category); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		sub.Cadence = core.Cadence(cadence)
		date, err := core.ParseDate(next)
		if err != nil {
			return nil, fmt.Errorf("subscription %d: parse next_charge_date %q: %w", sub.ID, next, err)
		}
		sub.NextChargeDate = date
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return out, nil
}

func (s *Store) AddSubscription(ctx context.Context, sub core.Subscription) (core.Subscription, error) {
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (name, amount_cents, cadence, next_charge_date, category) VALUES (?, ?, ?, ?, ?)`,
		sub.Name, sub.Amount.Cents, string(sub.Cadence), sub.NextChargeDate.String(), sub.Category)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("insert subscription: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Subscription{}, fmt.Errorf("last insert id: %w", err)
	}
	sub.ID = id
	return sub, nil
}

func (s *Store) UpdateSubscription(ctx context.Context, sub core.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE subscriptions SET name = ?, amount_cents = ?, cadence = ?, next_charge_date = ?, category = ? WHERE id = ?`,
		sub.Name, sub.Amount.Cents, string(sub.Cadence), sub.NextChargeDate.String(), sub.Category, sub.ID)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return requireRow(res, "subscription", sub.ID)
}

func (s *Store) DeleteSubscription(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return requireRow(res, "subscription", id)
}

// ListCards implements ledger.CardStore.
func (s *Store) ListCards(ctx context.Context) ([]core.Card, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, limit_cents, balance_cents FROM cards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select cards: %w", err)
	}
	defer rows.Close()

	out := make([]core.Card, 0)
	for rows.Next() {
		var c core.Card
		if err := rows.Scan(&c.ID, &c.Name, &c.Limit.Cents, &c.Balance.Cents); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return out, nil
}

func (s *Store) AddCard(ctx context.Context, c core.Card) (core.Card, error) {
	if err := c.Validate(); err != nil {
		return core.Card{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO cards (name, limit_cents, balance_cents) VALUES (?, ?, ?)`,
		c.Name, c.Limit.Cents, c.Balance.Cents)
	if err != nil {
		return core.Card{}, fmt.Errorf("insert card: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Card{}, fmt.Errorf("last insert id: %w", err)
	}
	c.ID = id
	return c, nil
}

func (s *Store) UpdateCard(ctx context.Context, c core.Card) error {
	if err := c.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE cards SET name = ?, limit_cents = ?, balance_cents = ? WHERE id = ?`,
		c.Name, c.Limit.Cents, c.Balance.Cents, c.ID)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	return requireRow(res, "card", c.ID)
}

func (s *Store) DeleteCard(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	return requireRow(res, "card", id)
}

// ListGoals implements ledger.GoalStore.
func (s *Store) ListGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, target_amount_cents, target_date, current_saved_cents FROM goals ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select goals: %w", err)
	}
	defer rows.Close()

	out := make([]core.Goal, 0)
	for rows.Next() {
		var (
			g    core.Goal
			date string
		)
		if err := rows.Scan(&g.ID, &g.Name, &g.TargetAmount.Cents, &date, &g.CurrentSaved.Cents); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		target, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("goal %d: parse target_date %q: %w", g.ID, date, err)
		}
		g.TargetDate = target
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return out, nil
}

func (s *Store) AddGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (name, target_amount_cents, target_date, current_saved_cents) VALUES (?, ?, ?, ?)`,
		g.Name, g.TargetAmount.Cents, g.TargetDate.String(), g.CurrentSaved.Cents)
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Goal{}, fmt.Errorf("last insert id: %w", err)
	}
	g.ID = id
	return g, nil
}

func (s *Store) UpdateGoal(ctx context.Context, g core.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE goals SET name = ?, target_amount_cents = ?, target_date = ?, current_saved_cents = ? WHERE id = ?`,
		g.Name, g.TargetAmount.Cents, g.TargetDate.String(), g.CurrentSaved.Cents, g.ID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return requireRow(res, "goal", g.ID)
}

func (s *Store) DeleteGoal(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRow(res, "goal", id)
}

// ListBudgets implements ledger.BudgetStore.
func (s *Store) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, monthly_budget_cents FROM budgets ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("select budgets: %w", err)
	}
	defer rows.Close()

	out := make([]core.Budget, 0)
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.Category, &b.MonthlyBudget.Cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}

func (s *Store) UpsertBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (category, monthly_budget_cents) VALUES (?, ?)
		 ON CONFLICT(category) DO UPDATE SET monthly_budget_cents = excluded.monthly_budget_cents`,
		b.Category, b.MonthlyBudget.Cents)
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

func requireRow(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ledger.ErrNotFound)
	}
	return nil
}

var _ ledger.Store = (*Store)(nil)
