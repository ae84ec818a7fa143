package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndReadTransactions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saved, err := s.AppendTransaction(ctx, core.Transaction{
		Date:     core.NewDate(2026, 8, 3),
		Amount:   core.Money{Cents: -4250},
		Category: "Food",
		Note:     "groceries",
	})
	if err != nil {
		t.Fatalf("AppendTransaction failed: %v", err)
	}
	if saved.ID != 1 {
		t.Errorf("id = %d, want 1", saved.ID)
	}

	saved2, err := s.AppendTransaction(ctx, core.Transaction{
		Date:     core.NewDate(2026, 8, 1),
		Amount:   core.Money{Cents: 200000},
		Category: "Income",
	})
	if err != nil {
		t.Fatalf("AppendTransaction failed: %v", err)
	}
	if saved2.ID != 2 {
		t.Errorf("id = %d, want 2", saved2.ID)
	}

	txs, err := s.ReadTransactions(ctx)
	if err != nil {
		t.Fatalf("ReadTransactions failed: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d rows, want 2", len(txs))
	}
	if txs[0].ID != 1 || txs[0].Amount.Cents != -4250 || txs[0].Note != "groceries" {
		t.Errorf("first row = %+v", txs[0])
	}
	if txs[0].Date.String() != "2026-08-03" {
		t.Errorf("date round trip = %q", txs[0].Date.String())
	}
}

func TestReadTransactionsEmpty(t *testing.T) {
	s := newTestStore(t)

	txs, err := s.ReadTransactions(context.Background())
	if err != nil {
		t.Fatalf("empty read should not error: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("got %d rows, want 0", len(txs))
	}
}

func TestGetTransactionNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetTransaction(context.Background(), 7); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSubscriptionCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sub, err := s.AddSubscription(ctx, core.Subscription{
		Name:           "Streaming",
		Amount:         core.Money{Cents: 999},
		Cadence:        core.Monthly,
		NextChargeDate: core.NewDate(2026, 9, 1),
		Category:       "Entertainment",
	})
	if err != nil {
		t.Fatalf("AddSubscription failed: %v", err)
	}

	sub.Amount = core.Money{Cents: 1299}
	if err := s.UpdateSubscription(ctx, sub); err != nil {
		t.Fatalf("UpdateSubscription failed: %v", err)
	}

	subs, err := s.ListSubscriptions(ctx)
	if err != nil {
		t.Fatalf("ListSubscriptions failed: %v", err)
	}
	if len(subs) != 1 || subs[0].Amount.Cents != 1299 {
		t.Errorf("after update: %+v", subs)
	}

	if err := s.DeleteSubscription(ctx, sub.ID); err != nil {
		t.Fatalf("DeleteSubscription failed: %v", err)
	}
	if err := s.DeleteSubscription(ctx, sub.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestBudgetUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertBudget(ctx, core.Budget{Category: "Food", MonthlyBudget: core.Money{Cents: 30000}}); err != nil {
		t.Fatalf("UpsertBudget failed: %v", err)
	}
	if err := s.UpsertBudget(ctx, core.Budget{Category: "Food", MonthlyBudget: core.Money{Cents: 45000}}); err != nil {
		t.Fatalf("UpsertBudget failed: %v", err)
	}

	budgets, err := s.ListBudgets(ctx)
	if err != nil {
		t.Fatalf("ListBudgets failed: %v", err)
	}
	if len(budgets) != 1 || budgets[0].MonthlyBudget.Cents != 45000 {
		t.Errorf("budgets = %+v", budgets)
	}
}

func TestCardAndGoalRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	card, err := s.AddCard(ctx, core.Card{
		Name:    "Visa",
		Limit:   core.Money{Cents: 500000},
		Balance: core.Money{Cents: 120000},
	})
	if err != nil {
		t.Fatalf("AddCard failed: %v", err)
	}
	card.Balance = core.Money{Cents: 0}
	if err := s.UpdateCard(ctx, card); err != nil {
		t.Fatalf("UpdateCard failed: %v", err)
	}
	cards, err := s.ListCards(ctx)
	if err != nil || len(cards) != 1 || cards[0].Balance.Cents != 0 {
		t.Errorf("cards = %+v, err = %v", cards, err)
	}

	goal, err := s.AddGoal(ctx, core.Goal{
		Name:         "Emergency fund",
		TargetAmount: core.Money{Cents: 1000000},
		TargetDate:   core.NewDate(2027, 1, 1),
		CurrentSaved: core.Money{Cents: 250000},
	})
	if err != nil {
		t.Fatalf("AddGoal failed: %v", err)
	}
	goals, err := s.ListGoals(ctx)
	if err != nil || len(goals) != 1 || goals[0].Progress() != 0.25 {
		t.Errorf("goals = %+v, err = %v", goals, err)
	}
	if err := s.DeleteGoal(ctx, goal.ID); err != nil {
		t.Fatalf("DeleteGoal failed: %v", err)
	}
}
