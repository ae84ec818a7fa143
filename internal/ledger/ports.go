// Package ledger defines the ports implemented by the storage backends.
package ledger

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

// ErrNotFound is returned when a row id does not exist in the store.
var ErrNotFound = errors.New("not found")

// Ports for outbound adapters.
type (
	// TransactionAppender appends one immutable row to the ledger and
	// returns it with its assigned id.
	TransactionAppender interface {
		AppendTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	}

	// TransactionReader reads ledger rows in append order, oldest first.
	TransactionReader interface {
		ReadTransactions(ctx context.Context) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	}

	SubscriptionStore interface {
		ListSubscriptions(ctx context.Context) ([]core.Subscription, error)
		AddSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error)
		UpdateSubscription(ctx context.Context, s core.Subscription) error
		DeleteSubscription(ctx context.Context, id int64) error
	}

	CardStore interface {
		ListCards(ctx context.Context) ([]core.Card, error)
		AddCard(ctx context.Context, c core.Card) (core.Card, error)
		UpdateCard(ctx context.Context, c core.Card) error
		DeleteCard(ctx context.Context, id int64) error
	}

	GoalStore interface {
		ListGoals(ctx context.Context) ([]core.Goal, error)
		AddGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		UpdateGoal(ctx context.Context, g core.Goal) error
		DeleteGoal(ctx context.Context, id int64) error
	}

	// BudgetStore upserts budgets keyed by category.
	BudgetStore interface {
		ListBudgets(ctx context.Context) ([]core.Budget, error)
		UpsertBudget(ctx context.Context, b core.Budget) error
	}

	// Store is the full backend surface the application wires up.
	Store interface {
		TransactionAppender
		TransactionReader
		SubscriptionStore
		CardStore
		GoalStore
		BudgetStore
		Close() error
	}
)
