package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/ledger"
)

// LedgerService records transactions in the store and notifies the
// event bus. Publishing is best effort: the append is durable before
// any event goes out, and a publish failure never fails the request.
type LedgerService struct {
	store  ledger.Store
	events *events.Client
}

func NewLedgerService(store ledger.Store, eventsClient *events.Client) *LedgerService {
	return &LedgerService{
		store:  store,
		events: eventsClient,
	}
}

// RecordTransaction appends a row and publishes a transaction event.
func (s *LedgerService) RecordTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	saved, err := s.store.AppendTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}

	if s.events == nil {
		return saved, nil
	}
	if err := s.events.PublishTransactionEvent(ctx, saved.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"id", saved.ID, "error", err)
		// Row is saved locally; the mirror will simply lag.
	}
	return saved, nil
}

// Close closes both the store and the events connection.
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("events: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
