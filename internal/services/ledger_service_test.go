package services

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/ledger/csvstore"
)

func TestRecordTransactionWithoutEvents(t *testing.T) {
	store, err := csvstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	svc := NewLedgerService(store, nil)
	defer svc.Close()

	saved, err := svc.RecordTransaction(context.Background(), core.Transaction{
		Date:     core.NewDate(2026, 8, 3),
		Amount:   core.Money{Cents: -4250},
		Category: "Food",
	})
	if err != nil {
		t.Fatalf("RecordTransaction failed: %v", err)
	}
	if saved.ID != 1 {
		t.Errorf("id = %d, want 1", saved.ID)
	}

	txs, err := store.ReadTransactions(context.Background())
	if err != nil || len(txs) != 1 {
		t.Errorf("ledger = %v, err = %v", txs, err)
	}
}

func TestRecordTransactionRejectsInvalid(t *testing.T) {
	store, err := csvstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	svc := NewLedgerService(store, nil)
	defer svc.Close()

	_, err = svc.RecordTransaction(context.Background(), core.Transaction{
		Date:   core.NewDate(2026, 8, 3),
		Amount: core.Money{Cents: -100},
	})
	if !errors.Is(err, core.ErrEmptyCategory) {
		t.Errorf("error = %v, want ErrEmptyCategory", err)
	}
}
