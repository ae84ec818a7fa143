package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/config"
	"fintrack/internal/events"
	"fintrack/internal/ledger"
	"fintrack/internal/ledger/csvstore"
	"fintrack/internal/ledger/sqlite"
	applog "fintrack/internal/log"
	"fintrack/internal/mirror"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	applog.SetDefault(applog.New(applog.DefaultConfig()))

	slog.Info("Starting sync-worker")

	cfg := config.Load()
	if err := cfg.ValidateMirror(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	var (
		store ledger.Store
		err   error
	)
	switch cfg.LedgerBackend {
	case "sqlite":
		store, err = sqlite.Open(cfg.SQLiteDBPath)
	default:
		store, err = csvstore.Open(cfg.DataDir)
	}
	if err != nil {
		slog.Error("Failed to open ledger store", "error", err, "backend", cfg.LedgerBackend)
		os.Exit(1)
	}
	defer store.Close()

	sheets, err := mirror.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		slog.Error("Failed to initialize Sheets mirror", "error", err)
		os.Exit(1)
	}
	slog.Info("Sheets mirror initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		handler := func(evt *events.TransactionEvent) error {
			tx, err := store.GetTransaction(ctx, evt.ID)
			if err != nil {
				if errors.Is(err, ledger.ErrNotFound) {
					slog.Warn("Transaction vanished before mirroring, dropping event", "id", evt.ID)
					return nil
				}
				return err
			}

			ref, err := sheets.AppendTransaction(ctx, tx)
			if err != nil {
				return err
			}

			slog.Info("Mirrored transaction",
				"id", tx.ID, "amount_cents", tx.Amount.Cents, "sheets_ref", ref)
			return nil
		}

		if err := client.ConsumeTransactionEvents(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("Worker error", "error", err)
		os.Exit(1)
	}
	slog.Info("Worker stopped gracefully")
}
