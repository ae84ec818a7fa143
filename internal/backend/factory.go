// Package backend wires a ledger store and optional event client from
// configuration.
package backend

import (
	"fmt"
	"log/slog"

	"fintrack/internal/config"
	"fintrack/internal/events"
	"fintrack/internal/ledger"
	"fintrack/internal/ledger/csvstore"
	"fintrack/internal/ledger/sqlite"
	"fintrack/internal/services"
)

// Result bundles the assembled storage stack. Cleanup closes the store
// and the event connection.
type Result struct {
	Store   ledger.Store
	Ledger  *services.LedgerService
	Cleanup func() error
}

// Open builds the configured ledger backend (csv by default) and, when
// an AMQP URL is configured, the event publisher. An unreachable broker
// degrades to local-only operation rather than failing startup.
func Open(cfg *config.Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		store ledger.Store
		err   error
	)
	switch cfg.LedgerBackend {
	case "sqlite":
		store, err = sqlite.Open(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		logger.Info("Initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
	case "csv":
		store, err = csvstore.Open(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("initialize csv backend: %w", err)
		}
		logger.Info("Initialized csv backend", "data_dir", cfg.DataDir)
	default:
		return nil, fmt.Errorf("unsupported ledger backend: %s", cfg.LedgerBackend)
	}

	var eventsClient *events.Client
	if cfg.AMQPURL != "" {
		eventsClient, err = events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
			eventsClient = nil
		} else {
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	svc := services.NewLedgerService(store, eventsClient)
	return &Result{
		Store:   store,
		Ledger:  svc,
		Cleanup: svc.Close,
	}, nil
}
