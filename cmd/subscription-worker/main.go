package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	applog.SetDefault(applog.New(applog.DefaultConfig()))

	slog.Info("Starting subscription-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	res, err := backend.Open(cfg, slog.Default())
	if err != nil {
		slog.Error("Failed to initialize backend", "error", err, "backend", cfg.LedgerBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			slog.Error("Cleanup error", "error", err)
		}
	}()

	processor := services.NewSubscriptionProcessor(res.Store, res.Store, res.Ledger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// One pass at startup, then on every tick.
		if posted, err := processor.PostDueCharges(ctx, time.Now()); err != nil {
			slog.Error("Initial subscription pass failed", "error", err)
		} else {
			slog.Info("Initial subscription pass complete", "posted", posted)
		}

		ticker := time.NewTicker(cfg.SubscriptionInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if posted, err := processor.PostDueCharges(ctx, time.Now()); err != nil {
					slog.Error("Subscription pass failed", "error", err)
				} else if posted > 0 {
					slog.Info("Subscription pass complete", "posted", posted)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		slog.Error("Worker error", "error", err)
		os.Exit(1)
	}
	slog.Info("Worker stopped gracefully")
}
