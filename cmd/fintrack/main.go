package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	applog.SetDefault(applog.New(applog.DefaultConfig()))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	taxonomy, err := config.LoadTaxonomy(cfg.TaxonomyFile)
	if err != nil {
		slog.Error("Failed to load taxonomy", "error", err, "path", cfg.TaxonomyFile)
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

	srv, err := apphttp.NewServer(":"+cfg.Port, res.Store, res.Ledger, taxonomy)
	if err != nil {
		slog.Error("Failed to initialize server", "error", err)
		os.Exit(1)
	}

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting fintrack server", "port", cfg.Port, "backend", cfg.LedgerBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped gracefully")
}
