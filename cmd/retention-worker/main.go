package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nailtimes/salon-backend/internal/booking"
	"github.com/nailtimes/salon-backend/internal/config"
	"github.com/nailtimes/salon-backend/internal/db"
)

// The retention worker deletes appointments created longer ago than the
// configured retention window. Old records carry customer contact details,
// so they do not stay around past their usefulness.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "retention-worker")
	logger.Info("starting up")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	logger.Info("configured", "env", cfg.Env, "interval", cfg.WorkerInterval.String(), "window", cfg.RetentionWindow.String())

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer pgPool.Close()
	logger.Info("connected to postgres")

	repo := booking.NewPgRepository(pgPool)

	// Run once at startup, then on the interval.
	runOnce(rootCtx, repo, cfg.RetentionWindow, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info("shutdown signal received, stopping")
			return
		case <-ticker.C:
			runOnce(rootCtx, repo, cfg.RetentionWindow, logger)
		}
	}
}

func runOnce(ctx context.Context, repo booking.Repository, window time.Duration, logger *slog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	cutoff := start.Add(-window)

	deleted, err := repo.DeleteOlderThan(runCtx, cutoff)
	if err != nil {
		logger.Error("retention run failed", "error", err)
		return
	}
	logger.Info("retention run complete", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339), "took", time.Since(start).String())
}
