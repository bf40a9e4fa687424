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

	"github.com/ahmethakanbesel/currency-api/internal/config"
	"github.com/ahmethakanbesel/currency-api/internal/currency"
	"github.com/ahmethakanbesel/currency-api/internal/history"
	"github.com/ahmethakanbesel/currency-api/internal/job"
	"github.com/ahmethakanbesel/currency-api/internal/platform/redis"
	"github.com/ahmethakanbesel/currency-api/internal/platform/sqlite"
	"github.com/ahmethakanbesel/currency-api/internal/provider"
	"github.com/ahmethakanbesel/currency-api/internal/provider/fixer"
	"github.com/ahmethakanbesel/currency-api/internal/provider/openexchange"
	currencyrepo "github.com/ahmethakanbesel/currency-api/internal/repository/currency"
	jobrepo "github.com/ahmethakanbesel/currency-api/internal/repository/job"
	savingsrepo "github.com/ahmethakanbesel/currency-api/internal/repository/savings"
	snapshotrepo "github.com/ahmethakanbesel/currency-api/internal/repository/snapshot"
	"github.com/ahmethakanbesel/currency-api/internal/savings"
	"github.com/ahmethakanbesel/currency-api/internal/server"
)

func main() {
	cfg := config.Load()

	// Root context: cancelled on SIGINT/SIGTERM so in-flight ingestion runs
	// stop promptly during graceful shutdown.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Open database
	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	// Cache is optional; a nil handle means store-only reads.
	cacheHandle := redis.Open(cfg.RedisAddr, cfg.RedisDB)

	// Repositories
	snapshotRepo := snapshotrepo.NewRepository(db.DB)
	currencyRepo := currencyrepo.NewRepository(db.DB)
	savingsRepo := savingsrepo.NewRepository(db.DB)
	jobRepo := jobrepo.NewRepository(db.DB)

	rateProvider := newProvider(cfg)

	// Services
	historySvc := history.NewService(snapshotRepo,
		history.WithCache(cacheHandle),
		history.WithBaseCurrency(cfg.BaseCurrency),
		history.WithSixMonthStep(cfg.SixMonthStepDays),
	)
	currencySvc := currency.NewService(currencyRepo, snapshotRepo, rateProvider,
		currency.WithCache(cacheHandle),
		currency.WithBaseCurrency(cfg.BaseCurrency),
		currency.WithLiveTTL(cfg.LiveTTL),
	)
	savingsSvc := savings.NewService(savingsRepo, historySvc,
		savings.WithMaxEntries(cfg.MaxFreeEntries),
	)
	jobSvc := job.NewService(jobRepo)

	ingestJobs := history.NewJobs(rateProvider, snapshotRepo,
		history.WithJobsCache(cacheHandle),
		history.WithJobsBaseCurrency(cfg.BaseCurrency),
		history.WithRetention(cfg.HourlyRetentionDays, cfg.DailyRetentionDays),
		history.WithLiveTTL(cfg.LiveTTL),
	)

	// Worker: picks up queued ingestion runs in the background
	worker := job.NewWorker(jobRepo, ingestJobs)
	jobSvc.SetNotify(worker.Notify)
	workerDone := make(chan struct{})
	go func() {
		worker.Run(rootCtx)
		close(workerDone)
	}()

	// Re-queue interrupted runs (pending/running) so the worker picks them up.
	if err := jobSvc.RecoverStaleRuns(rootCtx); err != nil {
		slog.Error("failed to recover stale runs", "error", err)
	}
	worker.Notify()

	// HTTP server — rootCtx is used as BaseContext so every request context
	// inherits from it and is cancelled on shutdown.
	srv := server.New(rootCtx, cfg.Port, currencySvc, historySvc, savingsSvc, jobSvc, cfg.APISecretKey)

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("server started", "port", cfg.Port, "provider", rateProvider.Name())
	<-done

	// Cancel root context first so in-flight requests and ingestion runs
	// begin winding down immediately.
	rootCancel()

	// Wait for the worker to finish its current run before shutting down HTTP.
	<-workerDone

	// Then drain connections with a deadline.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	slog.Info("server stopped")
}

func newProvider(cfg config.Config) provider.Client {
	switch cfg.Provider {
	case "fixer":
		var opts []fixer.Option
		if cfg.FixerURL != "" {
			opts = append(opts, fixer.WithEndpoint(cfg.FixerURL))
		}
		return fixer.New(cfg.FixerKey, opts...)
	default:
		var opts []openexchange.Option
		if cfg.OpenExchangeURL != "" {
			opts = append(opts, openexchange.WithEndpoint(cfg.OpenExchangeURL))
		}
		return openexchange.New(cfg.OpenExchangeKey, opts...)
	}
}
