package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ahmethakanbesel/currency-api/internal/config"
	"github.com/ahmethakanbesel/currency-api/internal/history"
	"github.com/ahmethakanbesel/currency-api/internal/job"
	"github.com/ahmethakanbesel/currency-api/internal/platform/redis"
	"github.com/ahmethakanbesel/currency-api/internal/platform/sqlite"
	"github.com/ahmethakanbesel/currency-api/internal/provider"
	"github.com/ahmethakanbesel/currency-api/internal/provider/fixer"
	"github.com/ahmethakanbesel/currency-api/internal/provider/openexchange"
	jobrepo "github.com/ahmethakanbesel/currency-api/internal/repository/job"
	snapshotrepo "github.com/ahmethakanbesel/currency-api/internal/repository/snapshot"
)

// jobrunner executes one ingestion run synchronously and exits. It is meant
// to be invoked by an external scheduler (cron, systemd timer) with
// JOB_TYPE=hourly or JOB_TYPE=daily. Runs are recorded in the same ledger
// the API server uses, so both entry points share one history.
func main() {
	cfg := config.Load()

	jobType := job.Type(os.Getenv("JOB_TYPE"))
	if err := (job.TriggerRequest{Type: jobType}).Validate(); err != nil {
		slog.Error("invalid JOB_TYPE, expected hourly or daily", "got", string(jobType))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	cacheHandle := redis.Open(cfg.RedisAddr, cfg.RedisDB)

	ingestJobs := history.NewJobs(newProvider(cfg), snapshotrepo.NewRepository(db.DB),
		history.WithJobsCache(cacheHandle),
		history.WithJobsBaseCurrency(cfg.BaseCurrency),
		history.WithRetention(cfg.HourlyRetentionDays, cfg.DailyRetentionDays),
		history.WithLiveTTL(cfg.LiveTTL),
	)

	runs := jobrepo.NewRepository(db.DB)
	run := &job.Run{Type: jobType, Status: job.StatusRunning}
	if err := runs.Create(ctx, run); err != nil {
		slog.Error("failed to record run", "error", err)
		os.Exit(1)
	}

	slog.Info("executing ingestion run", "run", run.ID, "type", run.Type)

	runErr := ingestJobs.Process(ctx, run)
	if runErr != nil {
		run.Status = job.StatusFailed
		run.Error = runErr.Error()
	} else {
		run.Status = job.StatusCompleted
	}
	if err := runs.Update(ctx, run); err != nil {
		slog.Error("failed to update run", "run", run.ID, "error", err)
	}

	if runErr != nil {
		slog.Error("ingestion run failed", "run", run.ID, "type", run.Type, "error", runErr)
		os.Exit(1)
	}
	slog.Info("ingestion run completed", "run", run.ID, "type", run.Type)
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
