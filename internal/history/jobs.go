package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmethakanbesel/currency-api/internal/cache"
	"github.com/ahmethakanbesel/currency-api/internal/provider"
	"github.com/ahmethakanbesel/currency-api/internal/snapshot"
)

// ErrNoFallback is returned when the provider fetch fails and no previous
// snapshot exists to forward-fill from. The run aborts without mutating any
// state; the next scheduled invocation is expected to succeed.
var ErrNoFallback = errors.New("provider fetch failed and no previous snapshot exists")

// Jobs holds the two scheduled ingestion job bodies. Runs are idempotent:
// the snapshot upsert's last-write-wins conflict handling makes retried or
// concurrent invocations for the same bucket converge.
type Jobs struct {
	provider            provider.Client
	repo                snapshot.Repository
	cache               cache.Cache
	baseCurrency        string
	hourlyRetentionDays int
	dailyRetentionDays  int
	liveTTL             time.Duration
	now                 func() time.Time
}

func NewJobs(p provider.Client, repo snapshot.Repository, opts ...JobsOption) *Jobs {
	j := &Jobs{
		provider:            p,
		repo:                repo,
		baseCurrency:        "USD",
		hourlyRetentionDays: 30,
		dailyRetentionDays:  1825,
		liveTTL:             55 * time.Minute,
		now:                 time.Now,
	}
	for _, o := range opts {
		o(j)
	}
	return j
}

type JobsOption func(*Jobs)

func WithJobsCache(c cache.Cache) JobsOption {
	return func(j *Jobs) { j.cache = c }
}

func WithJobsBaseCurrency(code string) JobsOption {
	return func(j *Jobs) { j.baseCurrency = code }
}

func WithRetention(hourlyDays, dailyDays int) JobsOption {
	return func(j *Jobs) {
		j.hourlyRetentionDays = hourlyDays
		j.dailyRetentionDays = dailyDays
	}
}

// WithLiveTTL sets the live rate map TTL. It must stay shorter than the
// hourly run period so a stalled scheduler forces at least one cache miss.
func WithLiveTTL(ttl time.Duration) JobsOption {
	return func(j *Jobs) { j.liveTTL = ttl }
}

func WithJobsNow(now func() time.Time) JobsOption {
	return func(j *Jobs) { j.now = now }
}

type jobState int

const (
	stateFetchLive jobState = iota
	stateForwardFill
	stateSelectSourceHour
	stateFallbackLatest
	statePersist
	stateCacheRefresh
	stateRetain
	stateDone
	stateAborted
)

// RunHourly captures the current hour's rate snapshot:
// FetchLive -> {Persist | ForwardFill} -> CacheRefresh -> Retain -> Done,
// aborting only when the fetch fails and no prior snapshot exists.
func (j *Jobs) RunHourly(ctx context.Context) error {
	bucket := snapshot.FloorToHour(j.now())
	var rates snapshot.RateMap

	for state := stateFetchLive; ; {
		switch state {
		case stateFetchLive:
			fetched, err := j.provider.FetchLatest(ctx, j.baseCurrency)
			if err != nil {
				slog.Warn("hourly job: provider fetch failed, attempting forward-fill",
					"provider", j.provider.Name(), "error", err)
				state = stateForwardFill
				continue
			}
			rates = fetched
			state = statePersist

		case stateForwardFill:
			latest, err := j.repo.GetLatest(ctx, snapshot.FrequencyHourly, j.baseCurrency)
			if err != nil {
				return fmt.Errorf("hourly job: load latest snapshot: %w", err)
			}
			if latest == nil {
				state = stateAborted
				continue
			}
			// The bucket still advances to the current hour; only the
			// values are stale.
			rates = latest.Rates
			slog.Info("hourly job: forward-filled rates from last snapshot",
				"source", latest.EffectiveAt, "bucket", bucket)
			state = statePersist

		case statePersist:
			if _, err := j.repo.Upsert(ctx, snapshot.Snapshot{
				Frequency:    snapshot.FrequencyHourly,
				EffectiveAt:  bucket,
				BaseCurrency: j.baseCurrency,
				Rates:        rates,
			}); err != nil {
				return fmt.Errorf("hourly job: upsert snapshot: %w", err)
			}
			slog.Info("hourly job: upserted snapshot", "bucket", bucket)
			state = stateCacheRefresh

		case stateCacheRefresh:
			j.refreshLiveCache(ctx, rates)
			state = stateRetain

		case stateRetain:
			cutoff := j.now().AddDate(0, 0, -j.hourlyRetentionDays)
			n, err := j.repo.DeleteOlderThan(ctx, snapshot.FrequencyHourly, cutoff)
			if err != nil {
				return fmt.Errorf("hourly job: retention: %w", err)
			}
			if n > 0 {
				slog.Info("hourly job: deleted expired hourly snapshots", "count", n)
			}
			state = stateDone

		case stateDone:
			return nil

		case stateAborted:
			slog.Error("hourly job: aborting, no rates and nothing to forward-fill")
			return ErrNoFallback
		}
	}
}

// RunDaily decimates yesterday's hourly data to a single daily snapshot:
// SelectSourceHour -> {Persist | FallbackLatest -> {Persist | Aborted}} ->
// Retain -> Done. The daily value is a point sample of the day's last hourly
// reading, not an average.
func (j *Jobs) RunDaily(ctx context.Context) error {
	yesterday := snapshot.FloorToDay(j.now()).AddDate(0, 0, -1)
	yesterdayEnd := yesterday.Add(24*time.Hour - time.Second)
	var source *snapshot.Snapshot

	for state := stateSelectSourceHour; ; {
		switch state {
		case stateSelectSourceHour:
			found, err := j.repo.GetLatestInWindow(ctx, snapshot.FrequencyHourly, yesterday, yesterdayEnd, j.baseCurrency)
			if err != nil {
				return fmt.Errorf("daily job: select source hour: %w", err)
			}
			if found == nil {
				state = stateFallbackLatest
				continue
			}
			source = found
			state = statePersist

		case stateFallbackLatest:
			latest, err := j.repo.GetLatest(ctx, snapshot.FrequencyHourly, j.baseCurrency)
			if err != nil {
				return fmt.Errorf("daily job: load latest snapshot: %w", err)
			}
			if latest == nil {
				state = stateAborted
				continue
			}
			source = latest
			slog.Warn("daily job: no hourly data for yesterday, using latest available snapshot",
				"day", yesterday.Format(time.DateOnly), "source", latest.EffectiveAt)
			state = statePersist

		case statePersist:
			if _, err := j.repo.Upsert(ctx, snapshot.Snapshot{
				Frequency:    snapshot.FrequencyDaily,
				EffectiveAt:  yesterday,
				BaseCurrency: j.baseCurrency,
				Rates:        source.Rates,
			}); err != nil {
				return fmt.Errorf("daily job: upsert snapshot: %w", err)
			}
			slog.Info("daily job: upserted snapshot", "day", yesterday.Format(time.DateOnly))
			state = stateRetain

		case stateRetain:
			cutoff := j.now().AddDate(0, 0, -j.dailyRetentionDays)
			n, err := j.repo.DeleteOlderThan(ctx, snapshot.FrequencyDaily, cutoff)
			if err != nil {
				return fmt.Errorf("daily job: retention: %w", err)
			}
			if n > 0 {
				slog.Info("daily job: deleted expired daily snapshots", "count", n)
			}
			state = stateDone

		case stateDone:
			return nil

		case stateAborted:
			slog.Error("daily job: aborting, no hourly snapshot to decimate")
			return ErrNoFallback
		}
	}
}

// refreshLiveCache is best-effort: an unavailable cache never fails a run.
func (j *Jobs) refreshLiveCache(ctx context.Context, rates snapshot.RateMap) {
	if j.cache == nil {
		return
	}
	key := LiveRatesKey(j.baseCurrency)
	if err := cache.SetTyped(ctx, j.cache, key, rates, j.liveTTL); err != nil {
		slog.Warn("hourly job: live cache refresh failed", "key", key, "error", err)
		return
	}
	slog.Info("hourly job: refreshed live rate cache", "key", key, "ttl", j.liveTTL)
}
