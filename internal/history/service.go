package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmethakanbesel/currency-api/internal/apperror"
	"github.com/ahmethakanbesel/currency-api/internal/cache"
	"github.com/ahmethakanbesel/currency-api/internal/snapshot"
)

// Service answers historical rate queries. Raw snapshot ranges are fetched
// cache-first; decimated series are recomputed from the raw list on every
// request because decimation is cheap next to the store scan it avoids.
type Service struct {
	repo         snapshot.Repository
	cache        cache.Cache
	baseCurrency string
	sixMonthStep int
	now          func() time.Time
}

func NewService(repo snapshot.Repository, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		baseCurrency: "USD",
		sixMonthStep: 3,
		now:          time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type Option func(*Service)

func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithBaseCurrency(code string) Option {
	return func(s *Service) { s.baseCurrency = code }
}

// WithSixMonthStep sets the N-day decimation period for the 6m range.
func WithSixMonthStep(days int) Option {
	return func(s *Service) {
		if days >= 1 {
			s.sixMonthStep = days
		}
	}
}

func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// BaseCurrency returns the ingested base currency all stored rate maps are
// relative to.
func (s *Service) BaseCurrency() string { return s.baseCurrency }

type rangeSpec struct {
	frequency    snapshot.Frequency
	lookbackDays int
	decimate     func([]snapshot.Snapshot) []snapshot.Snapshot
}

func (s *Service) spec(r Range) (rangeSpec, bool) {
	identity := func(snaps []snapshot.Snapshot) []snapshot.Snapshot { return snaps }

	switch r {
	case Range1D:
		return rangeSpec{snapshot.FrequencyHourly, 1, identity}, true
	case Range1W:
		return rangeSpec{snapshot.FrequencyHourly, 7, func(snaps []snapshot.Snapshot) []snapshot.Snapshot {
			return lastInBucket(snaps, eightHourSlot)
		}}, true
	case Range1M:
		return rangeSpec{snapshot.FrequencyDaily, 30, identity}, true
	case Range6M:
		return rangeSpec{snapshot.FrequencyDaily, 182, func(snaps []snapshot.Snapshot) []snapshot.Snapshot {
			return lastInBucket(snaps, everyNDays(s.sixMonthStep))
		}}, true
	case Range1Y:
		return rangeSpec{snapshot.FrequencyDaily, 365, func(snaps []snapshot.Snapshot) []snapshot.Snapshot {
			return lastInBucket(snaps, everyNDays(7))
		}}, true
	case Range5Y:
		return rangeSpec{snapshot.FrequencyDaily, 1825, func(snaps []snapshot.Snapshot) []snapshot.Snapshot {
			return lastInBucket(snaps, calendarMonth)
		}}, true
	}
	return rangeSpec{}, false
}

// GetRawSeries returns the decimated series of full rate maps for a range
// token. The client computes cross-rates itself.
func (s *Service) GetRawSeries(ctx context.Context, r Range, baseCurrency string) ([]snapshot.Snapshot, error) {
	req := GetRawSeriesRequest{Range: r, BaseCurrency: baseCurrency}
	if appErr := req.Validate(); appErr != nil {
		return nil, appErr
	}

	spec, ok := s.spec(r)
	if !ok {
		return nil, apperror.New(apperror.BadRequest, "unknown range token")
	}

	raw, err := s.rawRange(ctx, spec.frequency, spec.lookbackDays, baseCurrency)
	if err != nil {
		return nil, err
	}

	return spec.decimate(raw), nil
}

// GetSeries returns the cross-rate series for a currency pair. Snapshots
// missing either currency, or with a zero rate for the source currency, are
// skipped rather than failing the whole series.
func (s *Service) GetSeries(ctx context.Context, r Range, from, to string) (*Series, error) {
	req := GetSeriesRequest{Range: r, From: from, To: to}
	if appErr := req.Validate(); appErr != nil {
		return nil, appErr
	}

	spec, ok := s.spec(r)
	if !ok {
		return nil, apperror.New(apperror.BadRequest, "unknown range token")
	}

	snaps, err := s.GetRawSeries(ctx, r, s.baseCurrency)
	if err != nil {
		return nil, err
	}

	points := make([]Point, 0, len(snaps))
	for _, snap := range snaps {
		rf, okf := snap.Rates[from]
		rt, okt := snap.Rates[to]
		if !okf || !okt || rf == 0 {
			continue
		}
		points = append(points, Point{Timestamp: snap.EffectiveAt, Rate: rt / rf})
	}

	return &Series{
		From:      from,
		To:        to,
		Range:     r,
		Frequency: spec.frequency,
		Points:    points,
	}, nil
}

// GetRateForDate returns the rate map effective on the given date: the most
// recent daily snapshot on or before it, or, when the date is today and no
// daily snapshot exists yet, the latest hourly snapshot of the day.
func (s *Service) GetRateForDate(ctx context.Context, date time.Time) (snapshot.RateMap, error) {
	day := snapshot.FloorToDay(date)

	snap, err := s.repo.GetLatestInWindow(ctx, snapshot.FrequencyDaily, time.Unix(0, 0).UTC(), day, s.baseCurrency)
	if err != nil {
		return nil, fmt.Errorf("daily snapshot for date: %w", err)
	}

	if snap == nil && day.Equal(snapshot.FloorToDay(s.now())) {
		snap, err = s.repo.GetLatestInWindow(ctx, snapshot.FrequencyHourly, day, day.Add(24*time.Hour-time.Second), s.baseCurrency)
		if err != nil {
			return nil, fmt.Errorf("hourly snapshot for date: %w", err)
		}
	}

	if snap == nil {
		return nil, apperror.New(apperror.NotFound, "no historical rate data found on or before "+day.Format(time.DateOnly))
	}

	return snap.Rates, nil
}

// rawRange fetches the undecimated snapshot list for a lookback window,
// consulting the cache first. An unavailable cache degrades to store-only
// reads; cache write failures are logged and ignored.
func (s *Service) rawRange(ctx context.Context, frequency snapshot.Frequency, lookbackDays int, baseCurrency string) ([]snapshot.Snapshot, error) {
	key := rawRangeKey(frequency, baseCurrency, lookbackDays)

	if s.cache != nil {
		cached, err := cache.GetTyped[[]snapshot.Snapshot](ctx, s.cache, key)
		if err == nil {
			slog.Debug("raw snapshot cache hit", "key", key, "count", len(cached))
			return cached, nil
		}
		if err != cache.ErrKeyNotFound {
			slog.Warn("raw snapshot cache read failed", "key", key, "error", err)
		}
	}

	end := s.now()
	start := end.AddDate(0, 0, -lookbackDays)

	rows, err := s.repo.GetRange(ctx, frequency, start, end, baseCurrency)
	if err != nil {
		return nil, fmt.Errorf("range snapshots: %w", err)
	}

	if s.cache != nil && len(rows) > 0 {
		ttl := time.Hour
		if frequency == snapshot.FrequencyDaily {
			ttl = 24 * time.Hour
		}
		if err := cache.SetTyped(ctx, s.cache, key, rows, ttl); err != nil {
			slog.Warn("raw snapshot cache write failed", "key", key, "error", err)
		}
	}

	return rows, nil
}
