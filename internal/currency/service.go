package currency

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ahmethakanbesel/currency-api/internal/apperror"
	"github.com/ahmethakanbesel/currency-api/internal/cache"
	"github.com/ahmethakanbesel/currency-api/internal/history"
	"github.com/ahmethakanbesel/currency-api/internal/provider"
	"github.com/ahmethakanbesel/currency-api/internal/snapshot"
)

// Service answers live spot-conversion queries. The rate map comes from the
// live cache the hourly job maintains; on a miss the provider is consulted
// directly (refilling the cache), and if that fails too the latest hourly
// snapshot is served as stale data.
type Service struct {
	repo         Repository
	snapshots    snapshot.Repository
	provider     provider.Client
	cache        cache.Cache
	baseCurrency string
	liveTTL      time.Duration
}

func NewService(repo Repository, snapshots snapshot.Repository, p provider.Client, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		snapshots:    snapshots,
		provider:     p,
		baseCurrency: "USD",
		liveTTL:      55 * time.Minute,
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

func WithLiveTTL(ttl time.Duration) Option {
	return func(s *Service) { s.liveTTL = ttl }
}

func (s *Service) ListActive(ctx context.Context) ([]Currency, error) {
	return s.repo.ListActive(ctx)
}

// GetRates returns the current rates from one base currency to every other
// active currency, derived from the base-relative live map via cross-rates.
func (s *Service) GetRates(ctx context.Context, from string) (*RatesResponse, error) {
	from = strings.ToUpper(from)
	if appErr := (GetRatesRequest{From: from}).Validate(); appErr != nil {
		return nil, appErr
	}

	cur, err := s.repo.Get(ctx, from)
	if err != nil {
		return nil, err
	}
	if cur == nil || !cur.Active {
		return nil, apperror.New(apperror.BadRequest, "unsupported or inactive base currency: "+from)
	}

	baseRates, err := s.liveRates(ctx)
	if err != nil {
		return nil, err
	}

	pivot, ok := baseRates[from]
	if !ok || pivot == 0 {
		return nil, apperror.New(apperror.NotFound, "no current rate available for "+from)
	}

	active, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]RateItem, 0, len(active))
	for _, c := range active {
		if c.Code == from {
			continue
		}
		v, ok := baseRates[c.Code]
		if !ok {
			continue
		}
		items = append(items, RateItem{To: c.Code, Rate: v / pivot})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].To < items[j].To })

	return &RatesResponse{From: from, Rates: items}, nil
}

// liveRates resolves the current base-relative rate map: cache, then
// provider, then latest hourly snapshot.
func (s *Service) liveRates(ctx context.Context) (snapshot.RateMap, error) {
	key := history.LiveRatesKey(s.baseCurrency)

	if s.cache != nil {
		rates, err := cache.GetTyped[snapshot.RateMap](ctx, s.cache, key)
		if err == nil {
			return rates, nil
		}
		if err != cache.ErrKeyNotFound {
			slog.Warn("live cache read failed", "key", key, "error", err)
		}
	}

	rates, err := s.provider.FetchLatest(ctx, s.baseCurrency)
	if err == nil {
		if s.cache != nil {
			if cacheErr := cache.SetTyped(ctx, s.cache, key, rates, s.liveTTL); cacheErr != nil {
				slog.Warn("live cache refill failed", "key", key, "error", cacheErr)
			}
		}
		return rates, nil
	}
	slog.Warn("provider fetch failed for spot rates, falling back to last snapshot", "error", err)

	latest, repoErr := s.snapshots.GetLatest(ctx, snapshot.FrequencyHourly, s.baseCurrency)
	if repoErr != nil {
		return nil, repoErr
	}
	if latest == nil {
		return nil, apperror.New(apperror.Unavailable, "no rate data available")
	}
	slog.Warn("serving stale spot rates", "effectiveAt", latest.EffectiveAt)
	return latest.Rates, nil
}
