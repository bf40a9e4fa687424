package savings

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ahmethakanbesel/currency-api/internal/apperror"
	"github.com/ahmethakanbesel/currency-api/internal/snapshot"
)

// RateSource answers historical rate lookups for valuations. The history
// service satisfies it.
type RateSource interface {
	GetRateForDate(ctx context.Context, date time.Time) (snapshot.RateMap, error)
	BaseCurrency() string
}

// Entitlements reports how many entries a user may keep. The default treats
// everyone as a free-tier user.
type Entitlements interface {
	MaxEntries(ctx context.Context, userID string) int
}

type staticEntitlements struct {
	max int
}

func (s staticEntitlements) MaxEntries(context.Context, string) int { return s.max }

type Service struct {
	repo         Repository
	rates        RateSource
	entitlements Entitlements
	now          func() time.Time
}

func NewService(repo Repository, rates RateSource, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		rates:        rates,
		entitlements: staticEntitlements{max: 1},
		now:          time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type Option func(*Service)

func WithEntitlements(e Entitlements) Option {
	return func(s *Service) { s.entitlements = e }
}

func WithMaxEntries(max int) Option {
	return func(s *Service) { s.entitlements = staticEntitlements{max: max} }
}

func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func (s *Service) Create(ctx context.Context, req CreateEntryRequest) (*Entry, error) {
	req.CurrencyCode = NormalizeCode(req.CurrencyCode)
	if appErr := req.Validate(); appErr != nil {
		return nil, appErr
	}

	count, err := s.repo.CountByUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if max := s.entitlements.MaxEntries(ctx, req.UserID); count >= max {
		return nil, apperror.New(apperror.Forbidden,
			fmt.Sprintf("entry limit reached (%d), upgrade to add more", max))
	}

	now := s.now().UTC()
	entry := Entry{
		ID:           uuid.NewString(),
		UserID:       req.UserID,
		CurrencyCode: req.CurrencyCode,
		Amount:       req.Amount,
		Date:         snapshot.FloorToDay(req.Date),
		Note:         req.Note,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return s.repo.Create(ctx, entry)
}

func (s *Service) Update(ctx context.Context, req UpdateEntryRequest) (*Entry, error) {
	req.CurrencyCode = NormalizeCode(req.CurrencyCode)
	if appErr := req.Validate(); appErr != nil {
		return nil, appErr
	}

	existing, err := s.repo.Get(ctx, req.ID, req.UserID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperror.New(apperror.NotFound, "savings entry not found")
	}

	existing.CurrencyCode = req.CurrencyCode
	existing.Amount = req.Amount
	existing.Date = snapshot.FloorToDay(req.Date)
	existing.Note = req.Note
	existing.UpdatedAt = s.now().UTC()
	return s.repo.Update(ctx, *existing)
}

func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if userID == "" {
		return apperror.New(apperror.Unauthorized, "missing user identity")
	}
	existing, err := s.repo.Get(ctx, id, userID)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperror.New(apperror.NotFound, "savings entry not found")
	}
	return s.repo.Delete(ctx, id, userID)
}

func (s *Service) List(ctx context.Context, userID string) ([]Entry, error) {
	if userID == "" {
		return nil, apperror.New(apperror.Unauthorized, "missing user identity")
	}
	return s.repo.ListByUser(ctx, userID)
}

// Valuation values every entry of a user in the base currency, both at the
// entry's acquisition date and at the latest known rates. Entries whose
// currency has no rate on the relevant date are skipped, not failed.
func (s *Service) Valuation(ctx context.Context, userID string) (*Valuation, error) {
	entries, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	current, err := s.rates.GetRateForDate(ctx, s.now().UTC())
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		items   []ValuationItem
		skipped int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, entry := range entries {
		g.Go(func() error {
			atEntry, err := s.rates.GetRateForDate(gctx, entry.Date)
			if err != nil {
				if ae, ok := err.(*apperror.AppError); ok && ae.Code() == apperror.NotFound {
					atEntry = nil
				} else {
					return err
				}
			}

			item, ok := valueEntry(entry, atEntry, current)
			mu.Lock()
			defer mu.Unlock()
			if !ok {
				skipped++
				slog.Warn("skipping entry without rate data",
					"entryId", entry.ID, "currency", entry.CurrencyCode)
				return nil
			}
			items = append(items, item)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool { return items[i].EntryID < items[j].EntryID })

	v := &Valuation{
		BaseCurrency: s.rates.BaseCurrency(),
		Items:        items,
		Skipped:      skipped,
	}
	for _, item := range items {
		v.TotalValueAtEntry += item.ValueAtEntry
		v.TotalCurrentValue += item.CurrentValue
	}
	return v, nil
}

// valueEntry converts one entry into base-currency values. Rates are
// base-relative, so an amount in a quoted currency divides by its rate.
func valueEntry(entry Entry, atEntry, current snapshot.RateMap) (ValuationItem, bool) {
	currentRate, ok := current[entry.CurrencyCode]
	if !ok || currentRate == 0 {
		return ValuationItem{}, false
	}
	entryRate, ok := atEntry[entry.CurrencyCode]
	if !ok || entryRate == 0 {
		return ValuationItem{}, false
	}
	return ValuationItem{
		EntryID:      entry.ID,
		CurrencyCode: entry.CurrencyCode,
		Amount:       entry.Amount,
		ValueAtEntry: entry.Amount / entryRate,
		CurrentValue: entry.Amount / currentRate,
	}, true
}
