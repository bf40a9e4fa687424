package currency_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ahmethakanbesel/currency-api/internal/apperror"
	"github.com/ahmethakanbesel/currency-api/internal/cache"
	"github.com/ahmethakanbesel/currency-api/internal/currency"
	"github.com/ahmethakanbesel/currency-api/internal/history"
	"github.com/ahmethakanbesel/currency-api/internal/platform/sqlite"
	currencyrepo "github.com/ahmethakanbesel/currency-api/internal/repository/currency"
	snapshotrepo "github.com/ahmethakanbesel/currency-api/internal/repository/snapshot"
	"github.com/ahmethakanbesel/currency-api/internal/snapshot"
)

type fakeProvider struct {
	rates snapshot.RateMap
	err   error
	calls int
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) FetchLatest(_ context.Context, _ string) (snapshot.RateMap, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.rates, nil
}

func setupRepos(t *testing.T) (*currencyrepo.Repository, *snapshotrepo.Repository) {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return currencyrepo.NewRepository(db.DB), snapshotrepo.NewRepository(db.DB)
}

func setupCache(t *testing.T) (cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisCache(client), mr
}

func TestGetRates_FromProvider(t *testing.T) {
	currencies, snapshots := setupRepos(t)
	p := &fakeProvider{rates: snapshot.RateMap{"USD": 1, "EUR": 0.8, "TRY": 32}}
	svc := currency.NewService(currencies, snapshots, p)

	got, err := svc.GetRates(context.Background(), "EUR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.From != "EUR" {
		t.Errorf("expected from EUR, got %s", got.From)
	}

	rates := make(map[string]float64, len(got.Rates))
	for _, item := range got.Rates {
		rates[item.To] = item.Rate
	}
	if _, ok := rates["EUR"]; ok {
		t.Error("expected base currency excluded from its own rate list")
	}
	if rates["TRY"] != 32/0.8 {
		t.Errorf("expected cross rate %f, got %f", 32/0.8, rates["TRY"])
	}
	if rates["USD"] != 1/0.8 {
		t.Errorf("expected cross rate %f, got %f", 1/0.8, rates["USD"])
	}
}

func TestGetRates_ServedFromLiveCache(t *testing.T) {
	currencies, snapshots := setupRepos(t)
	c, _ := setupCache(t)
	ctx := context.Background()

	cached := snapshot.RateMap{"USD": 1, "TRY": 30}
	if err := cache.SetTyped(ctx, c, history.LiveRatesKey("USD"), cached, time.Hour); err != nil {
		t.Fatal(err)
	}

	p := &fakeProvider{rates: snapshot.RateMap{"USD": 1, "TRY": 99}}
	svc := currency.NewService(currencies, snapshots, p, currency.WithCache(c))

	got, err := svc.GetRates(ctx, "USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.calls != 0 {
		t.Errorf("expected no provider call on cache hit, got %d", p.calls)
	}
	for _, item := range got.Rates {
		if item.To == "TRY" && item.Rate != 30 {
			t.Errorf("expected cached rate 30, got %f", item.Rate)
		}
	}
}

func TestGetRates_ProviderFillsCache(t *testing.T) {
	currencies, snapshots := setupRepos(t)
	c, _ := setupCache(t)
	ctx := context.Background()

	p := &fakeProvider{rates: snapshot.RateMap{"USD": 1, "TRY": 32}}
	svc := currency.NewService(currencies, snapshots, p, currency.WithCache(c))

	if _, err := svc.GetRates(ctx, "USD"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetRates(ctx, "USD"); err != nil {
		t.Fatal(err)
	}
	if p.calls != 1 {
		t.Errorf("expected the first call to fill the cache, got %d provider calls", p.calls)
	}
}

func TestGetRates_StaleSnapshotFallback(t *testing.T) {
	currencies, snapshots := setupRepos(t)
	ctx := context.Background()

	_, err := snapshots.Upsert(ctx, snapshot.Snapshot{
		Frequency:    snapshot.FrequencyHourly,
		EffectiveAt:  time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		BaseCurrency: "USD",
		Rates:        snapshot.RateMap{"USD": 1, "TRY": 31.5},
	})
	if err != nil {
		t.Fatal(err)
	}

	p := &fakeProvider{err: errors.New("provider down")}
	svc := currency.NewService(currencies, snapshots, p)

	got, err := svc.GetRates(ctx, "USD")
	if err != nil {
		t.Fatalf("expected stale snapshot fallback, got %v", err)
	}
	for _, item := range got.Rates {
		if item.To == "TRY" && item.Rate != 31.5 {
			t.Errorf("expected stale rate 31.5, got %f", item.Rate)
		}
	}
}

func TestGetRates_NoDataUnavailable(t *testing.T) {
	currencies, snapshots := setupRepos(t)
	p := &fakeProvider{err: errors.New("provider down")}
	svc := currency.NewService(currencies, snapshots, p)

	_, err := svc.GetRates(context.Background(), "USD")
	ae, ok := err.(*apperror.AppError)
	if !ok || ae.Code() != apperror.Unavailable {
		t.Fatalf("expected UNAVAILABLE, got %v", err)
	}
}

func TestGetRates_UnknownBase(t *testing.T) {
	currencies, snapshots := setupRepos(t)
	svc := currency.NewService(currencies, snapshots, &fakeProvider{rates: snapshot.RateMap{"USD": 1}})

	_, err := svc.GetRates(context.Background(), "ZZZ")
	ae, ok := err.(*apperror.AppError)
	if !ok || ae.Code() != apperror.BadRequest {
		t.Fatalf("expected BAD_REQUEST, got %v", err)
	}
}

func TestGetRates_LowercaseInput(t *testing.T) {
	currencies, snapshots := setupRepos(t)
	p := &fakeProvider{rates: snapshot.RateMap{"USD": 1, "TRY": 32}}
	svc := currency.NewService(currencies, snapshots, p)

	got, err := svc.GetRates(context.Background(), "usd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.From != "USD" {
		t.Errorf("expected normalized base USD, got %s", got.From)
	}
}
