package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/ahmethakanbesel/currency-api/internal/platform/sqlite"
	domain "github.com/ahmethakanbesel/currency-api/internal/snapshot"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func hourly(at time.Time, try float64) domain.Snapshot {
	return domain.Snapshot{
		Frequency:    domain.FrequencyHourly,
		EffectiveAt:  at,
		BaseCurrency: "USD",
		Rates:        domain.RateMap{"USD": 1, "TRY": try},
	}
}

func TestUpsert_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	bucket := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	first, err := repo.Upsert(ctx, hourly(bucket, 30.0))
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second, err := repo.Upsert(ctx, hourly(bucket, 31.0))
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("expected same row, got ids %d and %d", first.ID, second.ID)
	}
	if second.Rates["TRY"] != 31.0 {
		t.Errorf("expected last write to win with 31.0, got %f", second.Rates["TRY"])
	}

	all, err := repo.GetRange(ctx, domain.FrequencyHourly,
		bucket.Add(-time.Hour), bucket.Add(time.Hour), "USD")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly 1 row after double upsert, got %d", len(all))
	}
}

func TestGetRange_AscendingInclusive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	buckets := []time.Time{
		time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	// Insert out of order.
	for _, i := range []int{2, 0, 1} {
		if _, err := repo.Upsert(ctx, hourly(buckets[i], 30+float64(i))); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.GetRange(ctx, domain.FrequencyHourly, buckets[0], buckets[2], "USD")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rows (inclusive bounds), got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i].EffectiveAt.After(got[i-1].EffectiveAt) {
			t.Errorf("expected ascending order at index %d", i)
		}
	}
	if got[0].Rates["TRY"] != 30 || got[2].Rates["TRY"] != 32 {
		t.Errorf("unexpected rates: %v %v", got[0].Rates, got[2].Rates)
	}
}

func TestGetRange_FrequencyIsolation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := repo.Upsert(ctx, hourly(at, 30)); err != nil {
		t.Fatal(err)
	}
	daily := hourly(at, 31)
	daily.Frequency = domain.FrequencyDaily
	if _, err := repo.Upsert(ctx, daily); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetRange(ctx, domain.FrequencyDaily, at, at, "USD")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Rates["TRY"] != 31 {
		t.Errorf("expected only the daily row, got %+v", got)
	}
}

func TestGetLatest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	latest, err := repo.GetLatest(ctx, domain.FrequencyHourly, "USD")
	if err != nil {
		t.Fatalf("latest on empty store: %v", err)
	}
	if latest != nil {
		t.Fatalf("expected nil on empty store, got %+v", latest)
	}

	for i, h := range []int{10, 12, 11} {
		at := time.Date(2024, 1, 1, h, 0, 0, 0, time.UTC)
		if _, err := repo.Upsert(ctx, hourly(at, 30+float64(i))); err != nil {
			t.Fatal(err)
		}
	}

	latest, err = repo.GetLatest(ctx, domain.FrequencyHourly, "USD")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest == nil || latest.EffectiveAt.Hour() != 12 {
		t.Fatalf("expected 12:00 snapshot, got %+v", latest)
	}
}

func TestGetLatestInWindow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	yesterday := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, h := range []int{8, 22, 23} {
		if _, err := repo.Upsert(ctx, hourly(yesterday.Add(time.Duration(h)*time.Hour), float64(h))); err != nil {
			t.Fatal(err)
		}
	}
	// A snapshot outside the window must not be selected.
	if _, err := repo.Upsert(ctx, hourly(yesterday.Add(25*time.Hour), 99)); err != nil {
		t.Fatal(err)
	}

	end := yesterday.Add(24*time.Hour - time.Second)
	got, err := repo.GetLatestInWindow(ctx, domain.FrequencyHourly, yesterday, end, "USD")
	if err != nil {
		t.Fatalf("latest in window: %v", err)
	}
	if got == nil || got.EffectiveAt.Hour() != 23 {
		t.Fatalf("expected 23:00 snapshot, got %+v", got)
	}

	none, err := repo.GetLatestInWindow(ctx, domain.FrequencyHourly,
		yesterday.AddDate(0, 0, -10), yesterday.AddDate(0, 0, -9), "USD")
	if err != nil {
		t.Fatal(err)
	}
	if none != nil {
		t.Fatalf("expected nil for empty window, got %+v", none)
	}
}

func TestDeleteOlderThan_Boundary(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	expired := now.AddDate(0, 0, -30).Add(-time.Second)
	kept := now.AddDate(0, 0, -29)

	if _, err := repo.Upsert(ctx, hourly(expired, 1)); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Upsert(ctx, hourly(kept, 2)); err != nil {
		t.Fatal(err)
	}

	n, err := repo.DeleteOlderThan(ctx, domain.FrequencyHourly, now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row deleted, got %d", n)
	}

	remaining, err := repo.GetRange(ctx, domain.FrequencyHourly, now.AddDate(0, 0, -31), now, "USD")
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 || !remaining[0].EffectiveAt.Equal(kept) {
		t.Fatalf("expected only the 29-day-old row to remain, got %+v", remaining)
	}
}

func TestDeleteOlderThan_DoesNotCrossFrequencies(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	daily := hourly(old, 1)
	daily.Frequency = domain.FrequencyDaily
	if _, err := repo.Upsert(ctx, daily); err != nil {
		t.Fatal(err)
	}

	n, err := repo.DeleteOlderThan(ctx, domain.FrequencyHourly, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected hourly retention to leave daily rows alone, deleted %d", n)
	}
}
