package job

import (
	"context"
	"testing"

	"github.com/ahmethakanbesel/currency-api/internal/apperror"
	domain "github.com/ahmethakanbesel/currency-api/internal/job"
	"github.com/ahmethakanbesel/currency-api/internal/platform/sqlite"
)

func setupRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db.DB)
}

func TestCreateAndGet(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	run := &domain.Run{Type: domain.TypeHourly, Status: domain.StatusPending}
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.ID == 0 {
		t.Fatal("expected assigned run id")
	}

	got, err := repo.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type != domain.TypeHourly || got.Status != domain.StatusPending {
		t.Errorf("unexpected run: %+v", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.Get(context.Background(), 999)
	ae, ok := err.(*apperror.AppError)
	if !ok || ae.Code() != apperror.NotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestClaimPending_OldestFirst(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	first := &domain.Run{Type: domain.TypeHourly, Status: domain.StatusPending}
	second := &domain.Run{Type: domain.TypeDaily, Status: domain.StatusPending}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, second); err != nil {
		t.Fatal(err)
	}

	claimed, err := repo.ClaimPending(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claimed == nil || claimed.ID != first.ID {
		t.Fatalf("expected oldest run claimed first, got %+v", claimed)
	}
	if claimed.Status != domain.StatusRunning {
		t.Errorf("expected claimed run marked running, got %s", claimed.Status)
	}
}

func TestClaimPending_EmptyQueue(t *testing.T) {
	repo := setupRepo(t)

	claimed, err := repo.ClaimPending(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claimed != nil {
		t.Fatalf("expected nil on empty queue, got %+v", claimed)
	}
}

func TestUpdate_RecordsFailure(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	run := &domain.Run{Type: domain.TypeDaily, Status: domain.StatusPending}
	if err := repo.Create(ctx, run); err != nil {
		t.Fatal(err)
	}

	run.Status = domain.StatusFailed
	run.Error = "no hourly data available"
	if err := repo.Update(ctx, run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.Get(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusFailed || got.Error != "no hourly data available" {
		t.Errorf("unexpected run after update: %+v", got)
	}
}

func TestRecoverStale(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	running := &domain.Run{Type: domain.TypeHourly, Status: domain.StatusRunning}
	completed := &domain.Run{Type: domain.TypeHourly, Status: domain.StatusCompleted}
	if err := repo.Create(ctx, running); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, completed); err != nil {
		t.Fatal(err)
	}

	n, err := repo.RecoverStale(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 recovered run, got %d", n)
	}

	got, err := repo.Get(ctx, running.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusPending {
		t.Errorf("expected running run re-queued as pending, got %s", got.Status)
	}
}

func TestList_FilterByType(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, &domain.Run{Type: domain.TypeHourly, Status: domain.StatusPending}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, &domain.Run{Type: domain.TypeDaily, Status: domain.StatusPending}); err != nil {
		t.Fatal(err)
	}

	runs, err := repo.List(ctx, "daily")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 || runs[0].Type != domain.TypeDaily {
		t.Fatalf("expected only daily runs, got %+v", runs)
	}
}
