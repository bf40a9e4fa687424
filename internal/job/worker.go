package job

import (
	"context"
	"log/slog"
	"time"
)

// Processor executes a claimed ingestion run.
type Processor interface {
	Process(ctx context.Context, r *Run) error
}

// Worker runs a single goroutine that claims and executes pending runs.
// Width is fixed at one: ingestion runs for the same bucket are safe to
// retry but there is no reason to let them overlap in-process.
type Worker struct {
	repo         Repository
	processor    Processor
	notify       chan struct{}
	pollInterval time.Duration
}

func NewWorker(repo Repository, processor Processor) *Worker {
	return &Worker{
		repo:         repo,
		processor:    processor,
		notify:       make(chan struct{}, 1),
		pollInterval: 5 * time.Second,
	}
}

// Notify wakes the worker to check for pending runs. Non-blocking.
func (w *Worker) Notify() {
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		// Drain all pending runs before waiting.
		w.drain(ctx)

		select {
		case <-ctx.Done():
			return
		case <-w.notify:
		case <-ticker.C:
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		r, err := w.repo.ClaimPending(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return // shutting down
			}
			slog.Error("worker: claim pending run", "error", err)
			return
		}
		if r == nil {
			return // no more pending runs
		}

		slog.Info("worker: executing ingestion run", "run", r.ID, "type", r.Type)

		if err := w.processor.Process(ctx, r); err != nil {
			r.Status = StatusFailed
			r.Error = err.Error()
			slog.Error("worker: ingestion run failed", "run", r.ID, "type", r.Type, "error", err)
		} else {
			r.Status = StatusCompleted
			r.Error = ""
		}

		if err := w.repo.Update(ctx, r); err != nil {
			slog.Error("worker: update run", "run", r.ID, "error", err)
		}
	}
}
