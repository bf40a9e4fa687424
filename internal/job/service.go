package job

import (
	"context"
	"log/slog"
)

type Service struct {
	repo   Repository
	notify func()
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SetNotify registers a callback used to wake the worker after a run is
// queued.
func (s *Service) SetNotify(fn func()) {
	s.notify = fn
}

// Trigger queues a run of the given job type and wakes the worker. The run
// executes asynchronously; callers poll Get for the outcome.
func (s *Service) Trigger(ctx context.Context, req TriggerRequest) (*Run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	run := &Run{Type: req.Type, Status: StatusPending}
	if err := s.repo.Create(ctx, run); err != nil {
		return nil, err
	}

	slog.Info("queued ingestion run", "run", run.ID, "type", run.Type)
	if s.notify != nil {
		s.notify()
	}
	return run, nil
}

func (s *Service) RecoverStaleRuns(ctx context.Context) error {
	n, err := s.repo.RecoverStale(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("re-queued interrupted ingestion runs", "count", n)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, req GetRunRequest) (*Run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, req.ID)
}

func (s *Service) List(ctx context.Context, jobType string) ([]Run, error) {
	return s.repo.List(ctx, jobType)
}
