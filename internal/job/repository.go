package job

import "context"

type Repository interface {
	Create(ctx context.Context, r *Run) error
	Update(ctx context.Context, r *Run) error
	Get(ctx context.Context, id int64) (*Run, error)
	List(ctx context.Context, jobType string) ([]Run, error)
	// ClaimPending atomically marks the oldest pending run as running and
	// returns it, or nil when none is pending.
	ClaimPending(ctx context.Context) (*Run, error)
	// RecoverStale re-queues runs left in running state by a crashed process.
	RecoverStale(ctx context.Context) (int64, error)
}
