package snapshot

import (
	"context"
	"time"
)

type Repository interface {
	// Upsert inserts the snapshot or, when a row for the same
	// (frequency, effective_at, base_currency) bucket already exists,
	// overwrites its rates. Last writer wins.
	Upsert(ctx context.Context, s Snapshot) (*Snapshot, error)

	// GetRange returns snapshots with start <= effective_at <= end,
	// ascending by effective_at.
	GetRange(ctx context.Context, frequency Frequency, start, end time.Time, baseCurrency string) ([]Snapshot, error)

	// GetLatest returns the most recent snapshot for the frequency, or nil.
	GetLatest(ctx context.Context, frequency Frequency, baseCurrency string) (*Snapshot, error)

	// GetLatestInWindow returns the most recent snapshot whose effective_at
	// falls within [start, end], or nil.
	GetLatestInWindow(ctx context.Context, frequency Frequency, start, end time.Time, baseCurrency string) (*Snapshot, error)

	// DeleteOlderThan removes snapshots with effective_at < cutoff and
	// returns the number of rows deleted.
	DeleteOlderThan(ctx context.Context, frequency Frequency, cutoff time.Time) (int64, error)
}
