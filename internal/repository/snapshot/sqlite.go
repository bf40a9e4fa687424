package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/ahmethakanbesel/currency-api/internal/snapshot"
)

const timeFormat = "2006-01-02T15:04:05Z"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Upsert(ctx context.Context, s domain.Snapshot) (*domain.Snapshot, error) {
	ratesJSON, err := json.Marshal(s.Rates)
	if err != nil {
		return nil, fmt.Errorf("marshal rates: %w", err)
	}

	const query = `INSERT INTO rate_snapshots (frequency, effective_at, base_currency, rates)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (frequency, effective_at, base_currency) DO UPDATE SET rates = excluded.rates`

	_, err = r.db.ExecContext(ctx, query,
		string(s.Frequency),
		s.EffectiveAt.UTC().Format(timeFormat),
		s.BaseCurrency,
		string(ratesJSON),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert snapshot: %w", err)
	}

	return r.get(ctx, s.Frequency, s.EffectiveAt, s.BaseCurrency)
}

func (r *Repository) get(ctx context.Context, frequency domain.Frequency, effectiveAt time.Time, baseCurrency string) (*domain.Snapshot, error) {
	const query = `SELECT id, frequency, effective_at, base_currency, rates, created_at
		FROM rate_snapshots
		WHERE frequency = ? AND effective_at = ? AND base_currency = ?`

	row := r.db.QueryRowContext(ctx, query,
		string(frequency), effectiveAt.UTC().Format(timeFormat), baseCurrency)

	s, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return s, nil
}

func (r *Repository) GetRange(ctx context.Context, frequency domain.Frequency, start, end time.Time, baseCurrency string) ([]domain.Snapshot, error) {
	const query = `SELECT id, frequency, effective_at, base_currency, rates, created_at
		FROM rate_snapshots
		WHERE frequency = ? AND base_currency = ? AND effective_at >= ? AND effective_at <= ?
		ORDER BY effective_at ASC`

	rows, err := r.db.QueryContext(ctx, query,
		string(frequency), baseCurrency,
		start.UTC().Format(timeFormat), end.UTC().Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("range snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshots []domain.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, *s)
	}

	return snapshots, rows.Err()
}

func (r *Repository) GetLatest(ctx context.Context, frequency domain.Frequency, baseCurrency string) (*domain.Snapshot, error) {
	const query = `SELECT id, frequency, effective_at, base_currency, rates, created_at
		FROM rate_snapshots
		WHERE frequency = ? AND base_currency = ?
		ORDER BY effective_at DESC LIMIT 1`

	row := r.db.QueryRowContext(ctx, query, string(frequency), baseCurrency)

	s, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return s, nil
}

func (r *Repository) GetLatestInWindow(ctx context.Context, frequency domain.Frequency, start, end time.Time, baseCurrency string) (*domain.Snapshot, error) {
	const query = `SELECT id, frequency, effective_at, base_currency, rates, created_at
		FROM rate_snapshots
		WHERE frequency = ? AND base_currency = ? AND effective_at >= ? AND effective_at <= ?
		ORDER BY effective_at DESC LIMIT 1`

	row := r.db.QueryRowContext(ctx, query,
		string(frequency), baseCurrency,
		start.UTC().Format(timeFormat), end.UTC().Format(timeFormat),
	)

	s, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot in window: %w", err)
	}
	return s, nil
}

func (r *Repository) DeleteOlderThan(ctx context.Context, frequency domain.Frequency, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM rate_snapshots WHERE frequency = ? AND effective_at < ?`

	res, err := r.db.ExecContext(ctx, query, string(frequency), cutoff.UTC().Format(timeFormat))
	if err != nil {
		return 0, fmt.Errorf("delete snapshots: %w", err)
	}

	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*domain.Snapshot, error) {
	s := &domain.Snapshot{}
	var frequency, effectiveStr, ratesJSON, createdStr string

	if err := row.Scan(&s.ID, &frequency, &effectiveStr, &s.BaseCurrency, &ratesJSON, &createdStr); err != nil {
		return nil, err
	}

	s.Frequency = domain.Frequency(frequency)
	if err := json.Unmarshal([]byte(ratesJSON), &s.Rates); err != nil {
		return nil, fmt.Errorf("unmarshal rates: %w", err)
	}
	s.EffectiveAt, _ = time.Parse(timeFormat, effectiveStr)
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	return s, nil
}
