package job

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ahmethakanbesel/currency-api/internal/apperror"
	domain "github.com/ahmethakanbesel/currency-api/internal/job"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, run *domain.Run) error {
	const query = `INSERT INTO ingestion_runs (job_type, status) VALUES (?, ?)`

	res, err := r.db.ExecContext(ctx, query, string(run.Type), string(run.Status))
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	run.ID, _ = res.LastInsertId()
	run.CreatedAt = time.Now().UTC()
	run.UpdatedAt = run.CreatedAt
	return nil
}

func (r *Repository) Update(ctx context.Context, run *domain.Run) error {
	const query = `UPDATE ingestion_runs SET status = ?, error = ?,
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, string(run.Status), run.Error, run.ID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	run.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*domain.Run, error) {
	const query = `SELECT id, job_type, status, error, created_at, updated_at
		FROM ingestion_runs WHERE id = ?`

	run := &domain.Run{}
	var jobType, status, createdStr, updatedStr string
	var dbErr sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &jobType, &status, &dbErr, &createdStr, &updatedStr,
	)
	if err == sql.ErrNoRows {
		return nil, apperror.New(apperror.NotFound, "run not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	run.Type = domain.Type(jobType)
	run.Status = domain.Status(status)
	if dbErr.Valid {
		run.Error = dbErr.String
	}
	run.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	run.UpdatedAt, _ = time.Parse(time.RFC3339, updatedStr)
	return run, nil
}

func (r *Repository) List(ctx context.Context, jobType string) ([]domain.Run, error) {
	query := `SELECT id, job_type, status, error, created_at, updated_at
		FROM ingestion_runs WHERE 1=1`

	var args []any
	if jobType != "" {
		query += " AND job_type = ?"
		args = append(args, jobType)
	}
	query += " ORDER BY id DESC LIMIT 100"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []domain.Run
	for rows.Next() {
		var run domain.Run
		var typ, status, createdStr, updatedStr string
		var dbErr sql.NullString

		if err := rows.Scan(&run.ID, &typ, &status, &dbErr, &createdStr, &updatedStr); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		run.Type = domain.Type(typ)
		run.Status = domain.Status(status)
		if dbErr.Valid {
			run.Error = dbErr.String
		}
		run.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
		run.UpdatedAt, _ = time.Parse(time.RFC3339, updatedStr)
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (r *Repository) ClaimPending(ctx context.Context) (*domain.Run, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("claim pending: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM ingestion_runs WHERE status = 'pending' ORDER BY id ASC LIMIT 1`,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim pending: select: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE ingestion_runs SET status = 'running', updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now') WHERE id = ?`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("claim pending: update: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("claim pending: commit: %w", err)
	}

	return r.Get(ctx, id)
}

func (r *Repository) RecoverStale(ctx context.Context) (int64, error) {
	const query = `UPDATE ingestion_runs SET status = 'pending', error = NULL,
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE status = 'running'`

	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("recover stale runs: %w", err)
	}

	return res.RowsAffected()
}
