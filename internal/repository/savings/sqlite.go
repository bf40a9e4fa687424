package savings

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domain "github.com/ahmethakanbesel/currency-api/internal/savings"
)

const timeFormat = "2006-01-02T15:04:05Z"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, e domain.Entry) (*domain.Entry, error) {
	const query = `INSERT INTO savings_entries
		(id, user_id, currency_code, amount, purchase_date, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.UserID, e.CurrencyCode, e.Amount,
		e.Date.UTC().Format(timeFormat), e.Note,
		e.CreatedAt.UTC().Format(timeFormat), e.UpdatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("create savings entry: %w", err)
	}

	return r.Get(ctx, e.ID, e.UserID)
}

func (r *Repository) Update(ctx context.Context, e domain.Entry) (*domain.Entry, error) {
	const query = `UPDATE savings_entries
		SET currency_code = ?, amount = ?, purchase_date = ?, note = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`

	_, err := r.db.ExecContext(ctx, query,
		e.CurrencyCode, e.Amount, e.Date.UTC().Format(timeFormat), e.Note,
		e.UpdatedAt.UTC().Format(timeFormat),
		e.ID, e.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("update savings entry: %w", err)
	}

	return r.Get(ctx, e.ID, e.UserID)
}

func (r *Repository) Delete(ctx context.Context, id, userID string) error {
	const query = `DELETE FROM savings_entries WHERE id = ? AND user_id = ?`

	if _, err := r.db.ExecContext(ctx, query, id, userID); err != nil {
		return fmt.Errorf("delete savings entry: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id, userID string) (*domain.Entry, error) {
	const query = `SELECT id, user_id, currency_code, amount, purchase_date, note, created_at, updated_at
		FROM savings_entries WHERE id = ? AND user_id = ?`

	row := r.db.QueryRowContext(ctx, query, id, userID)

	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get savings entry: %w", err)
	}
	return e, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Entry, error) {
	const query = `SELECT id, user_id, currency_code, amount, purchase_date, note, created_at, updated_at
		FROM savings_entries WHERE user_id = ? ORDER BY purchase_date ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list savings entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan savings entry: %w", err)
		}
		entries = append(entries, *e)
	}

	return entries, rows.Err()
}

func (r *Repository) CountByUser(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM savings_entries WHERE user_id = ?`

	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count savings entries: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*domain.Entry, error) {
	e := &domain.Entry{}
	var dateStr, createdStr, updatedStr string

	if err := row.Scan(&e.ID, &e.UserID, &e.CurrencyCode, &e.Amount, &dateStr, &e.Note, &createdStr, &updatedStr); err != nil {
		return nil, err
	}

	e.Date, _ = time.Parse(timeFormat, dateStr)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdStr)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedStr)
	return e, nil
}
