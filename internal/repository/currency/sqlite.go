package currency

import (
	"context"
	"database/sql"
	"fmt"

	domain "github.com/ahmethakanbesel/currency-api/internal/currency"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListActive(ctx context.Context) ([]domain.Currency, error) {
	const query = `SELECT code, name, symbol, active FROM currencies
		WHERE active = 1 ORDER BY code`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var currencies []domain.Currency
	for rows.Next() {
		var c domain.Currency
		if err := rows.Scan(&c.Code, &c.Name, &c.Symbol, &c.Active); err != nil {
			return nil, fmt.Errorf("scan currency: %w", err)
		}
		currencies = append(currencies, c)
	}

	return currencies, rows.Err()
}

func (r *Repository) Get(ctx context.Context, code string) (*domain.Currency, error) {
	const query = `SELECT code, name, symbol, active FROM currencies WHERE code = ?`

	c := &domain.Currency{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(&c.Code, &c.Name, &c.Symbol, &c.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get currency: %w", err)
	}
	return c, nil
}
