package currency

import (
	"context"

	"github.com/ahmethakanbesel/currency-api/internal/apperror"
)

type Currency struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Active bool   `json:"active"`
}

type Repository interface {
	ListActive(ctx context.Context) ([]Currency, error)
	Get(ctx context.Context, code string) (*Currency, error)
}

type RateItem struct {
	To   string  `json:"to"`
	Rate float64 `json:"rate"`
}

type RatesResponse struct {
	From  string     `json:"from"`
	Rates []RateItem `json:"rates"`
}

type GetRatesRequest struct {
	From string
}

func (r GetRatesRequest) Validate() *apperror.AppError {
	if len(r.From) != 3 {
		return apperror.New(apperror.BadRequest, "from must be a 3-letter currency code")
	}
	return nil
}
