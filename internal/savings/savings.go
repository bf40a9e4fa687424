package savings

import (
	"strings"
	"time"

	"github.com/ahmethakanbesel/currency-api/internal/apperror"
)

// Entry is a single savings position: an amount of one currency acquired on
// a given date, owned by one user.
type Entry struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	CurrencyCode string    `json:"currencyCode"`
	Amount       float64   `json:"amount"`
	Date         time.Time `json:"date"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type CreateEntryRequest struct {
	UserID       string
	CurrencyCode string
	Amount       float64
	Date         time.Time
	Note         string
}

func (r CreateEntryRequest) Validate() *apperror.AppError {
	if r.UserID == "" {
		return apperror.New(apperror.Unauthorized, "missing user identity")
	}
	if len(r.CurrencyCode) != 3 {
		return apperror.New(apperror.BadRequest, "currencyCode must be a 3-letter code")
	}
	if r.Amount <= 0 {
		return apperror.New(apperror.BadRequest, "amount must be positive")
	}
	if r.Date.IsZero() {
		return apperror.New(apperror.BadRequest, "date is required")
	}
	return nil
}

type UpdateEntryRequest struct {
	ID           string
	UserID       string
	CurrencyCode string
	Amount       float64
	Date         time.Time
	Note         string
}

func (r UpdateEntryRequest) Validate() *apperror.AppError {
	if r.ID == "" {
		return apperror.New(apperror.BadRequest, "missing entry id")
	}
	return CreateEntryRequest{
		UserID:       r.UserID,
		CurrencyCode: r.CurrencyCode,
		Amount:       r.Amount,
		Date:         r.Date,
	}.Validate()
}

// NormalizeCode uppercases a currency code for storage and lookups.
func NormalizeCode(code string) string {
	return strings.ToUpper(code)
}

// ValuationItem is one entry valued in the base currency at its acquisition
// date and at the latest known rates.
type ValuationItem struct {
	EntryID      string  `json:"entryId"`
	CurrencyCode string  `json:"currencyCode"`
	Amount       float64 `json:"amount"`
	ValueAtEntry float64 `json:"valueAtEntry"`
	CurrentValue float64 `json:"currentValue"`
}

type Valuation struct {
	BaseCurrency      string          `json:"baseCurrency"`
	Items             []ValuationItem `json:"items"`
	TotalValueAtEntry float64         `json:"totalValueAtEntry"`
	TotalCurrentValue float64         `json:"totalCurrentValue"`
	Skipped           int             `json:"skipped"`
}
