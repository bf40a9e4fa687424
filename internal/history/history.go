package history

import (
	"fmt"
	"time"

	"github.com/ahmethakanbesel/currency-api/internal/apperror"
	"github.com/ahmethakanbesel/currency-api/internal/snapshot"
)

// Range is a client-facing range token. Each token maps to a source
// resolution, a lookback window and a decimation strategy.
type Range string

const (
	Range1D Range = "1d"
	Range1W Range = "1w"
	Range1M Range = "1m"
	Range6M Range = "6m"
	Range1Y Range = "1y"
	Range5Y Range = "5y"
)

// LiveRatesKey is the cache key holding the most recent full rate map for a
// base currency.
func LiveRatesKey(baseCurrency string) string {
	return "live_rates:" + baseCurrency
}

func rawRangeKey(frequency snapshot.Frequency, baseCurrency string, lookbackDays int) string {
	return fmt.Sprintf("raw_snapshots:%s:%s:%dd", frequency, baseCurrency, lookbackDays)
}

type Point struct {
	Timestamp time.Time `json:"ts"`
	Rate      float64   `json:"rate"`
}

type Series struct {
	From      string             `json:"from"`
	To        string             `json:"to"`
	Range     Range              `json:"range"`
	Frequency snapshot.Frequency `json:"frequency"`
	Points    []Point            `json:"points"`
}

type GetRawSeriesRequest struct {
	Range        Range
	BaseCurrency string
}

func (r GetRawSeriesRequest) Validate() *apperror.AppError {
	if !validRange(r.Range) {
		return apperror.New(apperror.BadRequest, "range must be one of 1d, 1w, 1m, 6m, 1y, 5y")
	}
	if !validCurrencyCode(r.BaseCurrency) {
		return apperror.New(apperror.BadRequest, "base must be a 3-letter currency code")
	}
	return nil
}

type GetSeriesRequest struct {
	Range Range
	From  string
	To    string
}

func (r GetSeriesRequest) Validate() *apperror.AppError {
	if !validRange(r.Range) {
		return apperror.New(apperror.BadRequest, "range must be one of 1d, 1w, 1m, 6m, 1y, 5y")
	}
	if !validCurrencyCode(r.From) {
		return apperror.New(apperror.BadRequest, "from must be a 3-letter currency code")
	}
	if !validCurrencyCode(r.To) {
		return apperror.New(apperror.BadRequest, "to must be a 3-letter currency code")
	}
	return nil
}

func validRange(r Range) bool {
	switch r {
	case Range1D, Range1W, Range1M, Range6M, Range1Y, Range5Y:
		return true
	}
	return false
}

func validCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}
