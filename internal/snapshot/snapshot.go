package snapshot

import "time"

type Frequency string

const (
	FrequencyHourly Frequency = "hourly"
	FrequencyDaily  Frequency = "daily"
)

// RateMap maps uppercase 3-letter currency codes to rates expressed as
// 1 base currency = rate * target currency. The base currency itself maps
// to 1.
type RateMap map[string]float64

// Snapshot is one time-bucketed rate map. At most one row exists per
// (frequency, effective_at, base_currency).
type Snapshot struct {
	ID           int64     `json:"id"`
	Frequency    Frequency `json:"frequency"`
	EffectiveAt  time.Time `json:"effectiveAt"`
	BaseCurrency string    `json:"baseCurrency"`
	Rates        RateMap   `json:"rates"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FloorToHour floors t to the top of its hour in UTC.
func FloorToHour(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

// FloorToDay floors t to midnight UTC.
func FloorToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
