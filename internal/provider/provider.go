package provider

import (
	"context"

	"github.com/ahmethakanbesel/currency-api/internal/snapshot"
)

// Client fetches the current full rate map for a base currency from an
// external provider. Network errors, non-2xx responses, malformed payloads
// and provider-reported errors are all surfaced as a plain error; callers
// treat every failure the same way.
type Client interface {
	Name() string
	FetchLatest(ctx context.Context, baseCurrency string) (snapshot.RateMap, error)
}
