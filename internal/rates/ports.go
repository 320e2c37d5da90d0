// Package rates defines the port for exchange-rate providers.
//
// A provider returns a full rate table relative to the configured base
// currency. The engine never fetches rates itself; workers refresh a
// cached table and hand snapshots to the aggregation functions.
package rates

import (
	"context"

	"tally/internal/currency"
)

// Source fetches the current exchange-rate table.
type Source interface {
	Fetch(ctx context.Context) (currency.RateTable, error)
}
