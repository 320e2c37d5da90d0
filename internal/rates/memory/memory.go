// Package memory provides an in-process rate source used in tests and
// when no spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"tally/internal/currency"
)

type Source struct {
	mu    sync.RWMutex
	table currency.RateTable
}

// New creates a source serving a fixed table. A nil table serves an
// empty one, which makes every conversion a 1:1 fallback.
func New(table currency.RateTable) *Source {
	if table == nil {
		table = currency.RateTable{}
	}
	return &Source{table: table}
}

// Fetch returns a copy of the current table.
func (s *Source) Fetch(_ context.Context) (currency.RateTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(currency.RateTable, len(s.table))
	for code, rate := range s.table {
		out[code] = rate
	}
	return out, nil
}

// SetRate updates a single rate, normalizing the code.
func (s *Source) SetRate(code string, rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table[currency.Normalize(code)] = rate
}
