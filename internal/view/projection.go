// Package view maps engine records into display-ready summaries and
// applies list filters. It is read-only: nothing here mutates the
// snapshot it is given.
package view

import (
	"fmt"
	"math"
	"time"

	"tally/internal/core"
)

const dateLayout = "Jan 2, 2006"

// DaysRemaining returns the whole days between now and the due date,
// rounded down. Negative means overdue by that many days.
func DaysRemaining(due, now time.Time) int {
	return int(math.Floor(due.Sub(now).Hours() / 24))
}

// StatusText renders a human status line for a transaction relative to
// now. Resolved transactions report their kind-specific resolution.
func StatusText(tx core.Transaction, now time.Time) string {
	switch {
	case tx.Kind.Recurring() && tx.Paid:
		return "Paid"
	case tx.Kind == core.Lent && tx.Collected:
		return "Collected"
	case tx.Kind == core.Borrowed && tx.Settled:
		return "Settled"
	}

	due := tx.DueDate()
	if due.IsZero() {
		return "Scheduled"
	}
	switch days := DaysRemaining(due, now); {
	case days < 0:
		return fmt.Sprintf("Overdue (%d days)", -days)
	case days == 0:
		return "Due Today"
	case days == 1:
		return "Due Tomorrow"
	default:
		return fmt.Sprintf("Due in %d days", days)
	}
}

// RecurrenceDurationText renders how long a recurrence runs: its end
// date when bounded, else the repeat cadence, else "Ongoing".
func RecurrenceDurationText(rec *core.Recurrence) string {
	if rec == nil {
		return "Ongoing"
	}
	if rec.EndDate != nil {
		return "Until " + rec.EndDate.Format(dateLayout)
	}
	interval := rec.Interval
	if interval < 1 {
		interval = 1
	}
	switch rec.Frequency {
	case core.Daily:
		if interval == 1 {
			return "Daily"
		}
		return fmt.Sprintf("Every %d days", interval)
	case core.Weekly:
		if interval == 1 {
			return "Weekly"
		}
		return fmt.Sprintf("Every %d weeks", interval)
	case core.Monthly:
		if interval == 1 {
			return "Monthly"
		}
		return fmt.Sprintf("Every %d months", interval)
	case core.Yearly:
		if interval == 1 {
			return "Yearly"
		}
		return fmt.Sprintf("Every %d years", interval)
	default:
		return "Ongoing"
	}
}

// GroupSimilar collapses duplicate recurring instances: transactions
// sharing title, amount and kind are reduced to the one due earliest,
// in first-seen order.
func GroupSimilar(txs []core.Transaction) []core.Transaction {
	type key struct {
		title  string
		amount float64
		kind   core.Kind
	}
	index := make(map[key]int)
	var out []core.Transaction
	for _, tx := range txs {
		k := key{tx.Title, tx.Amount, tx.Kind}
		if i, seen := index[k]; seen {
			if tx.DueDate().Before(out[i].DueDate()) {
				out[i] = tx
			}
			continue
		}
		index[k] = len(out)
		out = append(out, tx)
	}
	return out
}
