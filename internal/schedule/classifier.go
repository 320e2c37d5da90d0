// Package schedule partitions transactions into temporal buckets
// relative to an explicit reference time.
//
// "Now" is always a parameter, never the wall clock, so every
// classification is deterministic and reproducible.
package schedule

import (
	"sort"
	"time"

	"tally/internal/core"
)

// Classification is the three-way result of Classify. Upcoming and
// Overdue are disjoint and together cover Active exactly.
type Classification struct {
	Active   []core.Transaction
	Upcoming []core.Transaction
	Overdue  []core.Transaction
}

// Classify partitions the recurring-kind transactions that are still
// unpaid. A transaction is upcoming when its due date is at or after
// now, overdue when strictly before.
func Classify(txs []core.Transaction, now time.Time) Classification {
	var c Classification
	for _, tx := range txs {
		if !tx.Kind.Recurring() || !tx.Active() {
			continue
		}
		c.Active = append(c.Active, tx)
		if tx.DueDate().Before(now) {
			c.Overdue = append(c.Overdue, tx)
		} else {
			c.Upcoming = append(c.Upcoming, tx)
		}
	}
	return c
}

// UpcomingWithinDays returns active unpaid transactions due between now
// and now+days inclusive, soonest first.
func UpcomingWithinDays(txs []core.Transaction, now time.Time, days int) []core.Transaction {
	limit := now.AddDate(0, 0, days)
	var out []core.Transaction
	for _, tx := range txs {
		if !tx.Kind.Recurring() || !tx.Active() {
			continue
		}
		due := tx.DueDate()
		if !due.Before(now) && !due.After(limit) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate().Before(out[j].DueDate())
	})
	return out
}

// OverdueWithinDays returns active unpaid transactions that fell due in
// the last days before now, most recently missed first.
func OverdueWithinDays(txs []core.Transaction, now time.Time, days int) []core.Transaction {
	cutoff := now.AddDate(0, 0, -days)
	var out []core.Transaction
	for _, tx := range txs {
		if !tx.Kind.Recurring() || !tx.Active() {
			continue
		}
		due := tx.DueDate()
		if due.Before(now) && !due.Before(cutoff) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate().After(out[j].DueDate())
	})
	return out
}
