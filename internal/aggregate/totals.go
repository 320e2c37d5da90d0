// Package aggregate sums transaction and account amounts into
// currency-normalized totals.
//
// Every function converts per record into the base currency via the rate
// table and returns the identity value on empty input. A record's
// originating currency falls back to the base currency when unset.
package aggregate

import (
	"math"

	"tally/internal/core"
	"tally/internal/currency"
)

// ScheduleTotals bundles the periodic totals over the still-open subset
// and over the already-resolved subset of schedule-relevant
// transactions.
type ScheduleTotals struct {
	Monthly     float64
	Yearly      float64
	Current     float64
	MonthlyPaid float64
	YearlyPaid  float64
	CurrentPaid float64
}

// converted resolves the record's currency fallback and converts into
// the base currency.
func converted(tx core.Transaction, base string, rates currency.RateTable) float64 {
	from := tx.Currency
	if from == "" {
		from = base
	}
	return currency.Convert(tx.Amount, from, base, rates)
}

// countable reports whether a transaction participates in income and
// expense totals: resolved records and plain DEFAULT records count,
// still-open scheduled ones do not.
func countable(tx core.Transaction) bool {
	return tx.Paid || tx.Settled || tx.Collected || tx.Kind == core.Default
}

// TotalIncome sums converted amounts of countable Income transactions.
func TotalIncome(txs []core.Transaction, base string, rates currency.RateTable) float64 {
	var sum float64
	for _, tx := range txs {
		if tx.Mode == core.Income && countable(tx) {
			sum += converted(tx, base, rates)
		}
	}
	return sum
}

// TotalExpense sums converted amounts of countable Expense transactions
// and reports the result as a positive magnitude.
func TotalExpense(txs []core.Transaction, base string, rates currency.RateTable) float64 {
	var sum float64
	for _, tx := range txs {
		if tx.Mode == core.Expense && countable(tx) {
			sum += converted(tx, base, rates)
		}
	}
	return math.Abs(sum)
}

// NetWorth sums account balances converted into the base currency.
func NetWorth(accounts []core.Account, base string, rates currency.RateTable) float64 {
	var sum float64
	for _, a := range accounts {
		sum += currency.Convert(a.Balance, a.Currency, base, rates)
	}
	return sum
}

// TransferDestinationAmount converts a transfer amount from the source
// account's currency into the destination account's currency.
func TransferDestinationAmount(amount float64, srcCurrency, dstCurrency string, rates currency.RateTable) float64 {
	return currency.Convert(amount, srcCurrency, dstCurrency, rates)
}

// MonthlyTotal sums converted amounts of unpaid recurring transactions
// with a monthly recurrence.
func MonthlyTotal(txs []core.Transaction, base string, rates currency.RateTable) float64 {
	return monthlySum(openRecurring(txs), base, rates)
}

// YearlyTotal sums converted amounts of unpaid recurring transactions,
// annualized by frequency.
func YearlyTotal(txs []core.Transaction, base string, rates currency.RateTable) float64 {
	return yearlySum(openRecurring(txs), base, rates)
}

// CurrentPeriodTotal sums converted amounts of unpaid recurring
// transactions as-is, one occurrence each.
func CurrentPeriodTotal(txs []core.Transaction, base string, rates currency.RateTable) float64 {
	return currentSum(openRecurring(txs), base, rates)
}

// ScheduleAmounts computes the three periodic totals twice: over the
// still-open subset and over the resolved subset (paid, collected, or
// settled per kind).
func ScheduleAmounts(txs []core.Transaction, base string, rates currency.RateTable) ScheduleTotals {
	var open, done []core.Transaction
	for _, tx := range txs {
		switch tx.Kind {
		case core.Upcoming, core.Subscription, core.Repetitive, core.Lent, core.Borrowed:
			if tx.Completed() {
				done = append(done, tx)
			} else {
				open = append(open, tx)
			}
		}
	}
	return ScheduleTotals{
		Monthly:     monthlySum(open, base, rates),
		Yearly:      yearlySum(open, base, rates),
		Current:     currentSum(open, base, rates),
		MonthlyPaid: monthlySum(done, base, rates),
		YearlyPaid:  yearlySum(done, base, rates),
		CurrentPaid: currentSum(done, base, rates),
	}
}

func openRecurring(txs []core.Transaction) []core.Transaction {
	var out []core.Transaction
	for _, tx := range txs {
		if tx.Kind.Recurring() && !tx.Paid {
			out = append(out, tx)
		}
	}
	return out
}

func frequencyOf(tx core.Transaction) (core.Frequency, int) {
	if tx.Recurrence == nil {
		return core.None, 1
	}
	interval := tx.Recurrence.Interval
	if interval < 1 {
		interval = 1
	}
	return tx.Recurrence.Frequency, interval
}

func monthlySum(txs []core.Transaction, base string, rates currency.RateTable) float64 {
	var sum float64
	for _, tx := range txs {
		if freq, _ := frequencyOf(tx); freq == core.Monthly {
			sum += converted(tx, base, rates)
		}
	}
	return sum
}

// yearlySum annualizes each amount by its frequency; one-off records
// contribute their amount unchanged.
func yearlySum(txs []core.Transaction, base string, rates currency.RateTable) float64 {
	var sum float64
	for _, tx := range txs {
		amount := converted(tx, base, rates)
		freq, interval := frequencyOf(tx)
		switch freq {
		case core.Daily:
			sum += amount * 365 / float64(interval)
		case core.Weekly:
			sum += amount * 52 / float64(interval)
		case core.Monthly:
			sum += amount * 12 / float64(interval)
		case core.Yearly:
			sum += amount / float64(interval)
		default:
			sum += amount
		}
	}
	return sum
}

func currentSum(txs []core.Transaction, base string, rates currency.RateTable) float64 {
	var sum float64
	for _, tx := range txs {
		sum += converted(tx, base, rates)
	}
	return sum
}
