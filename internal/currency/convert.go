// Package currency implements conversion of monetary amounts against a
// base-currency rate table.
package currency

import "strings"

// RateTable maps a lowercase currency code to its exchange rate relative
// to one implicit base currency (units of that currency per unit of
// base). A missing code means rate 1.0.
type RateTable map[string]float64

// Normalize lower-cases a currency code for table lookups and
// comparisons.
func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Convert converts amount from one currency into another using the rate
// table. Rates are expressed as units-of-from per unit-of-base, so the
// amount is divided by the from-rate; this is only a full conversion when
// to is the table's base currency.
//
// Unknown or non-positive rates fall back to returning the amount
// unchanged. Callers rely on this lenient degrade when rate data is
// stale or missing, so it must not be turned into an error.
func Convert(amount float64, from, to string, rates RateTable) float64 {
	if Normalize(from) == Normalize(to) {
		return amount
	}
	rate, ok := rates[Normalize(from)]
	if !ok || rate <= 0 {
		return amount
	}
	return amount / rate
}
