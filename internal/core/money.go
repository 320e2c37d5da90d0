// Package core provides the domain model shared by the schedule engine
// and the service layers.
//
// This file contains parsing and formatting helpers for monetary amounts.
// Amounts are float64 throughout the engine: currency conversion divides
// by fractional exchange rates, so an integer-cents representation would
// lose precision at exactly the point it matters.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a decimal string to a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Returns an error for invalid formats, signed values, or zero amounts.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Sign is carried by the transaction mode, not the literal
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	for _, part := range parts {
		for _, r := range part {
			if !unicode.IsDigit(r) {
				return 0, ErrInvalidAmount
			}
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// FormatAmount renders an amount with two decimals and an upper-cased
// currency code suffix, e.g. "322.22 USD".
func FormatAmount(amount float64, currency string) string {
	return strconv.FormatFloat(amount, 'f', 2, 64) + " " + strings.ToUpper(currency)
}
