package google

import (
	"fmt"
	"strconv"
	"strings"

	"tally/internal/currency"
)

// parseRateRows converts raw sheet rows into a rate table. Returns the
// table and the number of rows skipped as unparseable.
func parseRateRows(rows [][]interface{}) (currency.RateTable, int) {
	table := make(currency.RateTable)
	skipped := 0
	for _, row := range rows {
		if len(row) < 2 {
			skipped++
			continue
		}
		code := currency.Normalize(fmt.Sprint(row[0]))
		rate, err := parseRate(fmt.Sprint(row[1]))
		if err != nil || code == "" {
			skipped++
			continue
		}
		table[code] = rate
	}
	return table, skipped
}

// parseRate accepts both dot and comma decimal separators; rates must
// be strictly positive.
func parseRate(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("non-positive rate %v", v)
	}
	return v, nil
}
