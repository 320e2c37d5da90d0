package google

import (
	"testing"
)

func TestParseRateRows(t *testing.T) {
	rows := [][]interface{}{
		{"USD", "0.31"},
		{"EUR", "0,27"},
		{"gbp", 0.23},
		{"bad"},
		{"chf", "not-a-number"},
		{"jpy", "0"},
		{"", "1.5"},
	}

	table, skipped := parseRateRows(rows)

	if skipped != 4 {
		t.Errorf("skipped = %d, want 4", skipped)
	}
	if len(table) != 3 {
		t.Fatalf("len(table) = %d, want 3", len(table))
	}
	if table["usd"] != 0.31 {
		t.Errorf("table[usd] = %v, want 0.31", table["usd"])
	}
	if table["eur"] != 0.27 {
		t.Errorf("table[eur] = %v, want 0.27 (comma separator)", table["eur"])
	}
	if table["gbp"] != 0.23 {
		t.Errorf("table[gbp] = %v, want 0.23", table["gbp"])
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"1.5", 1.5, false},
		{"1,5", 1.5, false},
		{" 0.9 ", 0.9, false},
		{"0", 0, true},
		{"-2", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := parseRate(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseRate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseRate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
