package view

import (
	"testing"
	"time"

	"tally/internal/core"
)

func int64Ptr(v int64) *int64   { return &v }
func f64Ptr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool      { return &v }

func sampleTxs() []core.Transaction {
	return []core.Transaction{
		{ID: 1, Title: "Netflix", Note: "family plan", Amount: 15, Kind: core.Subscription,
			AccountID: 1, CategoryID: int64Ptr(10), Date: core.NewDate(2024, 6, 20)},
		{ID: 2, Title: "Rent", Amount: 950, Kind: core.Repetitive,
			AccountID: 1, CategoryID: int64Ptr(11), Date: core.NewDate(2024, 6, 1)},
		{ID: 3, Title: "Gym", Amount: 40, Kind: core.Subscription, Paid: true,
			AccountID: 2, CategoryID: int64Ptr(10), Date: core.NewDate(2024, 6, 5)},
		{ID: 4, Title: "Loan to Sam", Amount: 200, Kind: core.Lent,
			AccountID: 2, Date: core.NewDate(2024, 5, 15)},
	}
}

func ids(txs []core.Transaction) []int64 {
	out := make([]int64, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterMatch(t *testing.T) {
	now := core.NewDate(2024, 6, 15)

	tests := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"empty filter matches all", Filter{}, []int64{1, 2, 3, 4}},
		{"by category", Filter{Categories: []int64{10}}, []int64{1, 3}},
		{"by account", Filter{Accounts: []int64{2}}, []int64{3, 4}},
		{"by kind multi-select", Filter{Kinds: []core.Kind{core.Repetitive, core.Lent}}, []int64{2, 4}},
		{"by amount range", Filter{MinAmount: f64Ptr(30), MaxAmount: f64Ptr(300)}, []int64{3, 4}},
		{"open only", Filter{Completed: boolPtr(false)}, []int64{1, 2, 4}},
		{"completed only", Filter{Completed: boolPtr(true)}, []int64{3}},
		{"date range", Filter{From: ptrDate(2024, 6, 1), To: ptrDate(2024, 6, 10)}, []int64{2, 3}},
		{"search is case-insensitive over title and note", Filter{Search: "FAMILY"}, []int64{1}},
		{"dimensions combine with AND", Filter{Categories: []int64{10}, Accounts: []int64{1}}, []int64{1}},
		{"category filter drops records without category", Filter{Categories: []int64{99}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(sampleTxs(), tt.filter, SortOrder{}, now))
			if !equalIDs(got, tt.want) {
				t.Errorf("Apply() ids = %v, want %v", got, tt.want)
			}
		})
	}
}

func ptrDate(y, m, d int) *time.Time {
	t := core.NewDate(y, m, d)
	return &t
}

func TestApplySort(t *testing.T) {
	now := core.NewDate(2024, 6, 15)

	tests := []struct {
		name  string
		order SortOrder
		want  []int64
	}{
		{"by due date ascending", SortOrder{Field: SortByDueDate}, []int64{4, 2, 3, 1}},
		{"by due date descending", SortOrder{Field: SortByDueDate, Descending: true}, []int64{1, 3, 2, 4}},
		{"by amount", SortOrder{Field: SortByAmount}, []int64{1, 3, 4, 2}},
		{"by title", SortOrder{Field: SortByTitle}, []int64{3, 4, 1, 2}},
		{"by status overdue first then resolved last", SortOrder{Field: SortByStatus}, []int64{4, 2, 1, 3}},
		{"by account name", SortOrder{Field: SortByAccount,
			AccountNames: map[int64]string{1: "Wallet", 2: "Bank"}}, []int64{3, 4, 1, 2}},
		{"by account without names falls back to account id", SortOrder{Field: SortByAccount}, []int64{1, 2, 3, 4}},
		{"no order keeps input order", SortOrder{}, []int64{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(sampleTxs(), Filter{}, tt.order, now))
			if !equalIDs(got, tt.want) {
				t.Errorf("Apply() ids = %v, want %v", got, tt.want)
			}
		})
	}
}

// Stable ties: equal sort keys keep natural input order.
func TestApplySortStable(t *testing.T) {
	now := core.NewDate(2024, 6, 15)
	txs := []core.Transaction{
		{ID: 1, Title: "A", Amount: 10, Kind: core.Subscription, Date: core.NewDate(2024, 6, 20)},
		{ID: 2, Title: "B", Amount: 10, Kind: core.Subscription, Date: core.NewDate(2024, 6, 20)},
		{ID: 3, Title: "C", Amount: 10, Kind: core.Subscription, Date: core.NewDate(2024, 6, 20)},
	}
	got := ids(Apply(txs, Filter{}, SortOrder{Field: SortByAmount}, now))
	if !equalIDs(got, []int64{1, 2, 3}) {
		t.Errorf("Apply() ids = %v, want input order preserved", got)
	}
}
