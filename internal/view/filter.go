package view

import (
	"sort"
	"strings"
	"time"

	"tally/internal/core"
)

// Sort fields for transaction lists.
const (
	SortByDueDate SortField = "due_date"
	SortByAmount  SortField = "amount"
	SortByTitle   SortField = "title"
	SortByAccount SortField = "account"
	SortByStatus  SortField = "status"
)

type (
	SortField string

	// SortOrder is a total order over a sort field. Ties keep the
	// natural input order. AccountNames is consulted only for
	// SortByAccount; when a name is missing the account ID decides.
	SortOrder struct {
		Field        SortField
		Descending   bool
		AccountNames map[int64]string
	}

	// Filter is a conjunctive predicate set: every populated dimension
	// must match, and within a multi-select dimension any value matches.
	// Zero-value dimensions are inactive.
	Filter struct {
		Categories    []int64
		Subcategories []int64
		Accounts      []int64
		Kinds         []core.Kind
		MinAmount     *float64
		MaxAmount     *float64
		Completed     *bool
		From          *time.Time
		To            *time.Time
		Search        string
	}
)

// Match reports whether a transaction passes every active dimension.
func (f Filter) Match(tx core.Transaction) bool {
	if len(f.Categories) > 0 && !containsOptional(f.Categories, tx.CategoryID) {
		return false
	}
	if len(f.Subcategories) > 0 && !containsOptional(f.Subcategories, tx.SubcategoryID) {
		return false
	}
	if len(f.Accounts) > 0 && !containsID(f.Accounts, tx.AccountID) {
		return false
	}
	if len(f.Kinds) > 0 && !containsKind(f.Kinds, tx.Kind) {
		return false
	}
	if f.MinAmount != nil && tx.Amount < *f.MinAmount {
		return false
	}
	if f.MaxAmount != nil && tx.Amount > *f.MaxAmount {
		return false
	}
	if f.Completed != nil && tx.Completed() != *f.Completed {
		return false
	}
	if f.From != nil && tx.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && tx.Date.After(*f.To) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		haystack := strings.ToLower(tx.Title + " " + tx.Note)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

// Apply filters and sorts a transaction list. The input slice is left
// untouched.
func Apply(txs []core.Transaction, f Filter, order SortOrder, now time.Time) []core.Transaction {
	var out []core.Transaction
	for _, tx := range txs {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	less := lessFunc(out, order, now)
	if less != nil {
		sort.SliceStable(out, less)
	}
	return out
}

func lessFunc(txs []core.Transaction, order SortOrder, now time.Time) func(i, j int) bool {
	var less func(i, j int) bool
	switch order.Field {
	case SortByDueDate:
		less = func(i, j int) bool { return txs[i].DueDate().Before(txs[j].DueDate()) }
	case SortByAmount:
		less = func(i, j int) bool { return txs[i].Amount < txs[j].Amount }
	case SortByTitle:
		less = func(i, j int) bool {
			return strings.ToLower(txs[i].Title) < strings.ToLower(txs[j].Title)
		}
	case SortByAccount:
		less = func(i, j int) bool {
			a := strings.ToLower(order.AccountNames[txs[i].AccountID])
			b := strings.ToLower(order.AccountNames[txs[j].AccountID])
			if a != b {
				return a < b
			}
			return txs[i].AccountID < txs[j].AccountID
		}
	case SortByStatus:
		less = func(i, j int) bool { return statusRank(txs[i], now) < statusRank(txs[j], now) }
	default:
		return nil
	}
	if order.Descending {
		inner := less
		return func(i, j int) bool { return inner(j, i) }
	}
	return less
}

// statusRank orders overdue before due-soon before resolved.
func statusRank(tx core.Transaction, now time.Time) int {
	if tx.Completed() {
		return 1 << 30
	}
	return DaysRemaining(tx.DueDate(), now)
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsOptional(ids []int64, id *int64) bool {
	if id == nil {
		return false
	}
	return containsID(ids, *id)
}

func containsKind(kinds []core.Kind, k core.Kind) bool {
	for _, v := range kinds {
		if v == k {
			return true
		}
	}
	return false
}
