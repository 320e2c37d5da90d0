package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tally/internal/core"
	"tally/internal/storage"
	"tally/internal/view"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.ErrorContext(r.Context(), "Request failed",
		"operation", op, "url", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}

// parseDate parses a date string in YYYY-MM-DD format as UTC.
func parseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(dateStr))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", dateStr)
	}
	return t.UTC(), nil
}

// parseFilter builds a transaction filter from query parameters.
// Multi-value dimensions take comma-separated lists.
func parseFilter(r *http.Request) (view.Filter, error) {
	q := r.URL.Query()
	var f view.Filter
	var err error

	if f.Categories, err = parseIDList(q.Get("categories")); err != nil {
		return f, fmt.Errorf("categories: %w", err)
	}
	if f.Subcategories, err = parseIDList(q.Get("subcategories")); err != nil {
		return f, fmt.Errorf("subcategories: %w", err)
	}
	if f.Accounts, err = parseIDList(q.Get("accounts")); err != nil {
		return f, fmt.Errorf("accounts: %w", err)
	}

	for _, part := range splitList(q.Get("kinds")) {
		kind := core.Kind(strings.ToUpper(part))
		if !kind.IsValid() {
			return f, fmt.Errorf("kinds: unknown kind %q", part)
		}
		f.Kinds = append(f.Kinds, kind)
	}

	if v := strings.TrimSpace(q.Get("min_amount")); v != "" {
		min, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, fmt.Errorf("min_amount: %w", err)
		}
		f.MinAmount = &min
	}
	if v := strings.TrimSpace(q.Get("max_amount")); v != "" {
		max, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, fmt.Errorf("max_amount: %w", err)
		}
		f.MaxAmount = &max
	}
	if v := strings.TrimSpace(q.Get("completed")); v != "" {
		completed, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("completed: %w", err)
		}
		f.Completed = &completed
	}
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		from, err := parseDate(v)
		if err != nil {
			return f, fmt.Errorf("from: %w", err)
		}
		f.From = &from
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		to, err := parseDate(v)
		if err != nil {
			return f, fmt.Errorf("to: %w", err)
		}
		f.To = &to
	}
	f.Search = strings.TrimSpace(q.Get("q"))

	return f, nil
}

func parseSortOrder(r *http.Request) view.SortOrder {
	q := r.URL.Query()
	order := view.SortOrder{Field: view.SortByDueDate}

	switch view.SortField(q.Get("sort")) {
	case view.SortByAmount:
		order.Field = view.SortByAmount
	case view.SortByTitle:
		order.Field = view.SortByTitle
	case view.SortByAccount:
		order.Field = view.SortByAccount
	case view.SortByStatus:
		order.Field = view.SortByStatus
	}
	if q.Get("order") == "desc" {
		order.Descending = true
	}
	return order
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var parts []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func parseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range splitList(s) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
