package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tally/internal/aggregate"
	"tally/internal/core"
	"tally/internal/schedule"
	"tally/internal/view"
)

const dashboardCacheKey = "dashboard"

func scheduleCacheKey(days int) string {
	return "schedule:" + strconv.Itoa(days)
}

// DashboardResponse is the headline view: balances and schedule totals
// in the base currency.
type DashboardResponse struct {
	BaseCurrency string         `json:"base_currency"`
	NetWorth     float64        `json:"net_worth"`
	TotalIncome  float64        `json:"total_income"`
	TotalExpense float64        `json:"total_expense"`
	Schedule     ScheduleTotals `json:"schedule"`
}

type ScheduleTotals struct {
	Monthly     float64 `json:"monthly"`
	Yearly      float64 `json:"yearly"`
	Current     float64 `json:"current"`
	MonthlyPaid float64 `json:"monthly_paid"`
	YearlyPaid  float64 `json:"yearly_paid"`
	CurrentPaid float64 `json:"current_paid"`
}

type ScheduleResponse struct {
	WindowDays int             `json:"window_days"`
	Upcoming   []ScheduleEntry `json:"upcoming"`
	Overdue    []ScheduleEntry `json:"overdue"`
}

type ScheduleEntry struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	DueDate       string  `json:"due_date"`
	DaysRemaining int     `json:"days_remaining"`
	Status        string  `json:"status"`
	Recurrence    string  `json:"recurrence"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if cached, ok := s.dashboardCache.Get(dashboardCacheKey); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	ctx := r.Context()
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		s.serverError(w, r, "list accounts", err)
		return
	}
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		s.serverError(w, r, "list transactions", err)
		return
	}
	rates, err := s.store.GetRates(ctx)
	if err != nil {
		s.serverError(w, r, "get rates", err)
		return
	}

	totals := aggregate.ScheduleAmounts(txs, s.baseCurrency, rates)
	resp := DashboardResponse{
		BaseCurrency: s.baseCurrency,
		NetWorth:     aggregate.NetWorth(accounts, s.baseCurrency, rates),
		TotalIncome:  aggregate.TotalIncome(txs, s.baseCurrency, rates),
		TotalExpense: aggregate.TotalExpense(txs, s.baseCurrency, rates),
		Schedule: ScheduleTotals{
			Monthly:     totals.Monthly,
			Yearly:      totals.Yearly,
			Current:     totals.Current,
			MonthlyPaid: totals.MonthlyPaid,
			YearlyPaid:  totals.YearlyPaid,
			CurrentPaid: totals.CurrentPaid,
		},
	}

	s.dashboardCache.Set(dashboardCacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	days := s.windowDays
	if v := strings.TrimSpace(r.URL.Query().Get("days")); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil || d < 1 || d > 365 {
			writeError(w, http.StatusBadRequest, "days must be an integer between 1 and 365")
			return
		}
		days = d
	}

	if cached, ok := s.scheduleCache.Get(scheduleCacheKey(days)); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	txs, err := s.store.ListTransactions(r.Context())
	if err != nil {
		s.serverError(w, r, "list transactions", err)
		return
	}

	now := time.Now().UTC()
	classified := schedule.Classify(txs, now)
	resp := ScheduleResponse{
		WindowDays: days,
		Upcoming:   scheduleEntries(schedule.UpcomingWithinDays(classified.Active, now, days), now),
		Overdue:    scheduleEntries(schedule.OverdueWithinDays(classified.Active, now, days), now),
	}

	s.scheduleCache.Set(scheduleCacheKey(days), resp)
	writeJSON(w, http.StatusOK, resp)
}

func scheduleEntries(txs []core.Transaction, now time.Time) []ScheduleEntry {
	entries := make([]ScheduleEntry, len(txs))
	for i, tx := range txs {
		entries[i] = ScheduleEntry{
			ID:            tx.ID,
			Title:         tx.Title,
			Amount:        tx.Amount,
			Currency:      tx.Currency,
			DueDate:       tx.DueDate().Format("2006-01-02"),
			DaysRemaining: view.DaysRemaining(tx.DueDate(), now),
			Status:        view.StatusText(tx, now),
			Recurrence:    view.RecurrenceDurationText(tx.Recurrence),
		}
	}
	return entries
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListTransactions(w, r)
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type TransactionJSON struct {
	ID            int64           `json:"id"`
	Title         string          `json:"title"`
	Note          string          `json:"note,omitempty"`
	Amount        float64         `json:"amount"`
	Mode          core.Mode       `json:"mode"`
	Kind          core.Kind       `json:"kind"`
	AccountID     int64           `json:"account_id"`
	CategoryID    *int64          `json:"category_id,omitempty"`
	SubcategoryID *int64          `json:"subcategory_id,omitempty"`
	Date          string          `json:"date"`
	NextDueDate   string          `json:"next_due_date,omitempty"`
	Currency      string          `json:"currency,omitempty"`
	Paid          bool            `json:"paid"`
	Collected     bool            `json:"collected"`
	Settled       bool            `json:"settled"`
	Status        string          `json:"status"`
	Recurrence    *RecurrenceJSON `json:"recurrence,omitempty"`
}

type RecurrenceJSON struct {
	Frequency core.Frequency `json:"frequency"`
	Interval  int            `json:"interval"`
	EndDate   string         `json:"end_date,omitempty"`
}

func transactionJSON(tx core.Transaction, now time.Time) TransactionJSON {
	out := TransactionJSON{
		ID:            tx.ID,
		Title:         tx.Title,
		Note:          tx.Note,
		Amount:        tx.Amount,
		Mode:          tx.Mode,
		Kind:          tx.Kind,
		AccountID:     tx.AccountID,
		CategoryID:    tx.CategoryID,
		SubcategoryID: tx.SubcategoryID,
		Date:          tx.Date.Format("2006-01-02"),
		Currency:      tx.Currency,
		Paid:          tx.Paid,
		Collected:     tx.Collected,
		Settled:       tx.Settled,
		Status:        view.StatusText(tx, now),
	}
	if tx.NextDueDate != nil {
		out.NextDueDate = tx.NextDueDate.Format("2006-01-02")
	}
	if tx.Recurrence != nil {
		out.Recurrence = &RecurrenceJSON{
			Frequency: tx.Recurrence.Frequency,
			Interval:  tx.Recurrence.Interval,
		}
		if tx.Recurrence.EndDate != nil {
			out.Recurrence.EndDate = tx.Recurrence.EndDate.Format("2006-01-02")
		}
	}
	return out
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	order := parseSortOrder(r)
	if order.Field == view.SortByAccount {
		accounts, err := s.store.ListAccounts(r.Context())
		if err != nil {
			s.serverError(w, r, "list accounts", err)
			return
		}
		order.AccountNames = make(map[int64]string, len(accounts))
		for _, a := range accounts {
			order.AccountNames[a.ID] = a.Name
		}
	}

	txs, err := s.store.ListTransactions(r.Context())
	if err != nil {
		s.serverError(w, r, "list transactions", err)
		return
	}

	now := time.Now().UTC()
	txs = view.Apply(txs, filter, order, now)
	if r.URL.Query().Get("group") == "true" {
		txs = view.GroupSimilar(txs)
	}

	out := make([]TransactionJSON, len(txs))
	for i, tx := range txs {
		out[i] = transactionJSON(tx, now)
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

type createTransactionRequest struct {
	Title         string          `json:"title"`
	Note          string          `json:"note"`
	Amount        json.Number     `json:"amount"`
	Mode          core.Mode       `json:"mode"`
	Kind          core.Kind       `json:"kind"`
	AccountID     int64           `json:"account_id"`
	CategoryID    *int64          `json:"category_id"`
	SubcategoryID *int64          `json:"subcategory_id"`
	Date          string          `json:"date"`
	NextDueDate   string          `json:"next_due_date"`
	Currency      string          `json:"currency"`
	Recurrence    *RecurrenceJSON `json:"recurrence"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tx, err := req.toTransaction()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := s.store.SaveTransaction(r.Context(), tx)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.serverError(w, r, "save transaction", err)
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusCreated, transactionJSON(saved, time.Now().UTC()))
}

func (req createTransactionRequest) toTransaction() (core.Transaction, error) {
	amount, err := core.ParseAmount(req.Amount.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount: %w", err)
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("date: %w", err)
	}

	kind := req.Kind
	if kind == "" {
		kind = core.Default
	}

	tx := core.Transaction{
		Title:         strings.TrimSpace(req.Title),
		Note:          strings.TrimSpace(req.Note),
		Amount:        amount,
		Mode:          req.Mode,
		Kind:          kind,
		AccountID:     req.AccountID,
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
		Date:          date,
		Currency:      req.Currency,
	}
	if req.NextDueDate != "" {
		due, err := parseDate(req.NextDueDate)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("next_due_date: %w", err)
		}
		tx.NextDueDate = &due
	}
	if req.Recurrence != nil && req.Recurrence.Frequency != core.None {
		rec := &core.Recurrence{
			Frequency: req.Recurrence.Frequency,
			Interval:  req.Recurrence.Interval,
		}
		if req.Recurrence.EndDate != "" {
			end, err := parseDate(req.Recurrence.EndDate)
			if err != nil {
				return core.Transaction{}, fmt.Errorf("recurrence end_date: %w", err)
			}
			rec.EndDate = &end
		}
		tx.Recurrence = rec
	}
	return tx, tx.Validate()
}

// handleTransactionAction routes /api/transactions/{id}/paid.
func (s *Server) handleTransactionAction(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	idStr, action, found := strings.Cut(rest, "/")
	if !found || action != "paid" {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	tx, err := s.store.MarkCompleted(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.serverError(w, r, "mark completed", err)
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusOK, transactionJSON(tx, time.Now().UTC()))
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrEmptyTitle) ||
		errors.Is(err, core.ErrInvalidMode) ||
		errors.Is(err, core.ErrInvalidKind) ||
		errors.Is(err, core.ErrInvalidInterval) ||
		errors.Is(err, core.ErrInvalidFreq)
}
