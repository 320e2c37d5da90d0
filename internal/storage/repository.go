// Package storage persists accounts, transactions, and exchange rates
// in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"tally/internal/core"
	"tally/internal/currency"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Snapshot bundles everything the engine needs for one evaluation pass.
type Snapshot struct {
	Accounts     []core.Account
	Transactions []core.Transaction
	Rates        currency.RateTable
	TakenAt      time.Time
}

// Snapshot loads accounts, transactions, and the rate table in one go.
func (r *SQLiteRepository) Snapshot(ctx context.Context) (Snapshot, error) {
	accounts, err := r.ListAccounts(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot accounts: %w", err)
	}
	transactions, err := r.ListTransactions(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot transactions: %w", err)
	}
	rates, err := r.GetRates(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot rates: %w", err)
	}
	return Snapshot{
		Accounts:     accounts,
		Transactions: transactions,
		Rates:        rates,
		TakenAt:      time.Now().UTC(),
	}, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, currency, balance, main FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Currency, &a.Balance, &a.Main); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

func (r *SQLiteRepository) SaveAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}

	if a.ID == 0 {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO accounts (name, currency, balance, main) VALUES (?, ?, ?, ?)`,
			a.Name, currency.Normalize(a.Currency), a.Balance, a.Main)
		if err != nil {
			return core.Account{}, fmt.Errorf("insert account: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return core.Account{}, fmt.Errorf("account insert id: %w", err)
		}
		a.ID = id
	} else {
		_, err := r.db.ExecContext(ctx,
			`UPDATE accounts SET name = ?, currency = ?, balance = ?, main = ? WHERE id = ?`,
			a.Name, currency.Normalize(a.Currency), a.Balance, a.Main, a.ID)
		if err != nil {
			return core.Account{}, fmt.Errorf("update account: %w", err)
		}
	}

	slog.InfoContext(ctx, "Account saved", "id", a.ID, "name", a.Name)
	return a, nil
}

const transactionColumns = `id, title, note, amount, mode, kind, account_id,
	category_id, subcategory_id, date, next_due_date, currency,
	paid, collected, settled,
	recurrence_frequency, recurrence_interval, recurrence_end_date`

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func (r *SQLiteRepository) SaveTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var freq, endDate sql.NullString
	var interval sql.NullInt64
	if tx.Recurrence != nil {
		freq = sql.NullString{String: string(tx.Recurrence.Frequency), Valid: true}
		interval = sql.NullInt64{Int64: int64(tx.Recurrence.Interval), Valid: true}
		if tx.Recurrence.EndDate != nil {
			endDate = sql.NullString{String: tx.Recurrence.EndDate.UTC().Format(time.RFC3339), Valid: true}
		}
	}

	if tx.ID == 0 {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO transactions (title, note, amount, mode, kind, account_id,
				category_id, subcategory_id, date, next_due_date, currency,
				paid, collected, settled,
				recurrence_frequency, recurrence_interval, recurrence_end_date)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			tx.Title, tx.Note, tx.Amount, tx.Mode, tx.Kind, tx.AccountID,
			tx.CategoryID, tx.SubcategoryID,
			tx.Date.UTC().Format(time.RFC3339), nullTime(tx.NextDueDate),
			currency.Normalize(tx.Currency),
			tx.Paid, tx.Collected, tx.Settled,
			freq, interval, endDate)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return core.Transaction{}, fmt.Errorf("transaction insert id: %w", err)
		}
		tx.ID = id
	} else {
		_, err := r.db.ExecContext(ctx,
			`UPDATE transactions SET title = ?, note = ?, amount = ?, mode = ?, kind = ?,
				account_id = ?, category_id = ?, subcategory_id = ?,
				date = ?, next_due_date = ?, currency = ?,
				paid = ?, collected = ?, settled = ?,
				recurrence_frequency = ?, recurrence_interval = ?, recurrence_end_date = ?,
				updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			tx.Title, tx.Note, tx.Amount, tx.Mode, tx.Kind,
			tx.AccountID, tx.CategoryID, tx.SubcategoryID,
			tx.Date.UTC().Format(time.RFC3339), nullTime(tx.NextDueDate),
			currency.Normalize(tx.Currency),
			tx.Paid, tx.Collected, tx.Settled,
			freq, interval, endDate,
			tx.ID)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
		}
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"title", tx.Title,
		"kind", tx.Kind,
		"amount", tx.Amount)
	return tx, nil
}

// MarkCompleted flips the completion flag that matches the transaction
// kind: paid for recurring kinds, collected for lent, settled for
// borrowed.
func (r *SQLiteRepository) MarkCompleted(ctx context.Context, id int64) (core.Transaction, error) {
	tx, err := r.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}

	var column string
	switch {
	case tx.Kind == core.Lent:
		column = "collected"
	case tx.Kind == core.Borrowed:
		column = "settled"
	default:
		column = "paid"
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE transactions SET `+column+` = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("mark transaction %d completed: %w", id, err)
	}

	slog.InfoContext(ctx, "Transaction marked completed", "id", id, "flag", column)
	return r.GetTransaction(ctx, id)
}

// AdvanceRecurrence moves a recurring transaction to its next
// occurrence and reopens it.
func (r *SQLiteRepository) AdvanceRecurrence(ctx context.Context, id int64, nextDue time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET next_due_date = ?, paid = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		nextDue.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("advance recurrence for transaction %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Recurrence advanced", "id", id, "next_due_date", nextDue.Format("2006-01-02"))
	return nil
}

// EndRecurrence clears the schedule of a transaction whose recurrence
// ran past its end date.
func (r *SQLiteRepository) EndRecurrence(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET next_due_date = NULL, recurrence_frequency = NULL,
			recurrence_interval = NULL, recurrence_end_date = NULL,
			updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("end recurrence for transaction %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Recurrence ended", "id", id)
	return nil
}

// UpsertRates replaces stored rates with the given table.
func (r *SQLiteRepository) UpsertRates(ctx context.Context, table currency.RateTable) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rates upsert: %w", err)
	}
	defer dbTx.Rollback()

	for code, rate := range table {
		_, err := dbTx.ExecContext(ctx,
			`INSERT INTO exchange_rates (code, rate, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			 ON CONFLICT(code) DO UPDATE SET rate = excluded.rate, updated_at = CURRENT_TIMESTAMP`,
			currency.Normalize(code), rate)
		if err != nil {
			return fmt.Errorf("upsert rate %s: %w", code, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit rates upsert: %w", err)
	}
	slog.InfoContext(ctx, "Exchange rates stored", "currencies", len(table))
	return nil
}

func (r *SQLiteRepository) GetRates(ctx context.Context) (currency.RateTable, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code, rate FROM exchange_rates`)
	if err != nil {
		return nil, fmt.Errorf("get rates: %w", err)
	}
	defer rows.Close()

	table := make(currency.RateTable)
	for rows.Next() {
		var code string
		var rate float64
		if err := rows.Scan(&code, &rate); err != nil {
			return nil, fmt.Errorf("scan rate: %w", err)
		}
		table[code] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rates: %w", err)
	}
	return table, nil
}

// RecordReminder records that a reminder went out for a transaction's
// due date. Returns false when one was already recorded, which makes
// redelivered queue messages a no-op.
func (r *SQLiteRepository) RecordReminder(ctx context.Context, transactionID int64, dueDate time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO reminders (transaction_id, due_date) VALUES (?, ?)`,
		transactionID, core.StartOfDay(dueDate).Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("record reminder for transaction %d: %w", transactionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reminder rows affected: %w", err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var tx core.Transaction
	var date string
	var nextDue, freq, recEnd sql.NullString
	var interval sql.NullInt64

	err := row.Scan(&tx.ID, &tx.Title, &tx.Note, &tx.Amount, &tx.Mode, &tx.Kind,
		&tx.AccountID, &tx.CategoryID, &tx.SubcategoryID,
		&date, &nextDue, &tx.Currency,
		&tx.Paid, &tx.Collected, &tx.Settled,
		&freq, &interval, &recEnd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	tx.Date, err = parseTime(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date: %w", err)
	}
	if nextDue.Valid {
		t, err := parseTime(nextDue.String)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("parse next due date: %w", err)
		}
		tx.NextDueDate = &t
	}
	if freq.Valid {
		rec := &core.Recurrence{
			Frequency: core.Frequency(freq.String),
			Interval:  int(interval.Int64),
		}
		if recEnd.Valid {
			t, err := parseTime(recEnd.String)
			if err != nil {
				return core.Transaction{}, fmt.Errorf("parse recurrence end date: %w", err)
			}
			rec.EndDate = &t
		}
		tx.Recurrence = rec
	}
	return tx, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}
