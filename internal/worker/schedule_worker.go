// Package worker runs the periodic schedule pass: refreshing exchange
// rates, publishing due reminders, and rolling recurrences forward.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/currency"
	"tally/internal/rates"
	"tally/internal/recurrence"
	"tally/internal/schedule"
)

// Store is the slice of the repository the schedule worker needs.
type Store interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	AdvanceRecurrence(ctx context.Context, id int64, nextDue time.Time) error
	EndRecurrence(ctx context.Context, id int64) error
	UpsertRates(ctx context.Context, table currency.RateTable) error
}

// Publisher sends due reminders to the message queue.
type Publisher interface {
	PublishDueReminder(ctx context.Context, msg *amqp.DueReminderMessage) error
}

type ScheduleWorker struct {
	store      Store
	rates      rates.Source
	publisher  Publisher
	windowDays int
}

// NewScheduleWorker creates a worker. publisher may be nil, in which
// case reminders are logged but not sent.
func NewScheduleWorker(store Store, src rates.Source, publisher Publisher, windowDays int) *ScheduleWorker {
	if windowDays < 1 {
		windowDays = 7
	}
	return &ScheduleWorker{
		store:      store,
		rates:      src,
		publisher:  publisher,
		windowDays: windowDays,
	}
}

// RefreshRates pulls the current rate table and stores it.
func (w *ScheduleWorker) RefreshRates(ctx context.Context) error {
	table, err := w.rates.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch rates: %w", err)
	}
	if len(table) == 0 {
		slog.WarnContext(ctx, "Rate source returned empty table, keeping stored rates")
		return nil
	}
	if err := w.store.UpsertRates(ctx, table); err != nil {
		return fmt.Errorf("store rates: %w", err)
	}
	return nil
}

// ProcessResult summarizes one schedule pass.
type ProcessResult struct {
	RemindersSent int
	Advanced      int
	Ended         int
}

// ProcessSchedule publishes reminders for transactions due within the
// window or overdue, and rolls paid recurring transactions forward to
// their next occurrence.
func (w *ScheduleWorker) ProcessSchedule(ctx context.Context, now time.Time) (ProcessResult, error) {
	var result ProcessResult

	txs, err := w.store.ListTransactions(ctx)
	if err != nil {
		return result, fmt.Errorf("list transactions: %w", err)
	}

	classified := schedule.Classify(txs, now)
	dueSoon := schedule.UpcomingWithinDays(classified.Active, now, w.windowDays)

	for _, tx := range dueSoon {
		if err := w.remind(ctx, tx, false); err != nil {
			slog.ErrorContext(ctx, "Failed to publish reminder",
				"transaction_id", tx.ID, "error", err)
			continue
		}
		result.RemindersSent++
	}
	for _, tx := range classified.Overdue {
		if err := w.remind(ctx, tx, true); err != nil {
			slog.ErrorContext(ctx, "Failed to publish reminder",
				"transaction_id", tx.ID, "error", err)
			continue
		}
		result.RemindersSent++
	}

	advanced, ended, err := w.rollForward(ctx, txs, now)
	if err != nil {
		return result, err
	}
	result.Advanced = advanced
	result.Ended = ended

	slog.InfoContext(ctx, "Schedule pass complete",
		"reminders", result.RemindersSent,
		"advanced", result.Advanced,
		"ended", result.Ended)
	return result, nil
}

func (w *ScheduleWorker) remind(ctx context.Context, tx core.Transaction, overdue bool) error {
	if w.publisher == nil {
		slog.InfoContext(ctx, "Reminder (no publisher configured)",
			"transaction_id", tx.ID,
			"title", tx.Title,
			"due_date", tx.DueDate().Format("2006-01-02"),
			"overdue", overdue)
		return nil
	}
	msg := amqp.NewDueReminderMessage(tx.ID, tx.Title, tx.Amount, tx.Currency, tx.DueDate(), overdue)
	return w.publisher.PublishDueReminder(ctx, msg)
}

// rollForward moves each paid recurring transaction past its due date
// to the next occurrence, or ends the schedule when none remains.
func (w *ScheduleWorker) rollForward(ctx context.Context, txs []core.Transaction, now time.Time) (advanced, ended int, err error) {
	var errs []error
	for _, tx := range txs {
		if !tx.Kind.Recurring() || tx.Recurrence == nil || !tx.Paid {
			continue
		}
		due := tx.DueDate()
		if !due.Before(core.StartOfDay(now)) {
			continue
		}

		next, ok := recurrence.NextDueDate(due, tx.Recurrence.Frequency, tx.Recurrence.Interval, tx.Recurrence.EndDate)
		if !ok {
			if endErr := w.store.EndRecurrence(ctx, tx.ID); endErr != nil {
				errs = append(errs, endErr)
				continue
			}
			ended++
			continue
		}
		if advErr := w.store.AdvanceRecurrence(ctx, tx.ID, next); advErr != nil {
			errs = append(errs, advErr)
			continue
		}
		advanced++
	}
	return advanced, ended, errors.Join(errs...)
}
