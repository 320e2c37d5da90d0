package worker

import (
	"context"
	"log/slog"
	"time"

	"tally/internal/amqp"
)

// ReminderStore records delivered reminders.
type ReminderStore interface {
	RecordReminder(ctx context.Context, transactionID int64, dueDate time.Time) (bool, error)
}

// ReminderWorker consumes due-reminder messages and records them so a
// redelivery never produces a duplicate notification.
type ReminderWorker struct {
	store ReminderStore
}

func NewReminderWorker(store ReminderStore) *ReminderWorker {
	return &ReminderWorker{store: store}
}

func (w *ReminderWorker) HandleReminder(ctx context.Context, msg *amqp.DueReminderMessage) error {
	recorded, err := w.store.RecordReminder(ctx, msg.TransactionID, msg.DueDate)
	if err != nil {
		return err
	}
	if !recorded {
		slog.InfoContext(ctx, "Reminder already recorded, skipping",
			"transaction_id", msg.TransactionID,
			"due_date", msg.DueDate.Format("2006-01-02"))
		return nil
	}

	slog.InfoContext(ctx, "Reminder recorded",
		"transaction_id", msg.TransactionID,
		"title", msg.Title,
		"amount", msg.Amount,
		"currency", msg.Currency,
		"due_date", msg.DueDate.Format("2006-01-02"),
		"overdue", msg.Overdue)
	return nil
}
