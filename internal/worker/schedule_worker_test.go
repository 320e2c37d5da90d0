package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/currency"
	"tally/internal/rates/memory"
)

type fakeStore struct {
	txs       []core.Transaction
	advanced  map[int64]time.Time
	ended     []int64
	rates     currency.RateTable
	reminders map[string]bool
	listErr   error
}

func newFakeStore(txs []core.Transaction) *fakeStore {
	return &fakeStore{
		txs:       txs,
		advanced:  make(map[int64]time.Time),
		reminders: make(map[string]bool),
	}
}

func (s *fakeStore) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	return s.txs, s.listErr
}

func (s *fakeStore) AdvanceRecurrence(_ context.Context, id int64, nextDue time.Time) error {
	s.advanced[id] = nextDue
	return nil
}

func (s *fakeStore) EndRecurrence(_ context.Context, id int64) error {
	s.ended = append(s.ended, id)
	return nil
}

func (s *fakeStore) UpsertRates(_ context.Context, table currency.RateTable) error {
	s.rates = table
	return nil
}

func (s *fakeStore) RecordReminder(_ context.Context, id int64, dueDate time.Time) (bool, error) {
	key := fmt.Sprintf("%d/%s", id, core.StartOfDay(dueDate).Format("2006-01-02"))
	if s.reminders[key] {
		return false, nil
	}
	s.reminders[key] = true
	return true, nil
}

type fakePublisher struct {
	published []*amqp.DueReminderMessage
	err       error
}

func (p *fakePublisher) PublishDueReminder(_ context.Context, msg *amqp.DueReminderMessage) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, msg)
	return nil
}

func datePtr(y, m, d int) *time.Time {
	t := core.NewDate(y, m, d)
	return &t
}

func recurringTx(id int64, title string, due time.Time, paid bool, rec *core.Recurrence) core.Transaction {
	return core.Transaction{
		ID:          id,
		Title:       title,
		Amount:      10,
		Mode:        core.Expense,
		Kind:        core.Subscription,
		AccountID:   1,
		Date:        due,
		NextDueDate: &due,
		Currency:    "usd",
		Paid:        paid,
		Recurrence:  rec,
	}
}

func TestProcessSchedulePublishesReminders(t *testing.T) {
	now := core.NewDate(2025, 6, 15)
	monthly := &core.Recurrence{Frequency: core.Monthly, Interval: 1}

	store := newFakeStore([]core.Transaction{
		recurringTx(1, "Rent", core.NewDate(2025, 6, 18), false, monthly),    // due soon
		recurringTx(2, "Gym", core.NewDate(2025, 6, 10), false, monthly),     // overdue
		recurringTx(3, "Hosting", core.NewDate(2025, 8, 1), false, monthly),  // beyond window
		recurringTx(4, "Netflix", core.NewDate(2025, 6, 16), true, monthly),  // paid, not active
	})
	pub := &fakePublisher{}
	w := NewScheduleWorker(store, memory.New(nil), pub, 7)

	result, err := w.ProcessSchedule(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessSchedule() error = %v", err)
	}

	if result.RemindersSent != 2 {
		t.Errorf("RemindersSent = %d, want 2", result.RemindersSent)
	}
	if len(pub.published) != 2 {
		t.Fatalf("published %d messages, want 2", len(pub.published))
	}
	if pub.published[0].TransactionID != 1 || pub.published[0].Overdue {
		t.Errorf("first message = %+v, want upcoming reminder for transaction 1", pub.published[0])
	}
	if pub.published[1].TransactionID != 2 || !pub.published[1].Overdue {
		t.Errorf("second message = %+v, want overdue reminder for transaction 2", pub.published[1])
	}
}

func TestProcessScheduleRollsForward(t *testing.T) {
	now := core.NewDate(2025, 6, 15)

	store := newFakeStore([]core.Transaction{
		// Paid and past due: advances one month
		recurringTx(1, "Rent", core.NewDate(2025, 6, 1), true,
			&core.Recurrence{Frequency: core.Monthly, Interval: 1}),
		// Paid, past due, but recurrence already at its end: schedule ends
		recurringTx(2, "Course", core.NewDate(2025, 6, 1), true,
			&core.Recurrence{Frequency: core.Monthly, Interval: 1, EndDate: datePtr(2025, 6, 20)}),
		// Unpaid stays put
		recurringTx(3, "Gym", core.NewDate(2025, 6, 1), false,
			&core.Recurrence{Frequency: core.Monthly, Interval: 1}),
	})
	w := NewScheduleWorker(store, memory.New(nil), nil, 7)

	result, err := w.ProcessSchedule(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessSchedule() error = %v", err)
	}

	if result.Advanced != 1 {
		t.Errorf("Advanced = %d, want 1", result.Advanced)
	}
	if got, want := store.advanced[1], core.NewDate(2025, 7, 1); !got.Equal(want) {
		t.Errorf("advanced[1] = %v, want %v", got, want)
	}
	if result.Ended != 1 {
		t.Errorf("Ended = %d, want 1", result.Ended)
	}
	if len(store.ended) != 1 || store.ended[0] != 2 {
		t.Errorf("ended = %v, want [2]", store.ended)
	}
	if _, ok := store.advanced[3]; ok {
		t.Error("unpaid transaction 3 should not advance")
	}
}

func TestProcessSchedulePublisherFailureDoesNotAbort(t *testing.T) {
	now := core.NewDate(2025, 6, 15)
	store := newFakeStore([]core.Transaction{
		recurringTx(1, "Rent", core.NewDate(2025, 6, 16), false,
			&core.Recurrence{Frequency: core.Monthly, Interval: 1}),
	})
	pub := &fakePublisher{err: errors.New("broker down")}
	w := NewScheduleWorker(store, memory.New(nil), pub, 7)

	result, err := w.ProcessSchedule(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessSchedule() error = %v", err)
	}
	if result.RemindersSent != 0 {
		t.Errorf("RemindersSent = %d, want 0", result.RemindersSent)
	}
}

func TestRefreshRates(t *testing.T) {
	store := newFakeStore(nil)
	src := memory.New(currency.RateTable{"usd": 0.31, "eur": 0.27})
	w := NewScheduleWorker(store, src, nil, 7)

	if err := w.RefreshRates(context.Background()); err != nil {
		t.Fatalf("RefreshRates() error = %v", err)
	}
	if store.rates["usd"] != 0.31 {
		t.Errorf("stored rates[usd] = %v, want 0.31", store.rates["usd"])
	}
}

func TestRefreshRatesEmptyTableKeepsStored(t *testing.T) {
	store := newFakeStore(nil)
	store.rates = currency.RateTable{"usd": 0.5}
	w := NewScheduleWorker(store, memory.New(nil), nil, 7)

	if err := w.RefreshRates(context.Background()); err != nil {
		t.Fatalf("RefreshRates() error = %v", err)
	}
	if store.rates["usd"] != 0.5 {
		t.Errorf("stored rates overwritten by empty fetch: %v", store.rates)
	}
}

func TestHandleReminderIdempotent(t *testing.T) {
	store := newFakeStore(nil)
	w := NewReminderWorker(store)

	msg := amqp.NewDueReminderMessage(7, "Rent", 800, "eur", core.NewDate(2025, 6, 20), false)

	if err := w.HandleReminder(context.Background(), msg); err != nil {
		t.Fatalf("HandleReminder() error = %v", err)
	}
	if err := w.HandleReminder(context.Background(), msg); err != nil {
		t.Fatalf("HandleReminder() second delivery error = %v", err)
	}
	if len(store.reminders) != 1 {
		t.Errorf("recorded %d reminders, want 1", len(store.reminders))
	}
}
