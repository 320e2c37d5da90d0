package view

import (
	"testing"
	"time"

	"tally/internal/core"
)

func TestDaysRemaining(t *testing.T) {
	now := core.NewDate(2024, 6, 15)

	tests := []struct {
		name string
		due  time.Time
		want int
	}{
		{"due today", now, 0},
		{"due tomorrow", core.NewDate(2024, 6, 16), 1},
		{"due in ten days", core.NewDate(2024, 6, 25), 10},
		{"overdue by three days", core.NewDate(2024, 6, 12), -3},
		{"partial day rounds down", now.Add(12 * time.Hour), 0},
		{"partial day overdue rounds down", now.Add(-12 * time.Hour), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysRemaining(tt.due, now); got != tt.want {
				t.Errorf("DaysRemaining() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStatusText(t *testing.T) {
	now := core.NewDate(2024, 6, 15)

	tests := []struct {
		name string
		tx   core.Transaction
		want string
	}{
		{"paid subscription", core.Transaction{Kind: core.Subscription, Paid: true, Date: now}, "Paid"},
		{"collected loan", core.Transaction{Kind: core.Lent, Collected: true, Date: now}, "Collected"},
		{"settled debt", core.Transaction{Kind: core.Borrowed, Settled: true, Date: now}, "Settled"},
		{"overdue", core.Transaction{Kind: core.Subscription, Date: core.NewDate(2024, 6, 10)}, "Overdue (5 days)"},
		{"due today", core.Transaction{Kind: core.Subscription, Date: now}, "Due Today"},
		{"due tomorrow", core.Transaction{Kind: core.Subscription, Date: core.NewDate(2024, 6, 16)}, "Due Tomorrow"},
		{"due later", core.Transaction{Kind: core.Subscription, Date: core.NewDate(2024, 6, 22)}, "Due in 7 days"},
		{"no due date", core.Transaction{Kind: core.Subscription}, "Scheduled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusText(tt.tx, now); got != tt.want {
				t.Errorf("StatusText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecurrenceDurationText(t *testing.T) {
	end := core.NewDate(2025, 3, 1)

	tests := []struct {
		name string
		rec  *core.Recurrence
		want string
	}{
		{"nil recurrence", nil, "Ongoing"},
		{"bounded", &core.Recurrence{Frequency: core.Monthly, Interval: 1, EndDate: &end}, "Until Mar 1, 2025"},
		{"daily", &core.Recurrence{Frequency: core.Daily, Interval: 1}, "Daily"},
		{"every three days", &core.Recurrence{Frequency: core.Daily, Interval: 3}, "Every 3 days"},
		{"weekly", &core.Recurrence{Frequency: core.Weekly, Interval: 1}, "Weekly"},
		{"every two weeks", &core.Recurrence{Frequency: core.Weekly, Interval: 2}, "Every 2 weeks"},
		{"monthly", &core.Recurrence{Frequency: core.Monthly, Interval: 1}, "Monthly"},
		{"every six months", &core.Recurrence{Frequency: core.Monthly, Interval: 6}, "Every 6 months"},
		{"yearly", &core.Recurrence{Frequency: core.Yearly, Interval: 1}, "Yearly"},
		{"zero interval treated as one", &core.Recurrence{Frequency: core.Daily, Interval: 0}, "Daily"},
		{"no frequency", &core.Recurrence{Frequency: core.None, Interval: 1}, "Ongoing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RecurrenceDurationText(tt.rec); got != tt.want {
				t.Errorf("RecurrenceDurationText() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Two Netflix subscriptions with the same amount collapse to the one
// due first.
func TestGroupSimilar(t *testing.T) {
	d1 := core.NewDate(2024, 6, 1)
	d2 := core.NewDate(2024, 7, 1)
	txs := []core.Transaction{
		{ID: 2, Title: "Netflix", Amount: 15, Kind: core.Subscription, Date: d2},
		{ID: 1, Title: "Netflix", Amount: 15, Kind: core.Subscription, Date: d1},
		{ID: 3, Title: "Netflix", Amount: 18, Kind: core.Subscription, Date: d1}, // different amount
		{ID: 4, Title: "Rent", Amount: 15, Kind: core.Repetitive, Date: d1},
	}

	got := GroupSimilar(txs)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].ID != 1 {
		t.Errorf("kept ID %d for the Netflix group, want 1 (earliest due)", got[0].ID)
	}
}

func TestGroupSimilarEmpty(t *testing.T) {
	if got := GroupSimilar(nil); len(got) != 0 {
		t.Errorf("GroupSimilar(nil) = %v, want empty", got)
	}
}
