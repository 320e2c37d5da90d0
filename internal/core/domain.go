package core

import (
	"errors"
	"strings"
	"time"
)

// Transaction modes.
const (
	Income   Mode = "Income"
	Expense  Mode = "Expense"
	Transfer Mode = "Transfer"
)

// Transaction kinds.
const (
	Default      Kind = "DEFAULT"
	Upcoming     Kind = "UPCOMING"
	Subscription Kind = "SUBSCRIPTION"
	Repetitive   Kind = "REPETITIVE"
	Lent         Kind = "LENT"
	Borrowed     Kind = "BORROWED"
)

// Recurrence frequencies.
const (
	None    Frequency = "NONE"
	Daily   Frequency = "DAILY"
	Weekly  Frequency = "WEEKLY"
	Monthly Frequency = "MONTHLY"
	Yearly  Frequency = "YEARLY"
)

type (
	Mode      string
	Kind      string
	Frequency string

	// Account is a money holder with its own currency. Balance is kept in
	// the account's currency; net worth conversion happens at read time.
	Account struct {
		ID       int64
		Name     string
		Currency string
		Balance  float64
		Main     bool
	}

	// Recurrence describes how a transaction repeats. A nil EndDate means
	// the series is unbounded.
	Recurrence struct {
		Frequency Frequency
		Interval  int
		EndDate   *time.Time
	}

	// Transaction is an immutable snapshot record. NextDueDate overrides
	// Date as the due date when present. Currency is the originating
	// currency code; empty means the base currency.
	Transaction struct {
		ID            int64
		Title         string
		Note          string
		Amount        float64
		Mode          Mode
		Kind          Kind
		AccountID     int64
		CategoryID    *int64
		SubcategoryID *int64
		Date          time.Time
		NextDueDate   *time.Time
		Currency      string
		Paid          bool
		Collected     bool
		Settled       bool
		Recurrence    *Recurrence
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyTitle      = errors.New("empty title")
	ErrInvalidMode     = errors.New("invalid transaction mode")
	ErrInvalidKind     = errors.New("invalid transaction kind")
	ErrInvalidInterval = errors.New("invalid recurrence interval")
	ErrInvalidFreq     = errors.New("invalid recurrence frequency")
)

// NewDate returns the given calendar day at start-of-day UTC. All date
// arithmetic in this codebase is done in UTC.
func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// StartOfDay truncates t to its UTC calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (m Mode) IsValid() bool {
	switch m {
	case Income, Expense, Transfer:
		return true
	default:
		return false
	}
}

func (k Kind) IsValid() bool {
	switch k {
	case Default, Upcoming, Subscription, Repetitive, Lent, Borrowed:
		return true
	default:
		return false
	}
}

// Recurring reports whether the kind repeats on a schedule.
func (k Kind) Recurring() bool {
	switch k {
	case Upcoming, Subscription, Repetitive:
		return true
	default:
		return false
	}
}

func (f Frequency) IsValid() bool {
	switch f {
	case None, Daily, Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

// DueDate is the effective due date: NextDueDate when set, else Date.
// The fallback is a business rule, not a convenience.
func (t Transaction) DueDate() time.Time {
	if t.NextDueDate != nil {
		return *t.NextDueDate
	}
	return t.Date
}

// Active reports whether the transaction still awaits its kind-specific
// resolution. DEFAULT and TRANSFER-like records are always active for
// aggregation purposes.
func (t Transaction) Active() bool {
	switch t.Kind {
	case Upcoming, Subscription, Repetitive:
		return !t.Paid
	case Lent:
		return !t.Collected
	case Borrowed:
		return !t.Settled
	default:
		return true
	}
}

// Completed reports whether the kind-specific resolution flag is set:
// paid for recurring kinds, collected for LENT, settled for BORROWED.
func (t Transaction) Completed() bool {
	switch t.Kind {
	case Upcoming, Subscription, Repetitive:
		return t.Paid
	case Lent:
		return t.Collected
	case Borrowed:
		return t.Settled
	default:
		return false
	}
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyTitle
	}
	if strings.TrimSpace(a.Currency) == "" {
		return errors.New("empty currency code")
	}
	return nil
}

func (r Recurrence) Validate() error {
	if !r.Frequency.IsValid() {
		return ErrInvalidFreq
	}
	if r.Frequency != None && r.Interval < 1 {
		return ErrInvalidInterval
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if len(t.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if t.Amount < 0 {
		return ErrInvalidAmount
	}
	if !t.Mode.IsValid() {
		return ErrInvalidMode
	}
	if !t.Kind.IsValid() {
		return ErrInvalidKind
	}
	if t.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	if t.Recurrence != nil {
		if err := t.Recurrence.Validate(); err != nil {
			return err
		}
		if t.Recurrence.EndDate != nil && !t.Recurrence.EndDate.After(t.Date) {
			return errors.New("recurrence end date must be after start date")
		}
	}
	return nil
}
