// Package recurrence computes occurrence dates for recurring
// transactions.
//
// Each frequency has its own stepper that encapsulates the calendar
// arithmetic for that unit, mirroring the strategy registry used for the
// rest of the schedule engine. All arithmetic is calendar-based and UTC:
// stepping a month from Jan 31 lands on the last valid day of February,
// never on an overflowed date.
package recurrence

import (
	"time"

	"tally/internal/core"
)

// Stepper is the strategy interface for one recurrence frequency.
type Stepper interface {
	// Step advances from the given day by interval units.
	Step(from time.Time, interval int) time.Time

	// Count returns how many occurrences fit between start and end.
	Count(start, end time.Time, interval int) int
}

type dailyStepper struct{}

func (dailyStepper) Step(from time.Time, interval int) time.Time {
	return from.AddDate(0, 0, interval)
}

func (dailyStepper) Count(start, end time.Time, interval int) int {
	return ceilDiv(daysBetween(start, end), interval)
}

type weeklyStepper struct{}

func (weeklyStepper) Step(from time.Time, interval int) time.Time {
	return from.AddDate(0, 0, 7*interval)
}

func (weeklyStepper) Count(start, end time.Time, interval int) int {
	return ceilDiv(ceilDiv(daysBetween(start, end), 7), interval)
}

type monthlyStepper struct{}

func (monthlyStepper) Step(from time.Time, interval int) time.Time {
	return addMonths(from, interval)
}

func (monthlyStepper) Count(start, end time.Time, interval int) int {
	return ceilDiv(monthsBetween(start, end), interval)
}

type yearlyStepper struct{}

func (yearlyStepper) Step(from time.Time, interval int) time.Time {
	return addMonths(from, 12*interval)
}

func (yearlyStepper) Count(start, end time.Time, interval int) int {
	return ceilDiv(monthsBetween(start, end)/12, interval)
}

// steppers maps frequencies to their calendar strategies. NONE has no
// entry: a series that never repeats has no next occurrence.
var steppers = map[core.Frequency]Stepper{
	core.Daily:   dailyStepper{},
	core.Weekly:  weeklyStepper{},
	core.Monthly: monthlyStepper{},
	core.Yearly:  yearlyStepper{},
}

// NextDueDate returns the next occurrence after current, at start-of-day
// UTC. The second return value is false when the series has no further
// occurrence: the frequency does not repeat, current is at or past the
// end date, or the computed date would cross the end boundary. Callers
// treat absence as a normal terminal state, not an error.
func NextDueDate(current time.Time, freq core.Frequency, interval int, end *time.Time) (time.Time, bool) {
	if interval < 1 {
		interval = 1
	}
	from := core.StartOfDay(current)
	if end != nil && !from.Before(core.StartOfDay(*end)) {
		return time.Time{}, false
	}
	stepper, ok := steppers[freq]
	if !ok {
		return time.Time{}, false
	}
	next := stepper.Step(from, interval)
	if !next.After(from) {
		return time.Time{}, false
	}
	if end != nil && next.After(core.StartOfDay(*end)) {
		return time.Time{}, false
	}
	return next, true
}

// OccurrenceCount returns how many occurrences a bounded series produces
// between start and end. Unbounded series, non-positive intervals, and
// non-repeating frequencies count zero.
func OccurrenceCount(start time.Time, end *time.Time, freq core.Frequency, interval int) int {
	if end == nil || interval <= 0 {
		return 0
	}
	stepper, ok := steppers[freq]
	if !ok {
		return 0
	}
	n := stepper.Count(core.StartOfDay(start), core.StartOfDay(*end), interval)
	if n < 0 {
		return 0
	}
	return n
}

// addMonths advances by whole calendar months, clamping the day to the
// target month's last valid day.
func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	idx := y*12 + int(m) - 1 + months
	ty, tm := idx/12, time.Month(idx%12+1)
	if last := lastDayOfMonth(ty, tm); d > last {
		d = last
	}
	return time.Date(ty, tm, d, 0, 0, 0, 0, time.UTC)
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// daysBetween counts whole days from start to end.
func daysBetween(start, end time.Time) int {
	return int(end.Sub(start) / (24 * time.Hour))
}

// monthsBetween counts whole calendar months from start to end.
func monthsBetween(start, end time.Time) int {
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() < start.Day() {
		months--
	}
	return months
}

func ceilDiv(n, d int) int {
	if d <= 0 || n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}
