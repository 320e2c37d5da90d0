package aggregate

import (
	"math"
	"testing"

	"tally/internal/core"
	"tally/internal/currency"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestTotalIncome(t *testing.T) {
	txs := []core.Transaction{
		{Mode: core.Income, Kind: core.Default, Amount: 100},
		{Mode: core.Income, Kind: core.Upcoming, Amount: 40, Paid: true},
		{Mode: core.Income, Kind: core.Upcoming, Amount: 999},               // unpaid, excluded
		{Mode: core.Expense, Kind: core.Default, Amount: 30},                // wrong mode
		{Mode: core.Income, Kind: core.Lent, Amount: 60, Collected: true},   // collected counts
		{Mode: core.Income, Kind: core.Borrowed, Amount: 10, Settled: true}, // settled counts
	}
	got := TotalIncome(txs, "usd", nil)
	if !almostEqual(got, 210) {
		t.Errorf("TotalIncome() = %v, want 210", got)
	}
}

func TestTotalIncomeConvertsOriginalCurrency(t *testing.T) {
	rates := currency.RateTable{"eur": 0.9}
	txs := []core.Transaction{
		{Mode: core.Income, Kind: core.Default, Amount: 90, Currency: "eur"},
		{Mode: core.Income, Kind: core.Default, Amount: 10}, // empty currency means base
	}
	got := TotalIncome(txs, "usd", rates)
	if want := 90/0.9 + 10; !almostEqual(got, want) {
		t.Errorf("TotalIncome() = %v, want %v", got, want)
	}
}

func TestTotalExpenseIsPositiveMagnitude(t *testing.T) {
	txs := []core.Transaction{
		{Mode: core.Expense, Kind: core.Default, Amount: -120},
		{Mode: core.Expense, Kind: core.Default, Amount: -30},
	}
	got := TotalExpense(txs, "usd", nil)
	if !almostEqual(got, 150) {
		t.Errorf("TotalExpense() = %v, want 150", got)
	}
}

func TestAggregationIdentityOnEmptyInput(t *testing.T) {
	if got := TotalIncome(nil, "usd", currency.RateTable{}); got != 0 {
		t.Errorf("TotalIncome(nil) = %v, want 0", got)
	}
	if got := TotalExpense(nil, "usd", currency.RateTable{}); got != 0 {
		t.Errorf("TotalExpense(nil) = %v, want 0", got)
	}
	if got := NetWorth(nil, "usd", currency.RateTable{}); got != 0 {
		t.Errorf("NetWorth(nil) = %v, want 0", got)
	}
	if got := ScheduleAmounts(nil, "usd", currency.RateTable{}); got != (ScheduleTotals{}) {
		t.Errorf("ScheduleAmounts(nil) = %+v, want all zero", got)
	}
}

func TestNetWorthMultiCurrency(t *testing.T) {
	accounts := []core.Account{
		{Balance: 100, Currency: "usd"},
		{Balance: 200, Currency: "eur"},
	}
	rates := currency.RateTable{"eur": 0.9}
	got := NetWorth(accounts, "usd", rates)
	if want := 100 + 200/0.9; !almostEqual(got, want) {
		t.Errorf("NetWorth() = %v, want %v", got, want)
	}
}

func TestTransferDestinationAmount(t *testing.T) {
	rates := currency.RateTable{"gbp": 0.8}
	if got := TransferDestinationAmount(80, "gbp", "usd", rates); !almostEqual(got, 100) {
		t.Errorf("TransferDestinationAmount() = %v, want 100", got)
	}
	if got := TransferDestinationAmount(80, "usd", "usd", rates); got != 80 {
		t.Errorf("TransferDestinationAmount() same currency = %v, want 80", got)
	}
}

func recurring(kind core.Kind, amount float64, freq core.Frequency, interval int) core.Transaction {
	return core.Transaction{
		Kind:       kind,
		Amount:     amount,
		Recurrence: &core.Recurrence{Frequency: freq, Interval: interval},
	}
}

func TestPeriodicTotals(t *testing.T) {
	txs := []core.Transaction{
		recurring(core.Subscription, 20, core.Monthly, 1),
		recurring(core.Repetitive, 10, core.Weekly, 2),
		recurring(core.Upcoming, 5, core.Daily, 1),
		recurring(core.Subscription, 100, core.Yearly, 1),
	}

	if got := MonthlyTotal(txs, "usd", nil); !almostEqual(got, 20) {
		t.Errorf("MonthlyTotal() = %v, want 20", got)
	}

	wantYearly := 20*12.0 + 10*52.0/2 + 5*365.0 + 100
	if got := YearlyTotal(txs, "usd", nil); !almostEqual(got, wantYearly) {
		t.Errorf("YearlyTotal() = %v, want %v", got, wantYearly)
	}

	if got := CurrentPeriodTotal(txs, "usd", nil); !almostEqual(got, 135) {
		t.Errorf("CurrentPeriodTotal() = %v, want 135", got)
	}
}

// The worked annualization example: a monthly 20 contributes 240 yearly,
// 20 monthly, 20 current.
func TestMonthlyAnnualizationExample(t *testing.T) {
	txs := []core.Transaction{recurring(core.Subscription, 20, core.Monthly, 1)}
	if got := YearlyTotal(txs, "usd", nil); !almostEqual(got, 240) {
		t.Errorf("YearlyTotal() = %v, want 240", got)
	}
	if got := MonthlyTotal(txs, "usd", nil); !almostEqual(got, 20) {
		t.Errorf("MonthlyTotal() = %v, want 20", got)
	}
	if got := CurrentPeriodTotal(txs, "usd", nil); !almostEqual(got, 20) {
		t.Errorf("CurrentPeriodTotal() = %v, want 20", got)
	}
}

func TestPeriodicTotalsSkipPaid(t *testing.T) {
	paid := recurring(core.Subscription, 20, core.Monthly, 1)
	paid.Paid = true
	txs := []core.Transaction{paid, recurring(core.Subscription, 7, core.Monthly, 1)}
	if got := MonthlyTotal(txs, "usd", nil); !almostEqual(got, 7) {
		t.Errorf("MonthlyTotal() = %v, want 7", got)
	}
}

func TestScheduleAmounts(t *testing.T) {
	openMonthly := recurring(core.Subscription, 20, core.Monthly, 1)
	paidMonthly := recurring(core.Repetitive, 8, core.Monthly, 1)
	paidMonthly.Paid = true
	collectedLoan := core.Transaction{Kind: core.Lent, Amount: 50, Collected: true}
	openLoan := core.Transaction{Kind: core.Borrowed, Amount: 30}
	plain := core.Transaction{Kind: core.Default, Amount: 999} // not schedule-relevant

	got := ScheduleAmounts(
		[]core.Transaction{openMonthly, paidMonthly, collectedLoan, openLoan, plain},
		"usd", nil)

	want := ScheduleTotals{
		Monthly:     20,
		Yearly:      240 + 30, // one-off loan contributes unchanged
		Current:     50,
		MonthlyPaid: 8,
		YearlyPaid:  96 + 50,
		CurrentPaid: 58,
	}
	if !almostEqual(got.Monthly, want.Monthly) ||
		!almostEqual(got.Yearly, want.Yearly) ||
		!almostEqual(got.Current, want.Current) ||
		!almostEqual(got.MonthlyPaid, want.MonthlyPaid) ||
		!almostEqual(got.YearlyPaid, want.YearlyPaid) ||
		!almostEqual(got.CurrentPaid, want.CurrentPaid) {
		t.Errorf("ScheduleAmounts() = %+v, want %+v", got, want)
	}
}
