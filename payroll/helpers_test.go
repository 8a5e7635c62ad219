package payroll_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/warp/wage-arrears/generic"
	"github.com/warp/wage-arrears/generic/store"
	"github.com/warp/wage-arrears/payroll"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(s string) generic.TimePoint {
	d, err := generic.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// calendarYear is weekends plus the given weekday holidays.
func calendarYear(year int, holidays ...string) generic.CalendarYear {
	y := store.WeekendYear(year)
	for _, h := range holidays {
		y.NonWorkingDays = append(y.NonWorkingDays, date(h))
	}
	return y
}

// testCalendar covers 2023-2026 with the Russian public holidays that fall
// on weekdays (working Saturdays are ignored).
func testCalendar() *store.Calendar {
	return store.NewCalendar(
		calendarYear(2023,
			"2023-01-02", "2023-01-03", "2023-01-04", "2023-01-05", "2023-01-06",
			"2023-02-23", "2023-02-24", "2023-03-08", "2023-05-01", "2023-05-08",
			"2023-05-09", "2023-06-12", "2023-11-06"),
		calendarYear(2024,
			"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05",
			"2024-01-08", "2024-02-23", "2024-03-08", "2024-04-29", "2024-04-30",
			"2024-05-01", "2024-05-09", "2024-05-10", "2024-06-12", "2024-11-04",
			"2024-12-30", "2024-12-31"),
		calendarYear(2025,
			"2025-01-01", "2025-01-02", "2025-01-03", "2025-01-06", "2025-01-07",
			"2025-01-08", "2025-05-01", "2025-05-02", "2025-05-08", "2025-05-09",
			"2025-06-12", "2025-06-13", "2025-11-03", "2025-11-04", "2025-12-31"),
		calendarYear(2026,
			"2026-01-01", "2026-01-02", "2026-01-05", "2026-01-06", "2026-01-07",
			"2026-01-08", "2026-01-09", "2026-02-23", "2026-03-09", "2026-05-01",
			"2026-05-11", "2026-06-12", "2026-11-04", "2026-12-31"),
	)
}

// testKeyRates is the key-rate history from late 2023 on.
func testKeyRates() *store.KeyRates {
	return store.NewKeyRates([]generic.KeyRate{
		{EffectiveFrom: date("2023-12-18"), Rate: dec("16")},
		{EffectiveFrom: date("2024-07-29"), Rate: dec("18")},
		{EffectiveFrom: date("2024-09-16"), Rate: dec("19")},
		{EffectiveFrom: date("2024-10-28"), Rate: dec("21")},
		{EffectiveFrom: date("2025-06-09"), Rate: dec("20")},
		{EffectiveFrom: date("2025-07-28"), Rate: dec("18")},
		{EffectiveFrom: date("2025-09-15"), Rate: dec("17")},
		{EffectiveFrom: date("2025-10-27"), Rate: dec("16.5")},
	}, generic.TimePoint{})
}

// baseInput is 300 000 net a month, hired 2024-07-22, advance on the 20th,
// settlement on the 5th.
func baseInput() payroll.EmployeeInput {
	return payroll.EmployeeInput{
		MonthlySalary:     dec("300000"),
		SalaryKind:        payroll.SalaryNet,
		AdvanceDay:        20,
		SettlementDay:     5,
		HireDate:          date("2024-07-22"),
		CalculationDate:   date("2025-02-10"),
		HolidayRateMethod: payroll.RateMonthlyWorkDays,
	}
}

func missedIndexation() []payroll.IndexationRule {
	return []payroll.IndexationRule{{Date: date("2025-03-01"), Percent: dec("9.57")}}
}

func calculate(t *testing.T, in payroll.EmployeeInput) *payroll.Result {
	t.Helper()
	res, err := payroll.Calculate(in, testCalendar(), testKeyRates())
	require.NoError(t, err)
	return res
}

func eventsOfKind(events []payroll.PaymentEvent, kind payroll.PaymentKind) []payroll.PaymentEvent {
	var out []payroll.PaymentEvent
	for _, e := range events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// ytdBefore sums the paid gross of events earlier in the list that were
// paid in the same year as events[i].
func ytdBefore(events []payroll.PaymentEvent, i int) decimal.Decimal {
	year := events[i].PaymentDate.Year()
	sum := decimal.Zero
	for _, e := range events[:i] {
		if e.PaymentDate.Year() == year {
			sum = sum.Add(e.GrossPaid)
		}
	}
	return sum
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}
