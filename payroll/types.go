/*
Package payroll reconstructs an employee's wage payments and prices the
arrears owed for missed salary indexations.

PURPOSE:
  Given one employee's declarative configuration, the engine rebuilds the
  month-by-month stream of wage payments (advance, settlement, holiday work,
  sick leave, vacation), reprices every payment at the salary that should
  have been paid after the indexations that were never performed, and
  computes the statutory compensation (key rate / 150 per day) owed on each
  underpaid installment. It also recalculates vacation pay from the 12-month
  average and, on dismissal, the unused-vacation compensation.

KEY CONCEPTS IN THIS FILE (types.go):
  - EmployeeInput: the immutable input of one calculation
  - PaymentEvent: one payment, evaluated "as paid" and "as indexed"
  - CompensationSegment: one constant-key-rate run of an event's delay
  - Result: everything a calculation produces

PIPELINE:
  validate -> build events (paid pass) -> indexation overlay ->
  compensation -> vacation recalculation -> totals

  Each PaymentEvent moves Built -> Indexed -> Compensated. The engine is
  synchronous and pure: calendar and key rates come in as loaded query
  objects, and nothing here performs I/O or logs.

SEE ALSO:
  - engine.go: Calculate, the entry point
  - ndfl.go: progressive income tax
  - generic/calendar.go: ProductionCalendar and KeyRateSchedule
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/wage-arrears/generic"
)

// =============================================================================
// INPUT
// =============================================================================

// SalaryKind tells whether the declared salary is before or after tax.
type SalaryKind string

const (
	SalaryNet   SalaryKind = "Net"
	SalaryGross SalaryKind = "Gross"
)

// DailyRateMethod selects the divisor for holiday-work daily pay.
type DailyRateMethod string

const (
	// RateMonthlyWorkDays divides by the working days of the month worked.
	RateMonthlyWorkDays DailyRateMethod = "monthly_work_days"
	// RateAvgMonthlyWorkDays divides by the year's average working days per month.
	RateAvgMonthlyWorkDays DailyRateMethod = "avg_monthly_work_days_per_year"
)

// IndexationRule is a dated salary uplift. Only rules that were not
// performed shape the indexed salary curve.
type IndexationRule struct {
	Date        generic.TimePoint
	Percent     decimal.Decimal
	IsPerformed bool
}

// Factor returns 1 + Percent/100.
func (r IndexationRule) Factor() decimal.Decimal {
	return decimal.NewFromInt(1).Add(generic.Percent(r.Percent))
}

// LeavePeriod is a sick leave or vacation with the net amount actually paid for it.
type LeavePeriod struct {
	From   generic.TimePoint
	To     generic.TimePoint
	Amount decimal.Decimal
}

func (l LeavePeriod) Period() generic.Period {
	return generic.Period{Start: l.From, End: l.To}
}

// Days returns the calendar days of the leave, both ends included.
func (l LeavePeriod) Days() int {
	return l.Period().Length()
}

// Flags switch the optional parts of a calculation.
type Flags struct {
	ComputeIndexationArrears          bool
	ComputeUnusedVacationCompensation bool
}

// EmployeeInput is everything one calculation needs besides reference data.
// Optional dates are zero TimePoints when absent.
type EmployeeInput struct {
	MonthlySalary decimal.Decimal
	SalaryKind    SalaryKind
	AdvanceDay    int
	SettlementDay int

	ProbationSalary decimal.NullDecimal
	ProbationMonths int

	HireDate           generic.TimePoint
	BaseSalaryNet      decimal.NullDecimal
	BaseIndexationDate generic.TimePoint
	IndexationRules    []IndexationRule

	CalculationDate generic.TimePoint
	DismissalDate   generic.TimePoint

	HolidayWorkDates  []generic.TimePoint
	HolidayRateMethod DailyRateMethod

	SickLeaves []LeavePeriod
	Vacations  []LeavePeriod

	Flags Flags
}

// HasHireDate reports whether a hire date was given.
func (in EmployeeInput) HasHireDate() bool { return !in.HireDate.IsZero() }

// HasDismissal reports whether a dismissal date was given.
func (in EmployeeInput) HasDismissal() bool { return !in.DismissalDate.IsZero() }

// =============================================================================
// PAYMENT EVENTS
// =============================================================================

// PaymentKind enumerates payment types. The numeric order is the tie-break
// order for events paid on the same day.
type PaymentKind int

const (
	KindAdvance PaymentKind = iota
	KindSettlement
	KindHolidayWork
	KindSickLeave
	KindVacation
)

func (k PaymentKind) String() string {
	switch k {
	case KindAdvance:
		return "Advance"
	case KindSettlement:
		return "Settlement"
	case KindHolidayWork:
		return "HolidayWork"
	case KindSickLeave:
		return "SickLeave"
	case KindVacation:
		return "Vacation"
	}
	return "Unknown"
}

// IsMonthly reports whether the kind is priced off the month's salary
// (as opposed to a leave paid as a lump sum).
func (k PaymentKind) IsMonthly() bool {
	return k == KindAdvance || k == KindSettlement || k == KindHolidayWork
}

// EventState tracks how far an event has been processed.
type EventState int

const (
	StateBuilt EventState = iota
	StateIndexed
	StateCompensated
)

func (s EventState) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateIndexed:
		return "indexed"
	case StateCompensated:
		return "compensated"
	}
	return "unknown"
}

// PaymentEvent is one payment. Year and Month tag the period the payment is
// for; PaymentDate is when it was paid.
type PaymentEvent struct {
	Year        int
	Month       time.Month
	Kind        PaymentKind
	PaymentDate generic.TimePoint

	// Covers is the stretch of days the payment is for: the half month for
	// advance and settlement, the holiday itself, or the leave period.
	Covers generic.Period

	GrossPaid decimal.Decimal
	NetPaid   decimal.Decimal

	GrossIndexed decimal.Decimal
	NetIndexed   decimal.Decimal

	// Underpayment is NetIndexed - NetPaid; negative means overpaid.
	Underpayment decimal.Decimal
	DelayDays    int

	Compensation          decimal.Decimal
	CompensationBreakdown []CompensationSegment

	State EventState
}

// NdflPaid is the income tax withheld on the payment as paid.
func (e PaymentEvent) NdflPaid() decimal.Decimal {
	return e.GrossPaid.Sub(e.NetPaid)
}

// CompensationSegment is the compensation for a run of days with one key rate.
type CompensationSegment struct {
	From      generic.TimePoint
	To        generic.TimePoint
	Days      int
	KeyRate   decimal.Decimal
	DailyRate decimal.Decimal
	Amount    decimal.Decimal
}

// =============================================================================
// VACATION RESULTS
// =============================================================================

// VacationRecalc compares the vacation pay actually received with the
// average-earnings amount due at the indexed salary.
type VacationRecalc struct {
	Vacation LeavePeriod
	Days     int

	// Window is the 12-month averaging period before the vacation.
	Window        generic.Period
	MonthsCounted int
	SalarySum     decimal.Decimal
	AvgDailyGross decimal.Decimal

	CalculatedGross decimal.Decimal
	CalculatedNet   decimal.Decimal
	PaidNet         decimal.Decimal

	// Difference is CalculatedNet - PaidNet.
	Difference decimal.Decimal
}

// CompensationVariant is unused-vacation compensation under one salary curve.
type CompensationVariant struct {
	SalarySum     decimal.Decimal
	AvgDailyGross decimal.Decimal
	Gross         decimal.Decimal
	Net           decimal.Decimal
}

// UnusedVacation is the compensation for vacation days not taken by dismissal.
type UnusedVacation struct {
	WorkMonths int
	EarnedDays int
	UsedDays   int
	UnusedDays int

	Window        generic.Period
	MonthsCounted int

	WithIndexation    CompensationVariant
	WithoutIndexation CompensationVariant

	DifferenceGross decimal.Decimal
	DifferenceNet   decimal.Decimal
}

// =============================================================================
// RESULT
// =============================================================================

// MonthGroup aggregates the events of one period month.
type MonthGroup struct {
	Year   int
	Month  time.Month
	Events []PaymentEvent

	GrossPaid    decimal.Decimal
	NetPaid      decimal.Decimal
	Ndfl         decimal.Decimal
	GrossIndexed decimal.Decimal
	NetIndexed   decimal.Decimal
	Underpayment decimal.Decimal
	Compensation decimal.Decimal
}

// IndexedSalary previews the salary after an unperformed indexation rule.
type IndexedSalary struct {
	Rule  IndexationRule
	Gross decimal.Decimal
	Net   decimal.Decimal
}

// Totals sums the whole calculation.
type Totals struct {
	GrossPaid    decimal.Decimal
	NetPaid      decimal.Decimal
	GrossIndexed decimal.Decimal
	NetIndexed   decimal.Decimal
	Underpayment decimal.Decimal
	Compensation decimal.Decimal

	VacationDifference decimal.Decimal
	UnusedDifference   decimal.Decimal

	// Due is the underpayment plus compensation owed on the payment stream.
	Due decimal.Decimal
}

// Result is the output of Calculate.
type Result struct {
	Window    generic.Period
	Events    []PaymentEvent
	Months    []MonthGroup
	Vacations []VacationRecalc
	Unused    *UnusedVacation
	Preview   []IndexedSalary
	Totals    Totals
}
