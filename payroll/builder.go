package payroll

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/wage-arrears/generic"
)

// =============================================================================
// PAYMENT EVENT BUILDER - The stream of payments as they were made
// =============================================================================

// Builder derives the payment events of the window. It works in two steps:
// every payment is first dated and priced in gross (leaves keep their net
// amount), then a chronological walk assigns net amounts so that each
// payment is taxed on the income the year had reached when it was paid.
type Builder struct {
	in    EmployeeInput
	cal   generic.ProductionCalendar
	curve *SalaryCurve
	days  *WorkingDays
}

func NewBuilder(in EmployeeInput, cal generic.ProductionCalendar, curve *SalaryCurve) *Builder {
	return &Builder{
		in:    in,
		cal:   cal,
		curve: curve,
		days:  NewWorkingDays(cal, in.SickLeaves, in.Vacations),
	}
}

// draft is a dated payment before tax. For leaves gross is derived from
// leaveNet during the walk.
type draft struct {
	event    PaymentEvent
	leaveNet decimal.Decimal
	isLeave  bool
}

// WindowStart returns the first day of the first month to reconstruct: the
// hire month, else the month of the earliest unperformed indexation, else
// the month of the base indexation date, else twelve months before the
// calculation month.
func WindowStart(in EmployeeInput, curve *SalaryCurve) generic.TimePoint {
	if in.HasHireDate() {
		return in.HireDate.MonthStart()
	}
	if first, ok := curve.FirstUnperformed(); ok {
		return first.MonthStart()
	}
	if !in.BaseIndexationDate.IsZero() {
		return in.BaseIndexationDate.MonthStart()
	}
	return in.CalculationDate.MonthStart().AddMonths(-12)
}

// Window is [WindowStart, calculation date].
func (b *Builder) Window() generic.Period {
	return generic.Period{Start: WindowStart(b.in, b.curve), End: b.in.CalculationDate}
}

// Months lists the period months to reconstruct. Months after a dismissal
// are not worked and are left out.
func (b *Builder) Months() []generic.YearMonth {
	last := generic.YearMonthOf(b.in.CalculationDate)
	if b.in.HasDismissal() {
		if dm := generic.YearMonthOf(b.in.DismissalDate); dm.Before(last) {
			last = dm
		}
	}
	return generic.MonthsBetween(generic.YearMonthOf(b.Window().Start), last)
}

// Build returns the events ordered by (payment date, kind), each with its
// paid gross and net.
func (b *Builder) Build() ([]PaymentEvent, error) {
	drafts, err := b.drafts()
	if err != nil {
		return nil, err
	}
	sortDrafts(drafts)
	return b.walk(drafts)
}

func (b *Builder) drafts() ([]draft, error) {
	var out []draft
	for _, ym := range b.Months() {
		monthly, err := b.monthDrafts(ym)
		if err != nil {
			return nil, err
		}
		out = append(out, monthly...)
	}

	holidays, err := b.holidayDrafts()
	if err != nil {
		return nil, err
	}
	out = append(out, holidays...)

	for _, group := range []struct {
		kind   PaymentKind
		leaves []LeavePeriod
	}{
		{KindSickLeave, b.in.SickLeaves},
		{KindVacation, b.in.Vacations},
	} {
		for _, l := range group.leaves {
			d, ok, err := b.leaveDraft(group.kind, l)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

// monthDrafts prices the advance and the settlement of a month. Each half
// pays the month's contractual gross pro rata to its effective working days.
func (b *Builder) monthDrafts(ym generic.YearMonth) ([]draft, error) {
	var out []draft
	calc := b.in.CalculationDate

	effMonth, err := b.days.Effective(ym.Year, ym.Month)
	if err != nil {
		return nil, err
	}
	salary := b.curve.Contractual(ym.Mid())

	advanceDate, err := b.cal.NearestWorkingDayOnOrBefore(generic.ClampedDay(ym.Year, ym.Month, b.in.AdvanceDay))
	if err != nil {
		return nil, err
	}
	firstHalf, err := b.days.EffectiveRange(ym.Year, ym.Month, 1, 14)
	if err != nil {
		return nil, err
	}
	if advanceDate.BeforeOrEqual(calc) && effMonth > 0 && firstHalf > 0 {
		out = append(out, draft{event: PaymentEvent{
			Year:        ym.Year,
			Month:       ym.Month,
			Kind:        KindAdvance,
			PaymentDate: advanceDate,
			Covers:      generic.Period{Start: ym.Start(), End: generic.NewTimePoint(ym.Year, ym.Month, 14)},
			GrossPaid:   prorate(salary, firstHalf, effMonth),
		}})
	}

	settlementDate, due, err := b.settlementDate(ym)
	if err != nil {
		return nil, err
	}
	if !due || settlementDate.After(calc) {
		return out, nil
	}
	secondHalf, err := b.days.EffectiveRange(ym.Year, ym.Month, 15, ym.Days())
	if err != nil {
		return nil, err
	}
	if effMonth > 0 && secondHalf > 0 {
		out = append(out, draft{event: PaymentEvent{
			Year:        ym.Year,
			Month:       ym.Month,
			Kind:        KindSettlement,
			PaymentDate: settlementDate,
			Covers:      generic.Period{Start: ym.Mid(), End: ym.End()},
			GrossPaid:   prorate(salary, secondHalf, effMonth),
		}})
	}
	return out, nil
}

// settlementDate returns when the month's salary is settled: the settlement
// day of the next month moved back to a working day, or the dismissal date
// when the employee leaves between month end and that day. due is false
// while the next month has not started by the calculation date.
func (b *Builder) settlementDate(ym generic.YearMonth) (generic.TimePoint, bool, error) {
	next := ym.Next()
	if next.Start().After(b.in.CalculationDate) {
		return generic.TimePoint{}, false, nil
	}
	normal, err := b.cal.NearestWorkingDayOnOrBefore(generic.ClampedDay(next.Year, next.Month, b.in.SettlementDay))
	if err != nil {
		return generic.TimePoint{}, false, err
	}
	if b.in.HasDismissal() {
		dismissal := b.in.DismissalDate
		if dismissal.After(ym.End()) && dismissal.BeforeOrEqual(normal) {
			return dismissal, true, nil
		}
	}
	return normal, true, nil
}

// holidayDrafts emits one event per holiday worked, paid double the daily
// rate with the settlement of its month.
func (b *Builder) holidayDrafts() ([]draft, error) {
	window := b.Window()
	months := make(map[generic.YearMonth]bool)
	for _, ym := range b.Months() {
		months[ym] = true
	}

	var out []draft
	for _, d := range b.in.HolidayWorkDates {
		ym := generic.YearMonthOf(d)
		if !window.Contains(d) || !months[ym] {
			continue
		}
		payDate, due, err := b.settlementDate(ym)
		if err != nil {
			return nil, err
		}
		if !due || payDate.After(b.in.CalculationDate) {
			continue
		}
		rate, err := b.holidayDailyRate(d)
		if err != nil {
			return nil, err
		}
		if rate.IsZero() {
			continue
		}
		out = append(out, draft{event: PaymentEvent{
			Year:        ym.Year,
			Month:       ym.Month,
			Kind:        KindHolidayWork,
			PaymentDate: payDate,
			Covers:      generic.Period{Start: d, End: d},
			GrossPaid:   generic.Round2(rate.Mul(decimal.NewFromInt(2))),
		}})
	}
	return out, nil
}

// holidayDailyRate is the contractual monthly gross on d divided by the
// working days of the month, or by the year's monthly average.
func (b *Builder) holidayDailyRate(d generic.TimePoint) (decimal.Decimal, error) {
	var divisor decimal.Decimal
	if b.in.HolidayRateMethod == RateAvgMonthlyWorkDays {
		avg, err := b.cal.AvgMonthlyWorkDays(d.Year())
		if err != nil {
			return decimal.Zero, err
		}
		divisor = avg
	} else {
		total, err := b.cal.TotalWorkingDays(d.Year(), d.Month())
		if err != nil {
			return decimal.Zero, err
		}
		divisor = decimal.NewFromInt(int64(total))
	}
	if !divisor.IsPositive() {
		return decimal.Zero, nil
	}
	return generic.Round2(b.curve.Contractual(d).Div(divisor)), nil
}

// leaveDraft dates a sick leave or vacation payment: the settlement day of
// the month after the leave ends, never later than the calculation date.
func (b *Builder) leaveDraft(kind PaymentKind, l LeavePeriod) (draft, bool, error) {
	calc := b.in.CalculationDate
	if l.To.After(calc) {
		return draft{}, false, nil
	}

	payDate := calc
	next := generic.YearMonthOf(l.To).Next()
	if !next.Start().After(calc) {
		nominal, err := b.cal.NearestWorkingDayOnOrBefore(generic.ClampedDay(next.Year, next.Month, b.in.SettlementDay))
		if err != nil {
			return draft{}, false, err
		}
		payDate = generic.MinTimePoint(nominal, calc)
	}

	return draft{
		event: PaymentEvent{
			Year:        l.To.Year(),
			Month:       l.To.Month(),
			Kind:        kind,
			PaymentDate: payDate,
			Covers:      l.Period(),
		},
		leaveNet: l.Amount,
		isLeave:  true,
	}, true, nil
}

// walk assigns net amounts in payment order against the paid ledger.
func (b *Builder) walk(drafts []draft) ([]PaymentEvent, error) {
	ledger := NewIncomeLedger()
	events := make([]PaymentEvent, 0, len(drafts))
	for _, d := range drafts {
		e := d.event
		year := e.PaymentDate.Year()
		ytd := ledger.Get(year)

		if d.isLeave {
			e.GrossPaid = GrossFromNet(d.leaveNet, ytd)
		}
		e.NetPaid = Net(e.GrossPaid, ytd)
		if e.GrossPaid.IsNegative() || e.NetPaid.IsNegative() {
			return nil, generic.NumericDomain("negative %s payment on %s: gross %s, net %s",
				e.Kind, e.PaymentDate, e.GrossPaid, e.NetPaid)
		}

		e.GrossIndexed = e.GrossPaid
		e.NetIndexed = e.NetPaid
		e.Underpayment = decimal.Zero
		e.Compensation = decimal.Zero
		e.DelayDays = delayDays(e.PaymentDate, b.in.CalculationDate)
		e.State = StateBuilt

		ledger.Add(year, e.GrossPaid)
		events = append(events, e)
	}
	return events, nil
}

func sortDrafts(drafts []draft) {
	sort.SliceStable(drafts, func(i, j int) bool {
		return eventLess(drafts[i].event, drafts[j].event)
	})
}

// eventLess orders by payment date, then kind.
func eventLess(a, b PaymentEvent) bool {
	if !a.PaymentDate.Equal(b.PaymentDate) {
		return a.PaymentDate.Before(b.PaymentDate)
	}
	return a.Kind < b.Kind
}

// prorate returns round(salary * part / whole, 2).
func prorate(salary decimal.Decimal, part, whole int) decimal.Decimal {
	return generic.Round2(salary.Mul(decimal.NewFromInt(int64(part))).Div(decimal.NewFromInt(int64(whole))))
}

func delayDays(paid, calc generic.TimePoint) int {
	if d := generic.DaysBetween(paid, calc); d > 0 {
		return d
	}
	return 0
}
