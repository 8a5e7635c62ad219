package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/warp/wage-arrears/generic"
)

// =============================================================================
// VACATION RECALC - 12-month average earnings
// =============================================================================

var (
	// AvgDaysPerMonth is the statutory average calendar days per month.
	AvgDaysPerMonth = decimal.RequireFromString("29.3")

	// VacationDaysPerMonth is earned per worked month (28 days a year).
	VacationDaysPerMonth = decimal.RequireFromString("2.33")
)

// VacationCalculator recomputes vacation pay and unused-vacation compensation
// from the average monthly gross of the preceding twelve months. It does
// not depend on the payment events.
type VacationCalculator struct {
	in    EmployeeInput
	curve *SalaryCurve
}

func NewVacationCalculator(in EmployeeInput, curve *SalaryCurve) *VacationCalculator {
	return &VacationCalculator{in: in, curve: curve}
}

// Recalculate returns one result per vacation, in input order.
func (v *VacationCalculator) Recalculate() ([]VacationRecalc, error) {
	out := make([]VacationRecalc, 0, len(v.in.Vacations))
	for _, vac := range v.in.Vacations {
		r, err := v.recalc(vac)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (v *VacationCalculator) recalc(vac LeavePeriod) (VacationRecalc, error) {
	start := vac.From.AddMonths(-12)
	end := vac.From.AddDays(-1)
	if v.in.HasHireDate() && start.Before(v.in.HireDate) {
		start = v.in.HireDate.MonthStart()
	}
	window := generic.Period{Start: start, End: end}

	sum, months := v.sumMonths(window, v.curve.Indexed)
	if months == 0 {
		months = 1
		sum = v.curve.Indexed(vac.From)
	}

	days := vac.Days()
	avg := averageDaily(sum, months)
	gross := generic.Round2(avg.Mul(decimal.NewFromInt(int64(days))))
	net := Net(gross, v.estimatedYtd(vac.From))
	if gross.IsNegative() || net.IsNegative() {
		return VacationRecalc{}, generic.NumericDomain("negative vacation pay for %s", vac.Period())
	}

	return VacationRecalc{
		Vacation:        vac,
		Days:            days,
		Window:          window,
		MonthsCounted:   months,
		SalarySum:       sum,
		AvgDailyGross:   generic.Round2(avg),
		CalculatedGross: gross,
		CalculatedNet:   net,
		PaidNet:         vac.Amount,
		Difference:      generic.Round2(net.Sub(vac.Amount)),
	}, nil
}

// Unused returns the compensation for vacation days earned but not taken by
// the dismissal date, or nil when there is none to pay.
func (v *VacationCalculator) Unused() (*UnusedVacation, error) {
	in := v.in
	if !in.HasHireDate() || !in.HasDismissal() || !in.DismissalDate.After(in.HireDate) {
		return nil, nil
	}

	workMonths := WorkMonths(in.HireDate, in.DismissalDate)
	earned := int(decimal.NewFromInt(int64(workMonths)).Mul(VacationDaysPerMonth).Round(0).IntPart())
	used := 0
	for _, vac := range in.Vacations {
		if vac.To.BeforeOrEqual(in.DismissalDate) {
			used += vac.Days()
		}
	}
	unused := earned - used
	if unused <= 0 {
		return nil, nil
	}

	start := in.DismissalDate.AddMonths(-12)
	if start.Before(in.HireDate) {
		start = in.HireDate.MonthStart()
	}
	window := generic.Period{Start: start, End: in.DismissalDate}

	indexedSum, months := v.sumMonths(window, v.curve.Indexed)
	contractualSum, _ := v.sumMonths(window, v.curve.Contractual)
	if months == 0 {
		months = 1
		indexedSum = v.curve.Indexed(in.DismissalDate)
		contractualSum = v.curve.Contractual(in.DismissalDate)
	}

	ytd := v.estimatedYtd(in.DismissalDate)
	with := compensationVariant(indexedSum, months, unused, ytd)
	without := compensationVariant(contractualSum, months, unused, ytd)
	if with.Net.IsNegative() || without.Net.IsNegative() {
		return nil, generic.NumericDomain("negative unused vacation compensation")
	}

	return &UnusedVacation{
		WorkMonths:        workMonths,
		EarnedDays:        earned,
		UsedDays:          used,
		UnusedDays:        unused,
		Window:            window,
		MonthsCounted:     months,
		WithIndexation:    with,
		WithoutIndexation: without,
		DifferenceGross:   generic.Round2(with.Gross.Sub(without.Gross)),
		DifferenceNet:     generic.Round2(with.Net.Sub(without.Net)),
	}, nil
}

// sumMonths adds salary(15th) over the months from the window's first month
// to its last whose 15th falls in [hire date, window end]. The first month
// counts even when the window starts after its 15th.
func (v *VacationCalculator) sumMonths(window generic.Period, salary func(generic.TimePoint) decimal.Decimal) (decimal.Decimal, int) {
	sum := decimal.Zero
	months := 0
	for _, ym := range generic.MonthsBetween(generic.YearMonthOf(window.Start), generic.YearMonthOf(window.End)) {
		mid := ym.Mid()
		if mid.After(window.End) {
			continue
		}
		if v.in.HasHireDate() && mid.Before(v.in.HireDate) {
			continue
		}
		sum = sum.Add(salary(mid))
		months++
	}
	return sum, months
}

// estimatedYtd approximates the gross received in d's year before d: one
// declared monthly gross per full month elapsed since January, or since
// the hire month when hired that year.
func (v *VacationCalculator) estimatedYtd(d generic.TimePoint) decimal.Decimal {
	months := int(d.Month()) - 1
	if v.in.HasHireDate() && v.in.HireDate.Year() == d.Year() {
		months = int(d.Month()) - int(v.in.HireDate.Month()) - 1
	}
	if months < 0 {
		months = 0
	}
	return v.curve.DeclaredGross().Mul(decimal.NewFromInt(int64(months)))
}

// WorkMonths counts months worked in [hire, dismissal]. A month counts in
// full when at least 15 of its days were worked, otherwise by the rounded
// share of its days.
func WorkMonths(hire, dismissal generic.TimePoint) int {
	total := 0
	for _, ym := range generic.MonthsBetween(generic.YearMonthOf(hire), generic.YearMonthOf(dismissal)) {
		worked, ok := generic.MonthPeriod(ym.Year, ym.Month).Intersect(generic.Period{Start: hire, End: dismissal})
		if !ok {
			continue
		}
		days := worked.Length()
		if days >= 15 {
			total++
			continue
		}
		share := decimal.NewFromInt(int64(days)).Div(decimal.NewFromInt(int64(ym.Days())))
		total += int(share.Round(0).IntPart())
	}
	return total
}

func averageDaily(sum decimal.Decimal, months int) decimal.Decimal {
	return sum.Div(decimal.NewFromInt(int64(months))).Div(AvgDaysPerMonth)
}

func compensationVariant(sum decimal.Decimal, months, days int, ytd decimal.Decimal) CompensationVariant {
	avg := averageDaily(sum, months)
	gross := generic.Round2(avg.Mul(decimal.NewFromInt(int64(days))))
	return CompensationVariant{
		SalarySum:     sum,
		AvgDailyGross: generic.Round2(avg),
		Gross:         gross,
		Net:           Net(gross, ytd),
	}
}
