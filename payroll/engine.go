package payroll

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/wage-arrears/generic"
)

// =============================================================================
// ENGINE - One calculation, start to finish
// =============================================================================

// Engine runs calculations against loaded reference data. It holds no
// per-calculation state and may be shared.
type Engine struct {
	cal   generic.ProductionCalendar
	rates generic.KeyRateSchedule
}

func NewEngine(cal generic.ProductionCalendar, rates generic.KeyRateSchedule) *Engine {
	return &Engine{cal: cal, rates: rates}
}

// Calculate is NewEngine(cal, rates).Calculate(in).
func Calculate(in EmployeeInput, cal generic.ProductionCalendar, rates generic.KeyRateSchedule) (*Result, error) {
	return NewEngine(cal, rates).Calculate(in)
}

// Calculate validates the input and produces the full result. Any error
// aborts the run; there are no partial results.
func (e *Engine) Calculate(in EmployeeInput) (*Result, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	curve := NewSalaryCurve(in)
	builder := NewBuilder(in, e.cal, curve)

	fromYear, toYear := RequiredYears(in)
	if err := e.cal.EnsureLoaded(fromYear, toYear); err != nil {
		return nil, err
	}

	events, err := builder.Build()
	if err != nil {
		return nil, err
	}

	overlay := NewIndexationOverlay(curve)
	if in.Flags.ComputeIndexationArrears {
		if err := overlay.Apply(events); err != nil {
			return nil, err
		}
	} else {
		overlay.Skip(events)
	}

	if err := NewCompensationEngine(e.rates, in.CalculationDate).Apply(events); err != nil {
		return nil, err
	}

	vacations := NewVacationCalculator(in, curve)
	recalcs, err := vacations.Recalculate()
	if err != nil {
		return nil, err
	}
	var unused *UnusedVacation
	if in.Flags.ComputeUnusedVacationCompensation {
		if unused, err = vacations.Unused(); err != nil {
			return nil, err
		}
	}

	res := &Result{
		Window:    builder.Window(),
		Events:    events,
		Months:    GroupByMonth(events),
		Vacations: recalcs,
		Unused:    unused,
		Preview:   curve.Preview(),
	}
	res.Totals = computeTotals(res)
	return res, nil
}

// RequiredYears returns the calendar years a calculation reads: from the
// window start (or an earlier leave) through the calculation year.
func RequiredYears(in EmployeeInput) (int, int) {
	start := WindowStart(in, NewSalaryCurve(in))
	from := start.Year()
	// Early January pay days fall on the New Year holidays and move back
	// into December.
	if start.Month() == time.January {
		from--
	}
	for _, group := range [][]LeavePeriod{in.SickLeaves, in.Vacations} {
		for _, l := range group {
			if l.To.BeforeOrEqual(in.CalculationDate) && !l.To.IsZero() && l.To.Year() < from {
				from = l.To.Year()
			}
		}
	}
	return from, in.CalculationDate.Year()
}

// RequiredRateRange returns the span of key rates compensation may ask for.
func RequiredRateRange(in EmployeeInput) generic.Period {
	from, _ := RequiredYears(in)
	return generic.Period{Start: generic.StartOfYear(from), End: in.CalculationDate}
}

// GroupByMonth groups events by their period month, ordered by month.
func GroupByMonth(events []PaymentEvent) []MonthGroup {
	index := make(map[generic.YearMonth]int)
	var groups []MonthGroup
	for _, ev := range events {
		key := generic.YearMonth{Year: ev.Year, Month: ev.Month}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, MonthGroup{Year: ev.Year, Month: ev.Month})
		}
		g := &groups[i]
		g.Events = append(g.Events, ev)
		g.GrossPaid = g.GrossPaid.Add(ev.GrossPaid)
		g.NetPaid = g.NetPaid.Add(ev.NetPaid)
		g.Ndfl = g.Ndfl.Add(ev.NdflPaid())
		g.GrossIndexed = g.GrossIndexed.Add(ev.GrossIndexed)
		g.NetIndexed = g.NetIndexed.Add(ev.NetIndexed)
		g.Underpayment = g.Underpayment.Add(ev.Underpayment)
		g.Compensation = g.Compensation.Add(ev.Compensation)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		a := generic.YearMonth{Year: groups[i].Year, Month: groups[i].Month}
		b := generic.YearMonth{Year: groups[j].Year, Month: groups[j].Month}
		return a.Before(b)
	})
	return groups
}

func computeTotals(res *Result) Totals {
	var t Totals
	for _, ev := range res.Events {
		t.GrossPaid = t.GrossPaid.Add(ev.GrossPaid)
		t.NetPaid = t.NetPaid.Add(ev.NetPaid)
		t.GrossIndexed = t.GrossIndexed.Add(ev.GrossIndexed)
		t.NetIndexed = t.NetIndexed.Add(ev.NetIndexed)
		t.Underpayment = t.Underpayment.Add(ev.Underpayment)
		t.Compensation = t.Compensation.Add(ev.Compensation)
	}
	for _, v := range res.Vacations {
		t.VacationDifference = t.VacationDifference.Add(v.Difference)
	}
	if res.Unused != nil {
		t.UnusedDifference = res.Unused.DifferenceNet
	}
	t.Due = generic.Round2(t.Underpayment.Add(t.Compensation))
	t.Compensation = generic.Round2(t.Compensation)
	t.Underpayment = generic.Round2(t.Underpayment)
	return t
}

// Summary is a short digest of a result for logs and CLI output.
type Summary struct {
	Events       int
	Underpaid    int
	Underpayment decimal.Decimal
	Compensation decimal.Decimal
	Due          decimal.Decimal
}

func (r *Result) Summary() Summary {
	s := Summary{
		Events:       len(r.Events),
		Underpayment: r.Totals.Underpayment,
		Compensation: r.Totals.Compensation,
		Due:          r.Totals.Due,
	}
	for _, ev := range r.Events {
		if ev.Underpayment.IsPositive() {
			s.Underpaid++
		}
	}
	return s
}
