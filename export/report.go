/*
Package export renders a calculation result as a spreadsheet, CSV or PDF.

PURPOSE:
  A calculation is only useful once it can be handed to an employer or a
  court. Every format renders the same tables, built once here from the
  input and the result:

    Parameters    - the configuration and the totals
    Payments      - every event grouped by period month, with subtotals
    Compensation  - the key-rate segments of every compensated event
    Vacations     - vacation recalculations and unused-vacation compensation

KEY TYPES:
  - Report: input plus result, the thing being exported
  - table:  a titled grid of typed cells shared by all renderers

USAGE:
  rep := export.Report{Input: in, Result: res}
  err := rep.WriteXLSX(w)

SEE ALSO:
  - xlsx.go, csv.go, pdf.go: the renderers
  - payroll/types.go: Result
*/
package export

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/wage-arrears/generic"
	"github.com/warp/wage-arrears/payroll"
)

// Report is one calculation ready for export.
type Report struct {
	RunID  string
	Input  payroll.EmployeeInput
	Result *payroll.Result
}

// =============================================================================
// TABLE MODEL
// =============================================================================

// money is a two-place amount; rate is a daily rate shown to eight places.
type (
	money decimal.Decimal
	rate  decimal.Decimal
)

type row struct {
	cells []any
	total bool
}

type table struct {
	title  string
	header []string
	rows   []row
}

func (t *table) add(cells ...any) { t.rows = append(t.rows, row{cells: cells}) }

func (t *table) addTotal(cells ...any) { t.rows = append(t.rows, row{cells: cells, total: true}) }

// text renders a cell as it appears in CSV and PDF output.
func text(c any) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return fmt.Sprint(v)
	case money:
		return decimal.Decimal(v).StringFixed(2)
	case rate:
		return decimal.Decimal(v).StringFixed(8)
	case generic.TimePoint:
		if v.IsZero() {
			return ""
		}
		return v.String()
	}
	return fmt.Sprint(c)
}

// =============================================================================
// TABLES
// =============================================================================

func (r Report) tables() []table {
	out := []table{r.parameters(), r.payments(), r.compensation()}
	if v, ok := r.vacations(); ok {
		out = append(out, v)
	}
	return out
}

func (r Report) parameters() table {
	in, res := r.Input, r.Result
	t := table{title: "Parameters", header: []string{"Parameter", "Value"}}

	if r.RunID != "" {
		t.add("Run", r.RunID)
	}
	t.add("Monthly salary", money(in.MonthlySalary))
	t.add("Salary type", string(in.SalaryKind))
	t.add("Advance pay day", in.AdvanceDay)
	t.add("Settlement pay day", in.SettlementDay)
	if in.ProbationSalary.Valid {
		t.add("Probation salary", money(in.ProbationSalary.Decimal))
		t.add("Probation months", in.ProbationMonths)
	}
	t.add("Hire date", in.HireDate)
	if in.BaseSalaryNet.Valid {
		t.add("Base salary (net)", money(in.BaseSalaryNet.Decimal))
	}
	for _, rule := range in.IndexationRules {
		state := "not performed"
		if rule.IsPerformed {
			state = "performed"
		}
		t.add("Indexation "+rule.Date.String(), fmt.Sprintf("%s%% (%s)", rule.Percent.String(), state))
	}
	t.add("Calculation date", in.CalculationDate)
	t.add("Dismissal date", in.DismissalDate)
	if len(in.HolidayWorkDates) > 0 {
		days := make([]string, len(in.HolidayWorkDates))
		for i, d := range in.HolidayWorkDates {
			days[i] = d.String()
		}
		t.add("Holiday work", strings.Join(days, ", "))
		t.add("Holiday daily rate", string(in.HolidayRateMethod))
	}
	t.add("Window", res.Window.String())

	for _, p := range res.Preview {
		t.add("Indexed salary from "+p.Rule.Date.String()+" (gross)", money(p.Gross))
		t.add("Indexed salary from "+p.Rule.Date.String()+" (net)", money(p.Net))
	}

	tot := res.Totals
	t.addTotal("Underpayment", money(tot.Underpayment))
	t.addTotal("Compensation", money(tot.Compensation))
	t.addTotal("Total due", money(tot.Due))
	if len(res.Vacations) > 0 {
		t.addTotal("Vacation pay difference", money(tot.VacationDifference))
	}
	if res.Unused != nil {
		t.addTotal("Unused vacation difference", money(tot.UnusedDifference))
	}
	return t
}

var paymentHeader = []string{
	"Period", "Kind", "Payment date", "Gross paid", "NDFL", "Net paid",
	"Gross indexed", "Net indexed", "Underpayment", "Delay days", "Compensation",
}

func (r Report) payments() table {
	t := table{title: "Payments", header: paymentHeader}
	for _, g := range r.Result.Months {
		period := generic.YearMonth{Year: g.Year, Month: g.Month}.String()
		for _, ev := range g.Events {
			t.add(period, ev.Kind.String(), ev.PaymentDate,
				money(ev.GrossPaid), money(ev.NdflPaid()), money(ev.NetPaid),
				money(ev.GrossIndexed), money(ev.NetIndexed), money(ev.Underpayment),
				ev.DelayDays, money(ev.Compensation))
		}
		t.addTotal(period, "Month total", nil,
			money(g.GrossPaid), money(g.Ndfl), money(g.NetPaid),
			money(g.GrossIndexed), money(g.NetIndexed), money(g.Underpayment),
			nil, money(generic.Round2(g.Compensation)))
	}

	tot := r.Result.Totals
	t.addTotal("Total", "", nil,
		money(tot.GrossPaid), money(tot.GrossPaid.Sub(tot.NetPaid)), money(tot.NetPaid),
		money(tot.GrossIndexed), money(tot.NetIndexed), money(tot.Underpayment),
		nil, money(tot.Compensation))
	return t
}

func (r Report) compensation() table {
	t := table{
		title:  "Compensation",
		header: []string{"Period", "Kind", "Payment date", "Underpayment", "From", "To", "Days", "Key rate", "Daily rate", "Amount"},
	}
	for _, ev := range r.Result.Events {
		if len(ev.CompensationBreakdown) == 0 {
			continue
		}
		period := generic.YearMonth{Year: ev.Year, Month: ev.Month}.String()
		for _, seg := range ev.CompensationBreakdown {
			t.add(period, ev.Kind.String(), ev.PaymentDate, money(ev.Underpayment),
				seg.From, seg.To, seg.Days, money(seg.KeyRate), rate(seg.DailyRate), money(seg.Amount))
		}
	}
	t.addTotal("Total", "", nil, nil, nil, nil, nil, nil, nil, money(r.Result.Totals.Compensation))
	return t
}

func (r Report) vacations() (table, bool) {
	res := r.Result
	if len(res.Vacations) == 0 && res.Unused == nil {
		return table{}, false
	}

	t := table{
		title:  "Vacations",
		header: []string{"Item", "From", "To", "Days", "Months", "Salary sum", "Avg daily", "Gross", "Net", "Paid net", "Difference"},
	}
	for _, v := range res.Vacations {
		t.add("Vacation", v.Vacation.From, v.Vacation.To, v.Days, v.MonthsCounted,
			money(v.SalarySum), money(v.AvgDailyGross), money(v.CalculatedGross),
			money(v.CalculatedNet), money(v.PaidNet), money(v.Difference))
	}

	if u := res.Unused; u != nil {
		days := fmt.Sprintf("%d of %d", u.UnusedDays, u.EarnedDays)
		t.add("Unused (indexed)", u.Window.Start, u.Window.End, days, u.MonthsCounted,
			money(u.WithIndexation.SalarySum), money(u.WithIndexation.AvgDailyGross),
			money(u.WithIndexation.Gross), money(u.WithIndexation.Net), nil, nil)
		t.add("Unused (as paid)", u.Window.Start, u.Window.End, days, u.MonthsCounted,
			money(u.WithoutIndexation.SalarySum), money(u.WithoutIndexation.AvgDailyGross),
			money(u.WithoutIndexation.Gross), money(u.WithoutIndexation.Net), nil, nil)
		t.addTotal("Unused difference", nil, nil, nil, nil, nil, nil,
			money(u.DifferenceGross), money(u.DifferenceNet), nil, money(u.DifferenceNet))
	}
	return t, true
}
