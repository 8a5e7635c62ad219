package payroll

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/wage-arrears/generic"
)

// =============================================================================
// SALARY CURVE - Monthly gross as paid and as it should have been
// =============================================================================

// SalaryCurve answers "what was the monthly gross on date D" under two
// curves: the contractual one actually paid, and the indexed one that
// applies every indexation rule that was never performed.
type SalaryCurve struct {
	in          EmployeeInput
	unperformed []IndexationRule
}

func NewSalaryCurve(in EmployeeInput) *SalaryCurve {
	var rules []IndexationRule
	for _, r := range in.IndexationRules {
		if !r.IsPerformed {
			rules = append(rules, r)
		}
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Date.Before(rules[j].Date) })
	return &SalaryCurve{in: in, unperformed: rules}
}

// Unperformed returns the rules that were not performed, by date.
func (c *SalaryCurve) Unperformed() []IndexationRule {
	return append([]IndexationRule(nil), c.unperformed...)
}

// FirstUnperformed returns the date of the earliest unperformed rule.
func (c *SalaryCurve) FirstUnperformed() (generic.TimePoint, bool) {
	if len(c.unperformed) == 0 {
		return generic.TimePoint{}, false
	}
	return c.unperformed[0].Date, true
}

// InProbation reports whether d falls in [hire, hire + probation months).
func (c *SalaryCurve) InProbation(d generic.TimePoint) bool {
	if !c.in.HasHireDate() || c.in.ProbationMonths <= 0 {
		return false
	}
	end := c.in.HireDate.AddMonths(c.in.ProbationMonths)
	return c.in.HireDate.BeforeOrEqual(d) && d.Before(end)
}

// DeclaredGross is the declared monthly salary converted to gross.
func (c *SalaryCurve) DeclaredGross() decimal.Decimal {
	return DeclaredToGross(c.in.MonthlySalary, c.in.SalaryKind)
}

// Contractual returns the monthly gross actually owed under the contract on d.
func (c *SalaryCurve) Contractual(d generic.TimePoint) decimal.Decimal {
	if c.InProbation(d) && c.in.ProbationSalary.Valid {
		return DeclaredToGross(c.in.ProbationSalary.Decimal, c.in.SalaryKind)
	}
	return c.DeclaredGross()
}

// Factor is the product of (1 + p/100) over unperformed rules dated <= d.
func (c *SalaryCurve) Factor(d generic.TimePoint) decimal.Decimal {
	f := decimal.NewFromInt(1)
	for _, r := range c.unperformed {
		if r.Date.After(d) {
			break
		}
		f = f.Mul(r.Factor())
	}
	return f
}

// IndexedExact is Indexed before the final rounding.
func (c *SalaryCurve) IndexedExact(d generic.TimePoint) decimal.Decimal {
	first, ok := c.FirstUnperformed()
	if !ok || d.Before(first) {
		return c.Contractual(d)
	}
	base := c.Contractual(d)
	if b, ok := c.BaseGross(); ok && !c.InProbation(d) {
		base = b
	}
	return base.Mul(c.Factor(d))
}

// BaseGross returns the explicit pre-indexation salary converted to gross.
func (c *SalaryCurve) BaseGross() (decimal.Decimal, bool) {
	if !c.in.BaseSalaryNet.Valid {
		return decimal.Zero, false
	}
	return DeclaredToGross(c.in.BaseSalaryNet.Decimal, c.in.SalaryKind), true
}

// Indexed returns the monthly gross the employee should have had on d.
func (c *SalaryCurve) Indexed(d generic.TimePoint) decimal.Decimal {
	return generic.Round2(c.IndexedExact(d))
}

// Preview lists the indexed salary right after each unperformed rule, with
// the net estimated at the declared 0.87 factor.
func (c *SalaryCurve) Preview() []IndexedSalary {
	out := make([]IndexedSalary, 0, len(c.unperformed))
	for _, r := range c.unperformed {
		gross := c.Indexed(r.Date)
		out = append(out, IndexedSalary{
			Rule:  r,
			Gross: gross,
			Net:   generic.Round2(gross.Mul(DeclaredNetFactor)),
		})
	}
	return out
}
