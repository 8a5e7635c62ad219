package payroll_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/wage-arrears/payroll"
)

// =============================================================================
// SALARY CURVE TESTS
// =============================================================================

func grossInput() payroll.EmployeeInput {
	in := baseInput()
	in.MonthlySalary = dec("100000")
	in.SalaryKind = payroll.SalaryGross
	return in
}

func TestSalaryCurve_ProbationSalary(t *testing.T) {
	// GIVEN: hired 2025-01-15 with 3 months at 80 000
	// WHEN: asking the contractual salary around the probation end
	// THEN: 80 000 until 2025-04-14, 100 000 from 2025-04-15

	in := grossInput()
	in.HireDate = date("2025-01-15")
	in.ProbationMonths = 3
	in.ProbationSalary = decimal.NewNullDecimal(dec("80000"))
	curve := payroll.NewSalaryCurve(in)

	assertDecimal(t, "100000", curve.Contractual(date("2025-01-14")))
	assertDecimal(t, "80000", curve.Contractual(date("2025-01-15")))
	assertDecimal(t, "80000", curve.Contractual(date("2025-04-14")))
	assertDecimal(t, "100000", curve.Contractual(date("2025-04-15")))
}

func TestSalaryCurve_ProbationEndClampsToMonthEnd(t *testing.T) {
	in := grossInput()
	in.HireDate = date("2025-11-30")
	in.ProbationMonths = 3
	in.ProbationSalary = decimal.NewNullDecimal(dec("80000"))
	curve := payroll.NewSalaryCurve(in)

	assert.True(t, curve.InProbation(date("2026-02-27")))
	assert.False(t, curve.InProbation(date("2026-02-28")))
}

func TestSalaryCurve_ProbationSalaryDeclaredNet(t *testing.T) {
	in := baseInput()
	in.ProbationMonths = 2
	in.ProbationSalary = decimal.NewNullDecimal(dec("87000"))
	curve := payroll.NewSalaryCurve(in)

	assertDecimal(t, "100000", curve.Contractual(date("2024-08-01")))
	assertDecimal(t, "344827.59", curve.Contractual(date("2024-10-01")))
}

func TestSalaryCurve_IndexedAppliesOnlyUnperformedRules(t *testing.T) {
	// GIVEN: +10% (missed), +5% (performed), +5% (missed)
	// WHEN: asking the indexed salary through the year
	// THEN: only the missed rules compound

	in := grossInput()
	in.IndexationRules = []payroll.IndexationRule{
		{Date: date("2025-09-01"), Percent: dec("5")},
		{Date: date("2025-06-01"), Percent: dec("5"), IsPerformed: true},
		{Date: date("2025-03-01"), Percent: dec("10")},
	}
	curve := payroll.NewSalaryCurve(in)

	first, ok := curve.FirstUnperformed()
	require.True(t, ok)
	assert.Equal(t, date("2025-03-01"), first)

	assertDecimal(t, "100000", curve.Indexed(date("2025-02-15")))
	assertDecimal(t, "110000", curve.Indexed(date("2025-03-01")))
	assertDecimal(t, "110000", curve.Indexed(date("2025-07-15")))
	assertDecimal(t, "115500", curve.Indexed(date("2025-09-15")))
	assertDecimal(t, "1.155", curve.Factor(date("2025-12-31")))

	// Contractual salary never moves
	assertDecimal(t, "100000", curve.Contractual(date("2025-09-15")))
}

func TestSalaryCurve_IndexedFromBaseSalary(t *testing.T) {
	// GIVEN: base salary 87 000 net before indexation, declared 95 700 net
	// WHEN: a missed 10% indexation applies
	// THEN: the base is converted to gross and indexed, ignoring the declared salary

	in := baseInput()
	in.MonthlySalary = dec("95700")
	in.BaseSalaryNet = decimal.NewNullDecimal(dec("87000"))
	in.IndexationRules = []payroll.IndexationRule{{Date: date("2025-03-01"), Percent: dec("10")}}
	curve := payroll.NewSalaryCurve(in)

	assertDecimal(t, "110000", curve.Contractual(date("2025-03-15")))
	assertDecimal(t, "110000", curve.Indexed(date("2025-03-15")))
	assertDecimal(t, "110000", curve.Indexed(date("2025-02-15")))
}

func TestSalaryCurve_NoUnperformedRules(t *testing.T) {
	in := grossInput()
	in.IndexationRules = []payroll.IndexationRule{{Date: date("2025-03-01"), Percent: dec("10"), IsPerformed: true}}
	curve := payroll.NewSalaryCurve(in)

	_, ok := curve.FirstUnperformed()
	assert.False(t, ok)
	assertDecimal(t, "100000", curve.Indexed(date("2025-12-15")))
	assert.Empty(t, curve.Preview())
}

func TestSalaryCurve_Preview(t *testing.T) {
	in := grossInput()
	in.IndexationRules = missedIndexation()
	curve := payroll.NewSalaryCurve(in)

	preview := curve.Preview()
	require.Len(t, preview, 1)
	assertDecimal(t, "109570", preview[0].Gross)
	assertDecimal(t, "95325.9", preview[0].Net)
}
