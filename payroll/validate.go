package payroll

import (
	"fmt"

	"github.com/warp/wage-arrears/generic"
)

// =============================================================================
// VALIDATION - Input rules checked before anything is computed
// =============================================================================

// Validate returns the first rule the input breaks as an InputInvalid error
// naming the configuration field, or nil.
func Validate(in EmployeeInput) error {
	if !in.MonthlySalary.IsPositive() {
		return generic.InvalidField("salary.monthly_salary", "must be greater than zero, got %s", in.MonthlySalary)
	}
	if in.SalaryKind != SalaryNet && in.SalaryKind != SalaryGross {
		return generic.InvalidField("salary.salary_type", "must be Net or Gross, got %q", in.SalaryKind)
	}
	if in.AdvanceDay < 1 || in.AdvanceDay > 31 {
		return generic.InvalidField("salary.advance_pay_day", "must be within 1..31, got %d", in.AdvanceDay)
	}
	// The settlement day must exist in every month.
	if in.SettlementDay < 1 || in.SettlementDay > 28 {
		return generic.InvalidField("salary.settlement_pay_day", "must be within 1..28, got %d", in.SettlementDay)
	}
	if in.ProbationMonths < 0 {
		return generic.InvalidField("salary.probation_period_months", "must not be negative, got %d", in.ProbationMonths)
	}
	if in.ProbationSalary.Valid && !in.ProbationSalary.Decimal.IsPositive() {
		return generic.InvalidField("salary.probation_salary", "must be greater than zero, got %s", in.ProbationSalary.Decimal)
	}
	if in.BaseSalaryNet.Valid && !in.BaseSalaryNet.Decimal.IsPositive() {
		return generic.InvalidField("indexation.base_salary_net", "must be greater than zero, got %s", in.BaseSalaryNet.Decimal)
	}

	if in.CalculationDate.IsZero() {
		return generic.InvalidField("calculation.calculation_date", "is required")
	}
	if in.HasHireDate() && in.HireDate.After(in.CalculationDate) {
		return generic.InvalidField("indexation.hire_date", "%s is after the calculation date %s", in.HireDate, in.CalculationDate)
	}

	if err := validateRules(in.IndexationRules); err != nil {
		return err
	}
	if err := validateLeaves("sick_leaves", in.SickLeaves); err != nil {
		return err
	}
	if err := validateLeaves("vacations", in.Vacations); err != nil {
		return err
	}

	switch in.HolidayRateMethod {
	case "", RateMonthlyWorkDays, RateAvgMonthlyWorkDays:
	default:
		return generic.InvalidField("holiday_work.daily_rate_method", "unknown method %q", in.HolidayRateMethod)
	}
	seen := make(map[generic.TimePoint]bool, len(in.HolidayWorkDates))
	for i, d := range in.HolidayWorkDates {
		field := fmt.Sprintf("holiday_work.dates[%d]", i)
		if d.IsZero() {
			return generic.InvalidField(field, "is required")
		}
		if seen[d] {
			return generic.InvalidField(field, "duplicate date %s", d)
		}
		seen[d] = true
	}
	return nil
}

// validateRules requires distinct dates, so that sorted by date the rules
// are strictly increasing.
func validateRules(rules []IndexationRule) error {
	seen := make(map[generic.TimePoint]bool, len(rules))
	for i, r := range rules {
		field := fmt.Sprintf("indexation.indexation_events[%d]", i)
		if r.Date.IsZero() {
			return generic.InvalidField(field+".date", "is required")
		}
		if r.Percent.IsNegative() {
			return generic.InvalidField(field+".percent", "must not be negative, got %s", r.Percent)
		}
		if seen[r.Date] {
			return generic.InvalidField(field+".date", "duplicate indexation date %s", r.Date)
		}
		seen[r.Date] = true
	}
	return nil
}

func validateLeaves(section string, leaves []LeavePeriod) error {
	for i, l := range leaves {
		field := fmt.Sprintf("%s[%d]", section, i)
		if l.From.IsZero() {
			return generic.InvalidField(field+".from", "is required")
		}
		if l.To.IsZero() {
			return generic.InvalidField(field+".to", "is required")
		}
		if l.To.Before(l.From) {
			return generic.InvalidField(field+".to", "%s is before %s", l.To, l.From)
		}
		if l.Amount.IsNegative() {
			return generic.InvalidField(field+".amount", "must not be negative, got %s", l.Amount)
		}
	}
	return nil
}
