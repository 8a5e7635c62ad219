/*
Package factory provides JSON to Go employee configuration conversion.

PURPOSE:
  Converts the JSON configuration document an accountant fills in into a
  payroll.EmployeeInput, and back. The document is the only input the
  engine needs besides reference data, so it is what the API accepts, what
  the CLI reads from disk and what "save configuration" writes.

JSON SCHEMA:
  {
    "salary": {
      "monthly_salary": "300000",
      "salary_type": "Net",
      "advance_pay_day": 20,
      "settlement_pay_day": 5,
      "probation_salary": null,
      "probation_period_months": null
    },
    "indexation": {
      "hire_date": "2024-07-22",
      "base_salary_net": null,
      "indexation_events": [
        {"date": "2025-03-01", "percent": "9.57", "is_performed": false}
      ]
    },
    "calculation": {
      "calculation_date": "2025-09-30",
      "compute_indexation_arrears": true,
      "compute_unused_vacation_compensation": false,
      "dismissal_date": null
    },
    "holiday_work": {"dates": ["2025-12-31"], "daily_rate_method": "monthly_work_days"},
    "sick_leaves": [{"from": "2025-04-28", "to": "2025-05-07", "amount": "25000"}],
    "vacations": []
  }

KEY FEATURES:
  - Money accepts JSON strings or numbers and is written back as strings
  - Structural rules (formats, ranges, enums) are struct tags checked by
    go-playground/validator; semantic rules run in payroll.Validate
  - Every failure is an InputInvalid error naming the JSON field path
  - Sets defaults: daily rate method, base indexation date

USAGE:
  f := factory.NewConfigFactory()
  in, err := f.Parse(data)
  res, err := payroll.Calculate(in, calendar, keyRates)

  data, err := f.Encode(in) // save

SEE ALSO:
  - payroll/types.go: EmployeeInput
  - payroll/validate.go: semantic validation
*/
package factory

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/warp/wage-arrears/generic"
	"github.com/warp/wage-arrears/payroll"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ConfigJSON is the JSON representation of an employee configuration.
type ConfigJSON struct {
	Salary      SalaryJSON      `json:"salary" validate:"required"`
	Indexation  IndexationJSON  `json:"indexation"`
	Calculation CalculationJSON `json:"calculation" validate:"required"`
	HolidayWork HolidayWorkJSON `json:"holiday_work"`
	SickLeaves  []LeaveJSON     `json:"sick_leaves" validate:"dive"`
	Vacations   []LeaveJSON     `json:"vacations" validate:"dive"`
}

// SalaryJSON is the contractual salary and pay days.
type SalaryJSON struct {
	MonthlySalary         decimal.Decimal     `json:"monthly_salary"`
	SalaryType            string              `json:"salary_type" validate:"required,oneof=Net Gross"`
	AdvancePayDay         int                 `json:"advance_pay_day" validate:"required,min=1,max=31"`
	SettlementPayDay      int                 `json:"settlement_pay_day" validate:"required,min=1,max=28"`
	ProbationSalary       decimal.NullDecimal `json:"probation_salary"`
	ProbationPeriodMonths *int                `json:"probation_period_months" validate:"omitempty,min=0"`
}

// IndexationJSON describes hire and indexation history.
type IndexationJSON struct {
	HireDate           string                `json:"hire_date" validate:"omitempty,datetime=2006-01-02"`
	BaseSalaryNet      decimal.NullDecimal   `json:"base_salary_net"`
	BaseIndexationDate string                `json:"base_indexation_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Events             []IndexationEventJSON `json:"indexation_events" validate:"dive"`
}

// IndexationEventJSON is one indexation rule.
type IndexationEventJSON struct {
	Date        string          `json:"date" validate:"required,datetime=2006-01-02"`
	Percent     decimal.Decimal `json:"percent"`
	IsPerformed bool            `json:"is_performed"`
}

// CalculationJSON holds the run date and switches.
type CalculationJSON struct {
	CalculationDate                   string `json:"calculation_date" validate:"required,datetime=2006-01-02"`
	ComputeIndexationArrears          bool   `json:"compute_indexation_arrears"`
	ComputeUnusedVacationCompensation bool   `json:"compute_unused_vacation_compensation"`
	DismissalDate                     string `json:"dismissal_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// HolidayWorkJSON lists public holidays worked.
type HolidayWorkJSON struct {
	Dates           []string `json:"dates" validate:"dive,datetime=2006-01-02"`
	DailyRateMethod string   `json:"daily_rate_method" validate:"omitempty,oneof=monthly_work_days avg_monthly_work_days_per_year"`
}

// LeaveJSON is a sick leave or vacation with the net amount paid for it.
type LeaveJSON struct {
	From   string          `json:"from" validate:"required,datetime=2006-01-02"`
	To     string          `json:"to" validate:"required,datetime=2006-01-02"`
	Amount decimal.Decimal `json:"amount"`
}

// =============================================================================
// CONFIG FACTORY
// =============================================================================

// ConfigFactory converts configuration documents to engine input. It is
// safe for concurrent use.
type ConfigFactory struct {
	validate *validator.Validate
}

// NewConfigFactory creates a factory whose validation errors are reported
// with JSON field names.
func NewConfigFactory() *ConfigFactory {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &ConfigFactory{validate: v}
}

// Parse decodes, validates and converts a configuration document.
func (f *ConfigFactory) Parse(data []byte) (payroll.EmployeeInput, error) {
	var cj ConfigJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return payroll.EmployeeInput{}, decodeError(err)
	}
	return f.FromJSON(cj)
}

// FromJSON validates and converts an already decoded document.
func (f *ConfigFactory) FromJSON(cj ConfigJSON) (payroll.EmployeeInput, error) {
	if err := f.validate.Struct(cj); err != nil {
		return payroll.EmployeeInput{}, validationError(err)
	}

	in := payroll.EmployeeInput{
		MonthlySalary:   cj.Salary.MonthlySalary,
		SalaryKind:      payroll.SalaryKind(cj.Salary.SalaryType),
		AdvanceDay:      cj.Salary.AdvancePayDay,
		SettlementDay:   cj.Salary.SettlementPayDay,
		ProbationSalary: cj.Salary.ProbationSalary,
		BaseSalaryNet:   cj.Indexation.BaseSalaryNet,
		Flags: payroll.Flags{
			ComputeIndexationArrears:          cj.Calculation.ComputeIndexationArrears,
			ComputeUnusedVacationCompensation: cj.Calculation.ComputeUnusedVacationCompensation,
		},
		HolidayRateMethod: payroll.DailyRateMethod(cj.HolidayWork.DailyRateMethod),
	}
	if cj.Salary.ProbationPeriodMonths != nil {
		in.ProbationMonths = *cj.Salary.ProbationPeriodMonths
	}
	if in.HolidayRateMethod == "" {
		in.HolidayRateMethod = payroll.RateMonthlyWorkDays
	}

	// Formats were checked by the validator; parse errors cannot happen here.
	in.HireDate = parseOptional(cj.Indexation.HireDate)
	in.BaseIndexationDate = parseOptional(cj.Indexation.BaseIndexationDate)
	if in.BaseIndexationDate.IsZero() {
		in.BaseIndexationDate = in.HireDate
	}
	in.CalculationDate = parseOptional(cj.Calculation.CalculationDate)
	in.DismissalDate = parseOptional(cj.Calculation.DismissalDate)

	for _, ej := range cj.Indexation.Events {
		in.IndexationRules = append(in.IndexationRules, payroll.IndexationRule{
			Date:        parseOptional(ej.Date),
			Percent:     ej.Percent,
			IsPerformed: ej.IsPerformed,
		})
	}
	for _, d := range cj.HolidayWork.Dates {
		in.HolidayWorkDates = append(in.HolidayWorkDates, parseOptional(d))
	}
	in.SickLeaves = leavesFromJSON(cj.SickLeaves)
	in.Vacations = leavesFromJSON(cj.Vacations)

	if err := payroll.Validate(in); err != nil {
		return payroll.EmployeeInput{}, err
	}
	return in, nil
}

// Encode writes an EmployeeInput as an indented configuration document.
func (f *ConfigFactory) Encode(in payroll.EmployeeInput) ([]byte, error) {
	return json.MarshalIndent(ToJSON(in), "", "  ")
}

// ToJSON converts engine input back to its document form.
func ToJSON(in payroll.EmployeeInput) ConfigJSON {
	cj := ConfigJSON{
		Salary: SalaryJSON{
			MonthlySalary:    in.MonthlySalary,
			SalaryType:       string(in.SalaryKind),
			AdvancePayDay:    in.AdvanceDay,
			SettlementPayDay: in.SettlementDay,
			ProbationSalary:  in.ProbationSalary,
		},
		Indexation: IndexationJSON{
			HireDate:      in.HireDate.String(),
			BaseSalaryNet: in.BaseSalaryNet,
			Events:        []IndexationEventJSON{},
		},
		Calculation: CalculationJSON{
			CalculationDate:                   in.CalculationDate.String(),
			ComputeIndexationArrears:          in.Flags.ComputeIndexationArrears,
			ComputeUnusedVacationCompensation: in.Flags.ComputeUnusedVacationCompensation,
			DismissalDate:                     in.DismissalDate.String(),
		},
		HolidayWork: HolidayWorkJSON{
			Dates:           []string{},
			DailyRateMethod: string(in.HolidayRateMethod),
		},
		SickLeaves: leavesToJSON(in.SickLeaves),
		Vacations:  leavesToJSON(in.Vacations),
	}
	if in.ProbationMonths > 0 {
		months := in.ProbationMonths
		cj.Salary.ProbationPeriodMonths = &months
	}
	if !in.BaseIndexationDate.Equal(in.HireDate) {
		cj.Indexation.BaseIndexationDate = in.BaseIndexationDate.String()
	}
	for _, r := range in.IndexationRules {
		cj.Indexation.Events = append(cj.Indexation.Events, IndexationEventJSON{
			Date:        r.Date.String(),
			Percent:     r.Percent,
			IsPerformed: r.IsPerformed,
		})
	}
	for _, d := range in.HolidayWorkDates {
		cj.HolidayWork.Dates = append(cj.HolidayWork.Dates, d.String())
	}
	return cj
}

// =============================================================================
// HELPERS
// =============================================================================

func parseOptional(s string) generic.TimePoint {
	if s == "" {
		return generic.TimePoint{}
	}
	d, _ := generic.ParseDate(s)
	return d
}

func leavesFromJSON(leaves []LeaveJSON) []payroll.LeavePeriod {
	var out []payroll.LeavePeriod
	for _, l := range leaves {
		out = append(out, payroll.LeavePeriod{
			From:   parseOptional(l.From),
			To:     parseOptional(l.To),
			Amount: l.Amount,
		})
	}
	return out
}

func leavesToJSON(leaves []payroll.LeavePeriod) []LeaveJSON {
	out := make([]LeaveJSON, 0, len(leaves))
	for _, l := range leaves {
		out = append(out, LeaveJSON{From: l.From.String(), To: l.To.String(), Amount: l.Amount})
	}
	return out
}

// validationError reports the first failed rule as InputInvalid, with the
// field path relative to the document root.
func validationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return generic.InvalidField("", "%v", err)
	}
	fe := ve[0]
	path := fe.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = path[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return generic.InvalidField(path, "is required")
	case "datetime":
		return generic.InvalidField(path, "must be a YYYY-MM-DD date, got %q", fe.Value())
	case "oneof":
		return generic.InvalidField(path, "must be one of %s, got %v", fe.Param(), fe.Value())
	case "min", "max":
		return generic.InvalidField(path, "must be %s %s, got %v", fe.Tag(), fe.Param(), fe.Value())
	}
	return generic.InvalidField(path, "failed %q validation", fe.Tag())
}

// decodeError turns a JSON syntax or type error into InputInvalid.
func decodeError(err error) error {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) && te.Field != "" {
		return generic.InvalidField(te.Field, "must be %s, got %s", te.Type, te.Value)
	}
	return generic.InvalidField("", "malformed configuration: %v", err)
}
