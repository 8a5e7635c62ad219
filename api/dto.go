/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's result model from the external API contract. Money is
  serialized as decimal strings ("1234.56"), dates as "YYYY-MM-DD".

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Response: Top-level response wrappers

TYPES:
  Calculation:
    CalculationResponse, PaymentEventDTO, CompensationSegmentDTO,
    MonthGroupDTO, VacationRecalcDTO, UnusedVacationDTO, TotalsDTO

  Reference data:
    CalendarDTO, KeyRatesDTO

  Runs:
    RunDTO

  Scenarios:
    ScenarioDTO

VALIDATION:
  Requests are configuration documents; they are validated by
  factory.ConfigFactory, not here.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/config.go: the request document
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/wage-arrears/generic"
	"github.com/warp/wage-arrears/payroll"
	"github.com/warp/wage-arrears/store/sqlite"
)

// =============================================================================
// CALCULATION
// =============================================================================

// CalculationResponse is the result of POST /api/calculate.
type CalculationResponse struct {
	RunID          string              `json:"run_id"`
	Window         PeriodDTO           `json:"window"`
	Events         []PaymentEventDTO   `json:"events"`
	Months         []MonthGroupDTO     `json:"months"`
	Vacations      []VacationRecalcDTO `json:"vacations,omitempty"`
	UnusedVacation *UnusedVacationDTO  `json:"unused_vacation,omitempty"`
	IndexedSalary  []IndexedSalaryDTO  `json:"indexed_salary,omitempty"`
	Totals         TotalsDTO           `json:"totals"`
}

// PeriodDTO is an inclusive date range.
type PeriodDTO struct {
	From generic.TimePoint `json:"from"`
	To   generic.TimePoint `json:"to"`
}

// PaymentEventDTO is one payment as paid and as indexed.
type PaymentEventDTO struct {
	Period       string                   `json:"period"`
	Kind         string                   `json:"kind"`
	PaymentDate  generic.TimePoint        `json:"payment_date"`
	Covers       PeriodDTO                `json:"covers"`
	GrossPaid    decimal.Decimal          `json:"gross_paid"`
	NdflPaid     decimal.Decimal          `json:"ndfl_paid"`
	NetPaid      decimal.Decimal          `json:"net_paid"`
	GrossIndexed decimal.Decimal          `json:"gross_indexed"`
	NetIndexed   decimal.Decimal          `json:"net_indexed"`
	Underpayment decimal.Decimal          `json:"underpayment"`
	DelayDays    int                      `json:"delay_days"`
	Compensation decimal.Decimal          `json:"compensation"`
	Breakdown    []CompensationSegmentDTO `json:"compensation_breakdown,omitempty"`
	State        string                   `json:"state"`
}

// CompensationSegmentDTO is one constant-rate run of a delay.
type CompensationSegmentDTO struct {
	From      generic.TimePoint `json:"from"`
	To        generic.TimePoint `json:"to"`
	Days      int               `json:"days"`
	KeyRate   decimal.Decimal   `json:"key_rate"`
	DailyRate decimal.Decimal   `json:"daily_rate"`
	Amount    decimal.Decimal   `json:"amount"`
}

// MonthGroupDTO sums the events of one period month.
type MonthGroupDTO struct {
	Period       string          `json:"period"`
	Events       int             `json:"events"`
	GrossPaid    decimal.Decimal `json:"gross_paid"`
	NetPaid      decimal.Decimal `json:"net_paid"`
	Ndfl         decimal.Decimal `json:"ndfl"`
	GrossIndexed decimal.Decimal `json:"gross_indexed"`
	NetIndexed   decimal.Decimal `json:"net_indexed"`
	Underpayment decimal.Decimal `json:"underpayment"`
	Compensation decimal.Decimal `json:"compensation"`
}

// VacationRecalcDTO compares paid and recalculated vacation pay.
type VacationRecalcDTO struct {
	Vacation        PeriodDTO       `json:"vacation"`
	Days            int             `json:"days"`
	Window          PeriodDTO       `json:"window"`
	MonthsCounted   int             `json:"months_counted"`
	SalarySum       decimal.Decimal `json:"salary_sum"`
	AvgDailyGross   decimal.Decimal `json:"avg_daily_gross"`
	CalculatedGross decimal.Decimal `json:"calculated_gross"`
	CalculatedNet   decimal.Decimal `json:"calculated_net"`
	PaidNet         decimal.Decimal `json:"paid_net"`
	Difference      decimal.Decimal `json:"difference"`
}

// CompensationVariantDTO is unused-vacation compensation under one curve.
type CompensationVariantDTO struct {
	SalarySum     decimal.Decimal `json:"salary_sum"`
	AvgDailyGross decimal.Decimal `json:"avg_daily_gross"`
	Gross         decimal.Decimal `json:"gross"`
	Net           decimal.Decimal `json:"net"`
}

// UnusedVacationDTO is the dismissal compensation block.
type UnusedVacationDTO struct {
	WorkMonths        int                    `json:"work_months"`
	EarnedDays        int                    `json:"earned_days"`
	UsedDays          int                    `json:"used_days"`
	UnusedDays        int                    `json:"unused_days"`
	Window            PeriodDTO              `json:"window"`
	MonthsCounted     int                    `json:"months_counted"`
	WithIndexation    CompensationVariantDTO `json:"with_indexation"`
	WithoutIndexation CompensationVariantDTO `json:"without_indexation"`
	DifferenceGross   decimal.Decimal        `json:"difference_gross"`
	DifferenceNet     decimal.Decimal        `json:"difference_net"`
}

// IndexedSalaryDTO previews the salary after an unperformed rule.
type IndexedSalaryDTO struct {
	Date    generic.TimePoint `json:"date"`
	Percent decimal.Decimal   `json:"percent"`
	Gross   decimal.Decimal   `json:"gross"`
	Net     decimal.Decimal   `json:"net"`
}

// TotalsDTO sums the calculation.
type TotalsDTO struct {
	GrossPaid          decimal.Decimal `json:"gross_paid"`
	NetPaid            decimal.Decimal `json:"net_paid"`
	GrossIndexed       decimal.Decimal `json:"gross_indexed"`
	NetIndexed         decimal.Decimal `json:"net_indexed"`
	Underpayment       decimal.Decimal `json:"underpayment"`
	Compensation       decimal.Decimal `json:"compensation"`
	VacationDifference decimal.Decimal `json:"vacation_difference"`
	UnusedDifference   decimal.Decimal `json:"unused_vacation_difference"`
	Due                decimal.Decimal `json:"due"`
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

// CalendarDTO is one production-calendar year.
type CalendarDTO struct {
	Year               int                 `json:"year"`
	NonWorkingDays     []generic.TimePoint `json:"non_working_days"`
	WorkingDays        []int               `json:"working_days_by_month"`
	AvgMonthlyWorkDays decimal.Decimal     `json:"avg_monthly_work_days"`
}

// KeyRateSegmentDTO is a run of days at one key rate.
type KeyRateSegmentDTO struct {
	From generic.TimePoint `json:"from"`
	To   generic.TimePoint `json:"to"`
	Days int               `json:"days"`
	Rate decimal.Decimal   `json:"rate"`
}

// KeyRatesDTO is the key-rate schedule over a range.
type KeyRatesDTO struct {
	From     generic.TimePoint   `json:"from"`
	To       generic.TimePoint   `json:"to"`
	Segments []KeyRateSegmentDTO `json:"segments"`
}

// =============================================================================
// RUNS AND SCENARIOS
// =============================================================================

// RunDTO is a stored calculation run.
type RunDTO struct {
	ID              string            `json:"id"`
	CalculationDate generic.TimePoint `json:"calculation_date"`
	Underpayment    decimal.Decimal   `json:"underpayment"`
	Compensation    decimal.Decimal   `json:"compensation"`
	Due             decimal.Decimal   `json:"due"`
	CreatedAt       string            `json:"created_at"`
	Config          json.RawMessage   `json:"config,omitempty"`
}

// ScenarioDTO describes a sample configuration.
type ScenarioDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Kind    string            `json:"kind,omitempty"`
	Field   string            `json:"field,omitempty"`
	Date    generic.TimePoint `json:"date,omitzero"`
	Details string            `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func periodDTO(p generic.Period) PeriodDTO { return PeriodDTO{From: p.Start, To: p.End} }

func toCalculationResponse(runID string, res *payroll.Result) CalculationResponse {
	resp := CalculationResponse{
		RunID:  runID,
		Window: periodDTO(res.Window),
		Events: make([]PaymentEventDTO, len(res.Events)),
		Months: make([]MonthGroupDTO, len(res.Months)),
		Totals: TotalsDTO{
			GrossPaid:          res.Totals.GrossPaid,
			NetPaid:            res.Totals.NetPaid,
			GrossIndexed:       res.Totals.GrossIndexed,
			NetIndexed:         res.Totals.NetIndexed,
			Underpayment:       res.Totals.Underpayment,
			Compensation:       res.Totals.Compensation,
			VacationDifference: res.Totals.VacationDifference,
			UnusedDifference:   res.Totals.UnusedDifference,
			Due:                res.Totals.Due,
		},
	}

	for i, ev := range res.Events {
		resp.Events[i] = toPaymentEventDTO(ev)
	}
	for i, g := range res.Months {
		resp.Months[i] = MonthGroupDTO{
			Period:       generic.YearMonth{Year: g.Year, Month: g.Month}.String(),
			Events:       len(g.Events),
			GrossPaid:    g.GrossPaid,
			NetPaid:      g.NetPaid,
			Ndfl:         g.Ndfl,
			GrossIndexed: g.GrossIndexed,
			NetIndexed:   g.NetIndexed,
			Underpayment: g.Underpayment,
			Compensation: generic.Round2(g.Compensation),
		}
	}
	for _, v := range res.Vacations {
		resp.Vacations = append(resp.Vacations, VacationRecalcDTO{
			Vacation:        periodDTO(v.Vacation.Period()),
			Days:            v.Days,
			Window:          periodDTO(v.Window),
			MonthsCounted:   v.MonthsCounted,
			SalarySum:       v.SalarySum,
			AvgDailyGross:   v.AvgDailyGross,
			CalculatedGross: v.CalculatedGross,
			CalculatedNet:   v.CalculatedNet,
			PaidNet:         v.PaidNet,
			Difference:      v.Difference,
		})
	}
	if u := res.Unused; u != nil {
		resp.UnusedVacation = &UnusedVacationDTO{
			WorkMonths:        u.WorkMonths,
			EarnedDays:        u.EarnedDays,
			UsedDays:          u.UsedDays,
			UnusedDays:        u.UnusedDays,
			Window:            periodDTO(u.Window),
			MonthsCounted:     u.MonthsCounted,
			WithIndexation:    CompensationVariantDTO(u.WithIndexation),
			WithoutIndexation: CompensationVariantDTO(u.WithoutIndexation),
			DifferenceGross:   u.DifferenceGross,
			DifferenceNet:     u.DifferenceNet,
		}
	}
	for _, p := range res.Preview {
		resp.IndexedSalary = append(resp.IndexedSalary, IndexedSalaryDTO{
			Date:    p.Rule.Date,
			Percent: p.Rule.Percent,
			Gross:   p.Gross,
			Net:     p.Net,
		})
	}
	return resp
}

func toPaymentEventDTO(ev payroll.PaymentEvent) PaymentEventDTO {
	dto := PaymentEventDTO{
		Period:       generic.YearMonth{Year: ev.Year, Month: ev.Month}.String(),
		Kind:         ev.Kind.String(),
		PaymentDate:  ev.PaymentDate,
		Covers:       periodDTO(ev.Covers),
		GrossPaid:    ev.GrossPaid,
		NdflPaid:     ev.NdflPaid(),
		NetPaid:      ev.NetPaid,
		GrossIndexed: ev.GrossIndexed,
		NetIndexed:   ev.NetIndexed,
		Underpayment: ev.Underpayment,
		DelayDays:    ev.DelayDays,
		Compensation: ev.Compensation,
		State:        ev.State.String(),
	}
	for _, seg := range ev.CompensationBreakdown {
		dto.Breakdown = append(dto.Breakdown, CompensationSegmentDTO(seg))
	}
	return dto
}

func toRunDTO(run sqlite.RunRecord, withConfig bool) RunDTO {
	dto := RunDTO{
		ID:              run.ID,
		CalculationDate: run.CalculationDate,
		Underpayment:    run.Underpayment,
		Compensation:    run.Compensation,
		Due:             run.Due,
		CreatedAt:       run.CreatedAt.UTC().Format(time.RFC3339),
	}
	if withConfig && json.Valid([]byte(run.ConfigJSON)) {
		dto.Config = json.RawMessage(run.ConfigJSON)
	}
	return dto
}
