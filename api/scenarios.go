/*
scenarios.go - Sample configuration documents

PURPOSE:
  Provides ready-made configurations that exercise each part of the
  engine. A client fetches one, edits it, and posts it to /api/calculate.

AVAILABLE SCENARIOS:
  basic:              net salary, no indexation owed
  missed-indexation:  one missed 9.57% indexation
  probation-holidays: probation salary and New Year holiday work
  sick-leave:         a sick leave crossing a month boundary
  progressive-ndfl:   a salary that climbs through the 15% bracket
  dismissal:          dismissal with vacation recalculation and
                      unused-vacation compensation

ADDING NEW SCENARIOS:
  Add an entry to 'scenarios'. The scenario tests parse and calculate every
  entry, so a broken document fails the build.

SEE ALSO:
  - handlers.go: ListScenarios, GetScenario
  - factory/config.go: the document format
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "basic",
		Name:        "Basic",
		Description: "300 000 net a month with an advance on the 20th and settlement on the 5th",
		Config: json.RawMessage(`{
  "salary": {"monthly_salary": "300000", "salary_type": "Net", "advance_pay_day": 20, "settlement_pay_day": 5},
  "indexation": {"hire_date": "2024-07-22", "indexation_events": []},
  "calculation": {"calculation_date": "2025-02-10", "compute_indexation_arrears": true}
}`),
	},
	{
		ID:          "missed-indexation",
		Name:        "Missed Indexation",
		Description: "The 9.57% indexation of March 2025 was never applied",
		Config: json.RawMessage(`{
  "salary": {"monthly_salary": "300000", "salary_type": "Net", "advance_pay_day": 20, "settlement_pay_day": 5},
  "indexation": {
    "hire_date": "2024-07-22",
    "indexation_events": [{"date": "2025-03-01", "percent": "9.57", "is_performed": false}]
  },
  "calculation": {"calculation_date": "2025-06-30", "compute_indexation_arrears": true}
}`),
	},
	{
		ID:          "probation-holidays",
		Name:        "Probation and Holiday Work",
		Description: "Three months at a probation salary, then work on New Year holidays",
		Config: json.RawMessage(`{
  "salary": {
    "monthly_salary": "100000", "salary_type": "Gross", "advance_pay_day": 20, "settlement_pay_day": 5,
    "probation_salary": "80000", "probation_period_months": 3
  },
  "indexation": {"hire_date": "2025-09-01", "indexation_events": []},
  "calculation": {"calculation_date": "2026-02-10", "compute_indexation_arrears": true},
  "holiday_work": {"dates": ["2025-12-31", "2026-01-01", "2026-01-02"], "daily_rate_method": "monthly_work_days"}
}`),
	},
	{
		ID:          "sick-leave",
		Name:        "Sick Leave",
		Description: "Sick leave from April 28 to May 7 with a missed indexation in April",
		Config: json.RawMessage(`{
  "salary": {"monthly_salary": "100000", "salary_type": "Gross", "advance_pay_day": 20, "settlement_pay_day": 5},
  "indexation": {
    "hire_date": "2025-01-01",
    "indexation_events": [{"date": "2025-04-01", "percent": "5", "is_performed": false}]
  },
  "calculation": {"calculation_date": "2025-06-30", "compute_indexation_arrears": true},
  "sick_leaves": [{"from": "2025-04-28", "to": "2025-05-07", "amount": "25000"}]
}`),
	},
	{
		ID:          "progressive-ndfl",
		Name:        "Progressive NDFL",
		Description: "500 000 gross a month crosses the 2.4M bracket during the year",
		Config: json.RawMessage(`{
  "salary": {"monthly_salary": "500000", "salary_type": "Gross", "advance_pay_day": 20, "settlement_pay_day": 5},
  "indexation": {
    "hire_date": "2025-01-01",
    "indexation_events": [{"date": "2025-04-01", "percent": "10", "is_performed": false}]
  },
  "calculation": {"calculation_date": "2025-09-30", "compute_indexation_arrears": true}
}`),
	},
	{
		ID:          "dismissal",
		Name:        "Dismissal",
		Description: "Vacation in August 2025 and dismissal in March 2026 with unused vacation",
		Config: json.RawMessage(`{
  "salary": {"monthly_salary": "300000", "salary_type": "Net", "advance_pay_day": 20, "settlement_pay_day": 5},
  "indexation": {
    "hire_date": "2024-07-22",
    "indexation_events": [{"date": "2025-03-01", "percent": "9.57", "is_performed": false}]
  },
  "calculation": {
    "calculation_date": "2026-03-20", "dismissal_date": "2026-03-20",
    "compute_indexation_arrears": true, "compute_unused_vacation_compensation": true
  },
  "vacations": [{"from": "2025-08-04", "to": "2025-08-17", "amount": "40000"}]
}`),
	},
}

// ListScenarios returns the available scenarios without their documents.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	out := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		s.Config = nil
		out[i] = s
	}
	writeJSON(w, r, http.StatusOK, out)
}

// GetScenario returns one scenario with its configuration document.
func (h *Handler) GetScenario(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, s := range scenarios {
		if s.ID == id {
			writeJSON(w, r, http.StatusOK, s)
			return
		}
	}
	writeError(w, r, http.StatusNotFound, "Scenario not found", nil)
}
