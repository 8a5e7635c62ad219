package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/wage-arrears/api"
	"github.com/warp/wage-arrears/generic"
	"github.com/warp/wage-arrears/generic/store"
	"github.com/warp/wage-arrears/source"
	"github.com/warp/wage-arrears/store/sqlite"
)

// =============================================================================
// TEST SERVER
// =============================================================================

type weekendCalendar struct{ fail bool }

func (c weekendCalendar) FetchYear(_ context.Context, year int) (generic.CalendarYear, error) {
	if c.fail {
		return generic.CalendarYear{}, errors.New("calendar service down")
	}
	return store.WeekendYear(year), nil
}

type fixedRates struct{}

func (fixedRates) FetchKeyRates(_ context.Context, _, _ generic.TimePoint) ([]generic.KeyRate, error) {
	return []generic.KeyRate{
		{EffectiveFrom: day("2024-10-28"), Rate: decimal.NewFromInt(21)},
		{EffectiveFrom: day("2025-06-09"), Rate: decimal.NewFromInt(20)},
	}, nil
}

func day(s string) generic.TimePoint {
	d, err := generic.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newServer(t *testing.T, cal source.CalendarFetcher) *httptest.Server {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	loader := source.NewLoader(db, cal, fixedRates{}, nil).
		WithClock(func() generic.TimePoint { return day("2026-10-01") })
	h := api.NewHandler(db, loader, nil)

	srv := httptest.NewServer(api.NewRouter(h, api.RouterOptions{}))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func post(t *testing.T, srv *httptest.Server, path string, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func scenarioConfig(t *testing.T, srv *httptest.Server, id string) []byte {
	t.Helper()
	var s api.ScenarioDTO
	require.Equal(t, http.StatusOK, get(t, srv, "/api/scenarios/"+id, &s))
	require.NotEmpty(t, s.Config)
	return s.Config
}

// =============================================================================
// CALCULATION TESTS
// =============================================================================

func TestCalculate_RecordsRun(t *testing.T) {
	// GIVEN: the missed-indexation sample configuration
	// WHEN: it is posted for calculation
	// THEN: the result shows arrears and the run is recorded with its config

	srv := newServer(t, weekendCalendar{})
	config := scenarioConfig(t, srv, "missed-indexation")

	resp := post(t, srv, "/api/calculate", config)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result api.CalculationResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.NotEmpty(t, result.RunID)
	assert.NotEmpty(t, result.Events)
	assert.NotEmpty(t, result.Months)
	assert.True(t, result.Totals.Underpayment.IsPositive())
	assert.True(t, result.Totals.Compensation.IsPositive())
	sum := result.Totals.Underpayment.Add(result.Totals.Compensation)
	assert.InDelta(t, sum.InexactFloat64(), result.Totals.Due.InexactFloat64(), 0.011)
	require.Len(t, result.IndexedSalary, 1)
	assert.Equal(t, day("2025-03-01"), result.IndexedSalary[0].Date)

	var runs []api.RunDTO
	require.Equal(t, http.StatusOK, get(t, srv, "/api/runs", &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, result.RunID, runs[0].ID)
	assert.Empty(t, runs[0].Config)

	var run api.RunDTO
	require.Equal(t, http.StatusOK, get(t, srv, "/api/runs/"+result.RunID, &run))
	assert.Equal(t, day("2025-06-30"), run.CalculationDate)
	assert.True(t, run.Due.Equal(result.Totals.Due))
	assert.JSONEq(t, string(config), string(run.Config))
}

func TestCalculate_AllScenarios(t *testing.T) {
	srv := newServer(t, weekendCalendar{})

	var list []api.ScenarioDTO
	require.Equal(t, http.StatusOK, get(t, srv, "/api/scenarios", &list))
	require.Len(t, list, 6)

	for _, s := range list {
		t.Run(s.ID, func(t *testing.T) {
			assert.Empty(t, s.Config)
			resp := post(t, srv, "/api/calculate", scenarioConfig(t, srv, s.ID))
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

func TestCalculate_Dismissal(t *testing.T) {
	srv := newServer(t, weekendCalendar{})

	resp := post(t, srv, "/api/calculate", scenarioConfig(t, srv, "dismissal"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result api.CalculationResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Len(t, result.Vacations, 1)
	assert.Equal(t, 14, result.Vacations[0].Days)
	require.NotNil(t, result.UnusedVacation)
	assert.Equal(t, 20, result.UnusedVacation.WorkMonths)
}

func TestCalculate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		cal    source.CalendarFetcher
		body   string
		status int
		kind   string
		field  string
	}{
		{
			name:   "invalid salary type",
			cal:    weekendCalendar{},
			body:   `{"salary": {"monthly_salary": 1, "salary_type": "net", "advance_pay_day": 20, "settlement_pay_day": 5}, "calculation": {"calculation_date": "2025-09-30"}}`,
			status: http.StatusBadRequest,
			kind:   "input_invalid",
			field:  "salary.salary_type",
		},
		{
			name:   "malformed",
			cal:    weekendCalendar{},
			body:   `{"salary":`,
			status: http.StatusBadRequest,
			kind:   "input_invalid",
		},
		{
			name:   "calendar unavailable",
			cal:    weekendCalendar{fail: true},
			body:   `{"salary": {"monthly_salary": 1000, "salary_type": "Gross", "advance_pay_day": 20, "settlement_pay_day": 5}, "indexation": {"hire_date": "2025-02-01"}, "calculation": {"calculation_date": "2025-09-30"}}`,
			status: http.StatusFailedDependency,
			kind:   "external_missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.cal)
			resp := post(t, srv, "/api/calculate", []byte(tt.body))
			assert.Equal(t, tt.status, resp.StatusCode)

			var e api.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.field, e.Field)
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestCalculate_Files(t *testing.T) {
	srv := newServer(t, weekendCalendar{})
	config := scenarioConfig(t, srv, "sick-leave")

	tests := []struct {
		path        string
		contentType string
		prefix      string
	}{
		{"/api/calculate/xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "PK"},
		{"/api/calculate/pdf", "application/pdf", "%PDF-"},
		{"/api/calculate/csv", "text/csv; charset=utf-8", "# Parameters"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := post(t, srv, tt.path, config)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
			assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
			assert.NotEmpty(t, resp.Header.Get("X-Run-ID"))

			var buf bytes.Buffer
			_, err := buf.ReadFrom(resp.Body)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(buf.String(), tt.prefix))
		})
	}
}

// =============================================================================
// REFERENCE DATA TESTS
// =============================================================================

func TestGetCalendar(t *testing.T) {
	srv := newServer(t, weekendCalendar{})

	var cal api.CalendarDTO
	require.Equal(t, http.StatusOK, get(t, srv, "/api/calendar/2025", &cal))
	assert.Equal(t, 2025, cal.Year)
	require.Len(t, cal.WorkingDays, 12)
	assert.Equal(t, 23, cal.WorkingDays[0])
	assert.Len(t, cal.NonWorkingDays, 104)

	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/calendar/abc", nil))
}

func TestGetCalendar_Unavailable(t *testing.T) {
	srv := newServer(t, weekendCalendar{fail: true})

	var e api.ErrorResponse
	assert.Equal(t, http.StatusFailedDependency, get(t, srv, "/api/calendar/2025", &e))
	assert.Equal(t, day("2025-01-01"), e.Date)
}

func TestGetKeyRates(t *testing.T) {
	srv := newServer(t, weekendCalendar{})

	var rates api.KeyRatesDTO
	require.Equal(t, http.StatusOK, get(t, srv, "/api/key-rates?from=2025-01-01&to=2025-12-31", &rates))
	require.Len(t, rates.Segments, 2)
	assert.Equal(t, day("2025-06-08"), rates.Segments[0].To)
	assert.True(t, rates.Segments[0].Rate.Equal(decimal.NewFromInt(21)))
	assert.Equal(t, 365, rates.Segments[0].Days+rates.Segments[1].Days)

	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/key-rates?from=2025-12-31&to=2025-01-01", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/key-rates?to=31.12.2025", nil))
}

// =============================================================================
// MISC TESTS
// =============================================================================

func TestHealthAndNotFound(t *testing.T) {
	srv := newServer(t, weekendCalendar{})

	var health map[string]string
	require.Equal(t, http.StatusOK, get(t, srv, "/api/health", &health))
	assert.Equal(t, "ok", health["status"])

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/api/runs/missing", nil))
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/api/scenarios/missing", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/runs?limit=0", nil))
}
