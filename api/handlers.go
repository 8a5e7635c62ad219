/*
handlers.go - HTTP API handlers for the arrears engine

PURPOSE:
  Exposes the calculation engine via REST API. Handles HTTP request/response,
  JSON serialization, reference-data loading, and delegates to payroll.

ENDPOINTS:
  Calculation (body: configuration document):
    POST   /api/calculate              Result as JSON
    POST   /api/calculate/xlsx         Result as a workbook
    POST   /api/calculate/csv          Result as ";"-separated sections
    POST   /api/calculate/pdf          Arrears statement

  Reference data:
    GET    /api/calendar/{year}        Production calendar of a year
    GET    /api/key-rates?from=&to=    Key-rate segments over a range

  Runs:
    GET    /api/runs                   Recent calculations
    GET    /api/runs/{id}              One calculation with its configuration

  Scenarios:
    GET    /api/scenarios              Sample configurations
    GET    /api/scenarios/{id}         One sample configuration

  GET    /api/health

REQUEST FLOW:
  1. Parse and validate the configuration (factory)
  2. Load the calendar years and key rates it needs (source.Loader)
  3. Calculate (payroll)
  4. Record the run (sqlite)
  5. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with a status derived from the error kind:
  - 400: InputInvalid (field path in "field")
  - 422: NumericDomain
  - 424: ExternalMissing (the uncovered date in "date")
  - 404: Run or scenario not found
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Sample configurations
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/wage-arrears/export"
	"github.com/warp/wage-arrears/factory"
	"github.com/warp/wage-arrears/generic"
	"github.com/warp/wage-arrears/payroll"
	"github.com/warp/wage-arrears/source"
	"github.com/warp/wage-arrears/store/sqlite"
)

// maxConfigBytes caps a configuration document.
const maxConfigBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Loader  *source.Loader
	Factory *factory.ConfigFactory

	log *zap.Logger
	now func() time.Time
}

// NewHandler creates a handler. A nil logger disables logging.
func NewHandler(store *sqlite.Store, loader *source.Loader, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Store:   store,
		Loader:  loader,
		Factory: factory.NewConfigFactory(),
		log:     log,
		now:     time.Now,
	}
}

// =============================================================================
// CALCULATION HANDLERS
// =============================================================================

// calculation is one finished run.
type calculation struct {
	runID string
	input payroll.EmployeeInput
	res   *payroll.Result
}

// calculate runs the whole request flow; on failure it has already written
// the error response.
func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) (*calculation, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxConfigBytes+1))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Failed to read request body", err)
		return nil, false
	}
	if len(body) > maxConfigBytes {
		writeError(w, r, http.StatusRequestEntityTooLarge, "Configuration too large", nil)
		return nil, false
	}

	in, err := h.Factory.Parse(body)
	if err != nil {
		writeEngineError(w, r, err)
		return nil, false
	}

	cal, rates, err := h.Loader.Load(r.Context(), in)
	if err != nil {
		h.log.Warn("reference data unavailable", zap.Error(err))
		writeEngineError(w, r, err)
		return nil, false
	}

	res, err := payroll.Calculate(in, cal, rates)
	if err != nil {
		writeEngineError(w, r, err)
		return nil, false
	}

	calc := &calculation{runID: uuid.NewString(), input: in, res: res}
	h.recordRun(r.Context(), calc, body)

	sum := res.Summary()
	h.log.Info("calculation finished",
		zap.String("run_id", calc.runID),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Int("events", sum.Events),
		zap.Int("underpaid", sum.Underpaid),
		zap.String("due", sum.Due.StringFixed(2)),
	)
	return calc, true
}

// recordRun stores the run. A failed write is logged; the caller still gets
// the result.
func (h *Handler) recordRun(ctx context.Context, calc *calculation, config []byte) {
	if h.Store == nil {
		return
	}
	err := h.Store.SaveRun(ctx, sqlite.RunRecord{
		ID:              calc.runID,
		CalculationDate: calc.input.CalculationDate,
		ConfigJSON:      string(config),
		Underpayment:    calc.res.Totals.Underpayment,
		Compensation:    calc.res.Totals.Compensation,
		Due:             calc.res.Totals.Due,
		CreatedAt:       h.now(),
	})
	if err != nil {
		h.log.Error("failed to record run", zap.String("run_id", calc.runID), zap.Error(err))
	}
}

// Calculate returns the result as JSON.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	calc, ok := h.calculate(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, toCalculationResponse(calc.runID, calc.res))
}

// CalculateXLSX returns the result as a workbook.
func (h *Handler) CalculateXLSX(w http.ResponseWriter, r *http.Request) {
	h.calculateFile(w, r, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		export.Report.WriteXLSX)
}

// CalculateCSV returns the result as CSV sections.
func (h *Handler) CalculateCSV(w http.ResponseWriter, r *http.Request) {
	h.calculateFile(w, r, "csv", "text/csv; charset=utf-8", export.Report.WriteCSV)
}

// CalculatePDF returns the arrears statement.
func (h *Handler) CalculatePDF(w http.ResponseWriter, r *http.Request) {
	h.calculateFile(w, r, "pdf", "application/pdf", export.Report.WritePDF)
}

func (h *Handler) calculateFile(w http.ResponseWriter, r *http.Request, ext, contentType string,
	write func(export.Report, io.Writer) error) {
	calc, ok := h.calculate(w, r)
	if !ok {
		return
	}

	// Rendered into memory first so a failure can still be reported as JSON.
	var buf bytes.Buffer
	rep := export.Report{RunID: calc.runID, Input: calc.input, Result: calc.res}
	if err := write(rep, &buf); err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to render "+ext, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="arrears-%s.%s"`, calc.runID, ext))
	w.Header().Set("X-Run-ID", calc.runID)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// =============================================================================
// REFERENCE DATA HANDLERS
// =============================================================================

// GetCalendar returns a production-calendar year, fetching it if needed.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 2000 || year > 2100 {
		writeError(w, r, http.StatusBadRequest, "Invalid year", err)
		return
	}

	cal, err := h.Loader.LoadYears(r.Context(), year, year)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	days, err := cal.NonWorkingDays(year)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	avg, err := cal.AvgMonthlyWorkDays(year)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	dto := CalendarDTO{Year: year, NonWorkingDays: days, AvgMonthlyWorkDays: avg.Round(2)}
	for m := time.January; m <= time.December; m++ {
		n, err := cal.TotalWorkingDays(year, m)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		dto.WorkingDays = append(dto.WorkingDays, n)
	}
	writeJSON(w, r, http.StatusOK, dto)
}

// GetKeyRates returns the key-rate segments over [from, to]. to defaults
// to today and from to one year before to.
func (h *Handler) GetKeyRates(w http.ResponseWriter, r *http.Request) {
	to := generic.FromTime(h.now())
	if s := r.URL.Query().Get("to"); s != "" {
		d, err := generic.ParseDate(s)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "Invalid to (use YYYY-MM-DD)", err)
			return
		}
		to = d
	}
	from := to.AddYears(-1)
	if s := r.URL.Query().Get("from"); s != "" {
		d, err := generic.ParseDate(s)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "Invalid from (use YYYY-MM-DD)", err)
			return
		}
		from = d
	}
	if to.Before(from) {
		writeError(w, r, http.StatusBadRequest, "from must not be after to", nil)
		return
	}

	rates, err := h.Loader.LoadKeyRates(r.Context(), to)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	segs, err := rates.Segments(from, to)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	dto := KeyRatesDTO{From: from, To: to, Segments: make([]KeyRateSegmentDTO, len(segs))}
	for i, s := range segs {
		dto.Segments[i] = KeyRateSegmentDTO{From: s.From, To: s.To, Days: s.Days(), Rate: s.Rate}
	}
	writeJSON(w, r, http.StatusOK, dto)
}

// =============================================================================
// RUN HANDLERS
// =============================================================================

// ListRuns returns recent runs, newest first. ?limit= caps the list.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, r, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	runs, err := h.Store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}
	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run, false)
	}
	writeJSON(w, r, http.StatusOK, dtos)
}

// GetRun returns one run with the configuration it was calculated from.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to get run", err)
		return
	}
	if run == nil {
		writeError(w, r, http.StatusNotFound, "Run not found", nil)
		return
	}
	writeJSON(w, r, http.StatusOK, toRunDTO(*run, true))
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	render.Status(r, status)
	render.JSON(w, r, data)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, r, status, resp)
}

// writeEngineError maps an engine error kind to a status code.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{Error: err.Error(), Kind: string(generic.KindOf(err))}
	var e *generic.Error
	if errors.As(err, &e) {
		resp.Error = e.Message
		resp.Field = e.Field
		resp.Date = e.Date
	}
	writeJSON(w, r, statusFor(err), resp)
}

func statusFor(err error) int {
	switch generic.KindOf(err) {
	case generic.KindInputInvalid:
		return http.StatusBadRequest
	case generic.KindExternalMissing:
		return http.StatusFailedDependency
	case generic.KindNumericDomain:
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
