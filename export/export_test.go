package export_test

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/wage-arrears/export"
	"github.com/warp/wage-arrears/generic"
	"github.com/warp/wage-arrears/generic/store"
	"github.com/warp/wage-arrears/payroll"
)

func day(s string) generic.TimePoint {
	d, err := generic.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// report calculates a year with a missed 10% indexation and one vacation.
func report(t *testing.T, withVacation bool) export.Report {
	t.Helper()
	in := payroll.EmployeeInput{
		MonthlySalary:   decimal.NewFromInt(100000),
		SalaryKind:      payroll.SalaryGross,
		AdvanceDay:      20,
		SettlementDay:   5,
		HireDate:        day("2025-01-01"),
		IndexationRules: []payroll.IndexationRule{{Date: day("2025-03-01"), Percent: decimal.NewFromInt(10)}},
		CalculationDate: day("2025-06-30"),
		Flags:           payroll.Flags{ComputeIndexationArrears: true},
	}
	if withVacation {
		in.Vacations = []payroll.LeavePeriod{{From: day("2025-05-12"), To: day("2025-05-18"), Amount: decimal.NewFromInt(20000)}}
	}

	cal := store.NewCalendar(store.WeekendYear(2024), store.WeekendYear(2025))
	rates := store.NewKeyRates([]generic.KeyRate{{EffectiveFrom: day("2024-10-28"), Rate: decimal.NewFromInt(21)}}, generic.TimePoint{})
	res, err := payroll.Calculate(in, cal, rates)
	require.NoError(t, err)
	return export.Report{RunID: "run-1", Input: in, Result: res}
}

// =============================================================================
// XLSX TESTS
// =============================================================================

func TestWriteXLSX_Sheets(t *testing.T) {
	// GIVEN: a calculation with underpaid months and a vacation
	// WHEN: it is exported as a workbook
	// THEN: every table is a sheet and payments carry one subtotal per month

	rep := report(t, true)
	var buf bytes.Buffer
	require.NoError(t, rep.WriteXLSX(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Parameters", "Payments", "Compensation", "Vacations"}, f.GetSheetList())

	rows, err := f.GetRows("Payments", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "Period", rows[0][0])
	assert.Equal(t, "Underpayment", rows[0][8])

	subtotals := 0
	for _, r := range rows[1:] {
		if len(r) > 1 && r[1] == "Month total" {
			subtotals++
		}
	}
	assert.Equal(t, len(rep.Result.Months), subtotals)
	assert.Len(t, rows, 1+len(rep.Result.Events)+len(rep.Result.Months)+1)

	last := rows[len(rows)-1]
	assert.Equal(t, "Total", last[0])
	underpayment, err := strconv.ParseFloat(last[8], 64)
	require.NoError(t, err)
	assert.InDelta(t, rep.Result.Totals.Underpayment.InexactFloat64(), underpayment, 0.001)
	assert.Greater(t, underpayment, 0.0)
}

func TestWriteXLSX_NoVacationSheet(t *testing.T) {
	rep := report(t, false)
	var buf bytes.Buffer
	require.NoError(t, rep.WriteXLSX(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Parameters", "Payments", "Compensation"}, f.GetSheetList())

	value, err := f.GetCellValue("Parameters", "B2")
	require.NoError(t, err)
	assert.Equal(t, "run-1", value)
}

// =============================================================================
// CSV TESTS
// =============================================================================

func TestWriteCSV_Sections(t *testing.T) {
	rep := report(t, true)
	var buf bytes.Buffer
	require.NoError(t, rep.WriteCSV(&buf))

	r := csv.NewReader(&buf)
	r.Comma = ';'
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)

	var sections []string
	var paymentsTotal []string
	section := ""
	for _, rec := range records {
		if len(rec) == 1 && len(rec[0]) > 2 && rec[0][:2] == "# " {
			section = rec[0][2:]
			sections = append(sections, section)
			continue
		}
		if section == "Payments" && rec[0] == "Total" {
			paymentsTotal = rec
		}
	}

	assert.Equal(t, []string{"Parameters", "Payments", "Compensation", "Vacations"}, sections)
	require.NotNil(t, paymentsTotal)
	assert.Equal(t, rep.Result.Totals.Underpayment.StringFixed(2), paymentsTotal[8])
	assert.Equal(t, rep.Result.Totals.Compensation.StringFixed(2), paymentsTotal[10])
}

// =============================================================================
// PDF TESTS
// =============================================================================

func TestWritePDF(t *testing.T) {
	rep := report(t, true)
	var buf bytes.Buffer
	require.NoError(t, rep.WritePDF(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
