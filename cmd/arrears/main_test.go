package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/wage-arrears/factory"
	"github.com/warp/wage-arrears/generic"
	"github.com/warp/wage-arrears/generic/store"
	"github.com/warp/wage-arrears/source"
)

type weekends struct{}

func (weekends) FetchYear(_ context.Context, year int) (generic.CalendarYear, error) {
	return store.WeekendYear(year), nil
}

type flatRate struct{}

func (flatRate) FetchKeyRates(_ context.Context, _, _ generic.TimePoint) ([]generic.KeyRate, error) {
	return []generic.KeyRate{{EffectiveFrom: generic.NewTimePoint(2024, 10, 28), Rate: decimal.NewFromInt(21)}}, nil
}

const employee = `{
  "salary": {"monthly_salary": "100000", "salary_type": "Gross", "advance_pay_day": 20, "settlement_pay_day": 5},
  "indexation": {
    "hire_date": "2025-01-01",
    "indexation_events": [{"date": "2025-03-01", "percent": "10", "is_performed": false}]
  },
  "calculation": {"calculation_date": "2025-06-30", "compute_indexation_arrears": true}
}`

func testApp(out *bytes.Buffer) *app {
	loader := source.NewLoader(store.NewMemory(), weekends{}, flatRate{}, nil).
		WithClock(func() generic.TimePoint { return generic.NewTimePoint(2026, 1, 1) })
	return &app{loader: loader, factory: factory.NewConfigFactory(), log: zap.NewNop(), stdout: out}
}

func TestRun_WritesReports(t *testing.T) {
	// GIVEN: an employee document
	// WHEN: the CLI runs with every output requested
	// THEN: the summary is printed and every file is written

	dir := t.TempDir()
	input := filepath.Join(dir, "employee.json")
	require.NoError(t, os.WriteFile(input, []byte(employee), 0o600))

	opts := options{
		input: input,
		xlsx:  filepath.Join(dir, "out.xlsx"),
		csv:   filepath.Join(dir, "out.csv"),
		pdf:   filepath.Join(dir, "out.pdf"),
		save:  filepath.Join(dir, "saved.json"),
	}

	var out bytes.Buffer
	require.NoError(t, testApp(&out).run(context.Background(), opts))

	assert.Contains(t, out.String(), "2025-03")
	assert.Contains(t, out.String(), "Due: ")
	for _, p := range []string{opts.xlsx, opts.csv, opts.pdf, opts.save} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	saved, err := os.ReadFile(opts.save)
	require.NoError(t, err)
	_, err = factory.NewConfigFactory().Parse(saved)
	assert.NoError(t, err)
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"salary": {}}`), 0o600))

	var out bytes.Buffer
	a := testApp(&out)

	err := a.run(context.Background(), options{input: bad})
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))

	err = a.run(context.Background(), options{input: filepath.Join(dir, "missing.json")})
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 3, exitCode(generic.MissingData(generic.NewTimePoint(2025, 1, 1), "no calendar")))
	assert.Equal(t, 4, exitCode(generic.NumericDomain("negative")))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
}
