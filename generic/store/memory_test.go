package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/wage-arrears/generic"
	"github.com/warp/wage-arrears/generic/store"
)

func day(s string) generic.TimePoint {
	d, err := generic.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func rate(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// calendar2025 is weekends plus the weekday holidays of 2025.
func calendar2025() generic.CalendarYear {
	y := store.WeekendYear(2025)
	for _, h := range []string{
		"2025-01-01", "2025-01-02", "2025-01-03", "2025-01-06", "2025-01-07",
		"2025-01-08", "2025-05-01", "2025-05-02", "2025-05-08", "2025-05-09",
		"2025-06-12", "2025-06-13", "2025-11-03", "2025-11-04", "2025-12-31",
	} {
		y.NonWorkingDays = append(y.NonWorkingDays, day(h))
	}
	return y
}

// =============================================================================
// CALENDAR TESTS
// =============================================================================

func TestCalendar_WorkingDays(t *testing.T) {
	cal := store.NewCalendar(calendar2025())

	tests := []struct {
		month     time.Month
		total     int
		firstHalf int
	}{
		{time.January, 17, 4},
		{time.March, 21, 10},
		{time.April, 22, 10},
		{time.May, 18, 6},
		{time.December, 22, 10},
	}
	for _, tt := range tests {
		total, err := cal.TotalWorkingDays(2025, tt.month)
		require.NoError(t, err)
		assert.Equal(t, tt.total, total, tt.month.String())

		half, err := cal.WorkingDays(2025, tt.month, 1, 14)
		require.NoError(t, err)
		assert.Equal(t, tt.firstHalf, half, tt.month.String())
	}
}

func TestCalendar_AvgMonthlyWorkDays(t *testing.T) {
	cal := store.NewCalendar(calendar2025())

	avg, err := cal.AvgMonthlyWorkDays(2025)
	require.NoError(t, err)
	assert.True(t, avg.Equal(rate("20.5")), avg.String())
}

func TestCalendar_NearestWorkingDay(t *testing.T) {
	cal := store.NewCalendar(calendar2025())

	got, err := cal.NearestWorkingDayOnOrBefore(day("2025-06-14"))
	require.NoError(t, err)
	assert.Equal(t, day("2025-06-11"), got)

	got, err = cal.NearestWorkingDayOnOrBefore(day("2025-06-05"))
	require.NoError(t, err)
	assert.Equal(t, day("2025-06-05"), got)
}

func TestCalendar_NearestWorkingDayCrossesYear(t *testing.T) {
	// GIVEN: 2026-01-01 .. 2026-01-11 off
	// WHEN: walking back from 2026-01-05
	// THEN: the walk lands on 2025-12-30 and needs the 2025 calendar

	y2026 := store.WeekendYear(2026)
	for d := day("2026-01-01"); d.BeforeOrEqual(day("2026-01-09")); d = d.AddDays(1) {
		y2026.NonWorkingDays = append(y2026.NonWorkingDays, d)
	}

	got, err := store.NewCalendar(calendar2025(), y2026).NearestWorkingDayOnOrBefore(day("2026-01-05"))
	require.NoError(t, err)
	assert.Equal(t, day("2025-12-30"), got)

	_, err = store.NewCalendar(y2026).NearestWorkingDayOnOrBefore(day("2026-01-05"))
	require.Error(t, err)
	assert.True(t, generic.IsExternalMissing(err))
}

func TestCalendar_UnloadedYear(t *testing.T) {
	cal := store.NewCalendar(calendar2025())

	_, err := cal.IsWorkingDay(day("2024-12-31"))
	assert.True(t, generic.IsExternalMissing(err))

	assert.NoError(t, cal.EnsureLoaded(2025, 2025))
	err = cal.EnsureLoaded(2024, 2025)
	require.Error(t, err)

	var e *generic.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, day("2024-01-01"), e.Date)
}

func TestCalendar_EmptyYearIsWeekendsOnly(t *testing.T) {
	cal := store.NewCalendar(generic.CalendarYear{Year: 2025})

	total, err := cal.TotalWorkingDays(2025, time.May)
	require.NoError(t, err)
	assert.Equal(t, 22, total)

	off, err := cal.NonWorkingDays(2025)
	require.NoError(t, err)
	assert.Len(t, off, 104)
	assert.Equal(t, []int{2025}, cal.Years())
}

// =============================================================================
// KEY RATE TESTS
// =============================================================================

func history() []generic.KeyRate {
	return []generic.KeyRate{
		{EffectiveFrom: day("2025-06-09"), Rate: rate("20")},
		{EffectiveFrom: day("2024-10-28"), Rate: rate("21")},
		{EffectiveFrom: day("2025-07-28"), Rate: rate("18")},
	}
}

func TestKeyRates_RateOn(t *testing.T) {
	rates := store.NewKeyRates(history(), generic.TimePoint{})

	tests := []struct {
		on   string
		want string
	}{
		{"2024-01-01", "21"}, // before history: earliest known rate
		{"2024-10-28", "21"},
		{"2025-06-08", "21"},
		{"2025-06-09", "20"},
		{"2025-07-27", "20"},
		{"2026-01-01", "18"},
	}
	for _, tt := range tests {
		got, err := rates.RateOn(day(tt.on))
		require.NoError(t, err)
		assert.Truef(t, got.Equal(rate(tt.want)), "%s: want %s, got %s", tt.on, tt.want, got)
	}
}

func TestKeyRates_Segments(t *testing.T) {
	rates := store.NewKeyRates(history(), generic.TimePoint{})

	segments, err := rates.Segments(day("2025-05-30"), day("2025-08-10"))
	require.NoError(t, err)
	require.Len(t, segments, 3)

	assert.Equal(t, day("2025-05-30"), segments[0].From)
	assert.Equal(t, day("2025-06-08"), segments[0].To)
	assert.Equal(t, 10, segments[0].Days())
	assert.Equal(t, day("2025-06-09"), segments[1].From)
	assert.Equal(t, day("2025-07-27"), segments[1].To)
	assert.Equal(t, day("2025-07-28"), segments[2].From)
	assert.Equal(t, day("2025-08-10"), segments[2].To)
	assert.True(t, segments[2].Rate.Equal(rate("18")))

	total := 0
	for _, s := range segments {
		total += s.Days()
	}
	assert.Equal(t, 73, total)
}

func TestKeyRates_SegmentStartsOnChange(t *testing.T) {
	rates := store.NewKeyRates(history(), generic.TimePoint{})

	segments, err := rates.Segments(day("2025-06-09"), day("2025-06-20"))
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.True(t, segments[0].Rate.Equal(rate("20")))

	segments, err = rates.Segments(day("2025-06-20"), day("2025-06-19"))
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestKeyRates_Coverage(t *testing.T) {
	rates := store.NewKeyRates(history(), day("2025-09-01"))

	_, err := rates.Segments(day("2025-08-01"), day("2025-09-02"))
	assert.True(t, generic.IsExternalMissing(err))

	_, err = rates.RateOn(day("2025-09-02"))
	assert.True(t, generic.IsExternalMissing(err))

	_, err = store.NewKeyRates(nil, generic.TimePoint{}).RateOn(day("2025-01-01"))
	assert.True(t, generic.IsExternalMissing(err))
}

// =============================================================================
// MEMORY STORE TESTS
// =============================================================================

func TestMemory_CalendarYears(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	_, ok, err := m.LoadCalendarYear(ctx, 2025)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.SaveCalendarYear(ctx, calendar2025()))
	got, ok, err := m.LoadCalendarYear(ctx, 2025)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, got.NonWorkingDays, len(calendar2025().NonWorkingDays))

	// Returned slices are copies
	got.NonWorkingDays[0] = day("1999-01-01")
	again, _, _ := m.LoadCalendarYear(ctx, 2025)
	assert.NotEqual(t, day("1999-01-01"), again.NonWorkingDays[0])
}

func TestMemory_KeyRates(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	rates, covered, err := m.LoadKeyRates(ctx)
	require.NoError(t, err)
	assert.Empty(t, rates)
	assert.True(t, covered.IsZero())

	require.NoError(t, m.SaveKeyRates(ctx, history(), day("2025-09-01")))
	rates, covered, err = m.LoadKeyRates(ctx)
	require.NoError(t, err)
	require.Len(t, rates, 3)
	assert.Equal(t, day("2024-10-28"), rates[0].EffectiveFrom)
	assert.Equal(t, day("2025-09-01"), covered)
}
