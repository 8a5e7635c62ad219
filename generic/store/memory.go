// Package store provides in-memory reference data: a ReferenceStore for
// tests and dev, and the read-only Calendar and KeyRates query objects the
// engine runs against.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/wage-arrears/generic"
)

// =============================================================================
// MEMORY STORE - In-memory ReferenceStore (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	years     map[int]generic.CalendarYear
	rates     []generic.KeyRate
	coveredTo generic.TimePoint
}

func NewMemory() *Memory {
	return &Memory{years: make(map[int]generic.CalendarYear)}
}

func (m *Memory) SaveCalendarYear(_ context.Context, year generic.CalendarYear) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	days := append([]generic.TimePoint(nil), year.NonWorkingDays...)
	m.years[year.Year] = generic.CalendarYear{Year: year.Year, NonWorkingDays: days}
	return nil
}

func (m *Memory) LoadCalendarYear(_ context.Context, year int) (generic.CalendarYear, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	y, ok := m.years[year]
	if !ok {
		return generic.CalendarYear{}, false, nil
	}
	y.NonWorkingDays = append([]generic.TimePoint(nil), y.NonWorkingDays...)
	return y, true, nil
}

func (m *Memory) SaveKeyRates(_ context.Context, rates []generic.KeyRate, coveredTo generic.TimePoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates = sortedRates(rates)
	m.coveredTo = coveredTo
	return nil
}

func (m *Memory) LoadKeyRates(_ context.Context) ([]generic.KeyRate, generic.TimePoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]generic.KeyRate(nil), m.rates...), m.coveredTo, nil
}

// =============================================================================
// CALENDAR - generic.ProductionCalendar over loaded years
// =============================================================================

// Calendar is an immutable production calendar. Safe for concurrent reads.
type Calendar struct {
	years map[int]map[generic.TimePoint]struct{}
}

// NewCalendar builds a calendar from the given years. A year with an empty
// NonWorkingDays list is loaded with weekends as its only days off.
func NewCalendar(years ...generic.CalendarYear) *Calendar {
	c := &Calendar{years: make(map[int]map[generic.TimePoint]struct{}, len(years))}
	for _, y := range years {
		off := make(map[generic.TimePoint]struct{}, len(y.NonWorkingDays))
		for _, d := range y.NonWorkingDays {
			off[d] = struct{}{}
		}
		c.years[y.Year] = off
	}
	return c
}

// Years returns the loaded years in ascending order.
func (c *Calendar) Years() []int {
	out := make([]int, 0, len(c.years))
	for y := range c.years {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

func (c *Calendar) year(y int) (map[generic.TimePoint]struct{}, error) {
	off, ok := c.years[y]
	if !ok {
		return nil, generic.MissingData(generic.StartOfYear(y), "production calendar for %d is not loaded", y)
	}
	return off, nil
}

func (c *Calendar) IsWorkingDay(d generic.TimePoint) (bool, error) {
	off, err := c.year(d.Year())
	if err != nil {
		return false, err
	}
	return isWorking(off, d), nil
}

func (c *Calendar) WorkingDays(year int, month time.Month, fromDay, toDay int) (int, error) {
	off, err := c.year(year)
	if err != nil {
		return 0, err
	}
	if fromDay < 1 {
		fromDay = 1
	}
	if last := generic.DaysIn(year, month); toDay > last {
		toDay = last
	}
	count := 0
	for day := fromDay; day <= toDay; day++ {
		d := generic.NewTimePoint(year, month, day)
		if isWorking(off, d) {
			count++
		}
	}
	return count, nil
}

func (c *Calendar) TotalWorkingDays(year int, month time.Month) (int, error) {
	return c.WorkingDays(year, month, 1, generic.DaysIn(year, month))
}

func (c *Calendar) NearestWorkingDayOnOrBefore(d generic.TimePoint) (generic.TimePoint, error) {
	// No published calendar has a month without working days, so the walk
	// is bounded.
	for i := 0; i < 366; i++ {
		ok, err := c.IsWorkingDay(d)
		if err != nil {
			return generic.TimePoint{}, err
		}
		if ok {
			return d, nil
		}
		d = d.AddDays(-1)
	}
	return generic.TimePoint{}, generic.MissingData(d, "no working day found")
}

func (c *Calendar) AvgMonthlyWorkDays(year int) (decimal.Decimal, error) {
	total, months := 0, 0
	for m := time.January; m <= time.December; m++ {
		n, err := c.TotalWorkingDays(year, m)
		if err != nil {
			return decimal.Zero, err
		}
		if n > 0 {
			total += n
			months++
		}
	}
	if months == 0 {
		return decimal.Zero, nil
	}
	return decimal.NewFromInt(int64(total)).Div(decimal.NewFromInt(int64(months))), nil
}

func (c *Calendar) EnsureLoaded(fromYear, toYear int) error {
	for y := fromYear; y <= toYear; y++ {
		if _, err := c.year(y); err != nil {
			return err
		}
	}
	return nil
}

// NonWorkingDays lists the non-working days of a loaded year, ordered.
func (c *Calendar) NonWorkingDays(year int) ([]generic.TimePoint, error) {
	off, err := c.year(year)
	if err != nil {
		return nil, err
	}
	if len(off) == 0 {
		return weekends(year), nil
	}
	out := make([]generic.TimePoint, 0, len(off))
	for d := range off {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func isWorking(off map[generic.TimePoint]struct{}, d generic.TimePoint) bool {
	if len(off) == 0 {
		return !d.IsWeekend()
	}
	_, holiday := off[d]
	return !holiday
}

// WeekendYear returns a calendar year whose only non-working days are
// Saturdays and Sundays.
func WeekendYear(year int) generic.CalendarYear {
	return generic.CalendarYear{Year: year, NonWorkingDays: weekends(year)}
}

func weekends(year int) []generic.TimePoint {
	var out []generic.TimePoint
	for d := generic.StartOfYear(year); d.Year() == year; d = d.AddDays(1) {
		if d.IsWeekend() {
			out = append(out, d)
		}
	}
	return out
}

// =============================================================================
// KEY RATES - generic.KeyRateSchedule over a loaded history
// =============================================================================

// KeyRates is an immutable key-rate history. Safe for concurrent reads.
type KeyRates struct {
	rates     []generic.KeyRate
	coveredTo generic.TimePoint
}

// NewKeyRates builds a schedule. A zero coveredTo means the last rate holds
// indefinitely.
func NewKeyRates(rates []generic.KeyRate, coveredTo generic.TimePoint) *KeyRates {
	return &KeyRates{rates: sortedRates(rates), coveredTo: coveredTo}
}

// History returns the rate changes ordered by effective date.
func (k *KeyRates) History() []generic.KeyRate {
	return append([]generic.KeyRate(nil), k.rates...)
}

func (k *KeyRates) RateOn(d generic.TimePoint) (decimal.Decimal, error) {
	if len(k.rates) == 0 {
		return decimal.Zero, generic.MissingData(d, "key rate history is empty")
	}
	if !k.coveredTo.IsZero() && d.After(k.coveredTo) {
		return decimal.Zero, generic.MissingData(d, "key rate history ends on %s", k.coveredTo)
	}
	i := k.indexOn(d)
	if i < 0 {
		return k.rates[0].Rate, nil
	}
	return k.rates[i].Rate, nil
}

func (k *KeyRates) Segments(from, to generic.TimePoint) ([]generic.KeyRateSegment, error) {
	if to.Before(from) {
		return nil, nil
	}
	if len(k.rates) == 0 {
		return nil, generic.MissingData(from, "key rate history is empty")
	}
	if !k.coveredTo.IsZero() && to.After(k.coveredTo) {
		return nil, generic.MissingData(to, "key rate history ends on %s", k.coveredTo)
	}

	rate, err := k.RateOn(from)
	if err != nil {
		return nil, err
	}

	var out []generic.KeyRateSegment
	start := from
	for _, r := range k.rates {
		if !r.EffectiveFrom.After(from) || r.EffectiveFrom.After(to) {
			continue
		}
		out = append(out, generic.KeyRateSegment{From: start, To: r.EffectiveFrom.AddDays(-1), Rate: rate})
		start, rate = r.EffectiveFrom, r.Rate
	}
	out = append(out, generic.KeyRateSegment{From: start, To: to, Rate: rate})
	return out, nil
}

// indexOn returns the index of the last change effective on or before d, or -1.
func (k *KeyRates) indexOn(d generic.TimePoint) int {
	i := sort.Search(len(k.rates), func(i int) bool {
		return k.rates[i].EffectiveFrom.After(d)
	})
	return i - 1
}

func sortedRates(rates []generic.KeyRate) []generic.KeyRate {
	out := append([]generic.KeyRate(nil), rates...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].EffectiveFrom.Before(out[j].EffectiveFrom) })
	return out
}
