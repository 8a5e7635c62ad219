package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - An inclusive range of calendar days
// =============================================================================

// Period is the inclusive day range [Start, End]. Sick leaves, vacations,
// key-rate segments and averaging windows are all Periods.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// IsValid reports whether Start <= End.
func (p Period) IsValid() bool {
	return p.Start.BeforeOrEqual(p.End)
}

// Length returns the number of calendar days, both ends included.
func (p Period) Length() int {
	if !p.IsValid() {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// Intersect returns the overlap of two periods and whether it is non-empty.
func (p Period) Intersect(other Period) (Period, bool) {
	out := Period{
		Start: MaxTimePoint(p.Start, other.Start),
		End:   MinTimePoint(p.End, other.End),
	}
	return out, out.IsValid()
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// MonthPeriod returns the whole calendar month as a Period.
func MonthPeriod(year int, month time.Month) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

// =============================================================================
// MONTH ITERATION
// =============================================================================

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

func YearMonthOf(tp TimePoint) YearMonth { return YearMonth{Year: tp.Year(), Month: tp.Month()} }

func (ym YearMonth) Start() TimePoint { return StartOfMonth(ym.Year, ym.Month) }
func (ym YearMonth) End() TimePoint   { return EndOfMonth(ym.Year, ym.Month) }
func (ym YearMonth) Mid() TimePoint   { return MidMonth(ym.Year, ym.Month) }
func (ym YearMonth) Days() int        { return DaysIn(ym.Year, ym.Month) }
func (ym YearMonth) Next() YearMonth  { return YearMonthOf(ym.Start().AddMonths(1)) }

// String formats the month as 2025-03.
func (ym YearMonth) String() string { return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month)) }

func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// MonthsBetween lists every month from first to last inclusive.
// Returns nil when last precedes first.
func MonthsBetween(first, last YearMonth) []YearMonth {
	var out []YearMonth
	for ym := first; !last.Before(ym); ym = ym.Next() {
		out = append(out, ym)
	}
	return out
}
