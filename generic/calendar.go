package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PRODUCTION CALENDAR - Working days, as published for a year
// =============================================================================

// ProductionCalendar answers working-day questions. Weekends and public
// holidays are non-working; shortened pre-holiday days still count as
// working. Every method returns an ExternalMissing error when the year of
// the queried date has not been loaded.
type ProductionCalendar interface {
	IsWorkingDay(d TimePoint) (bool, error)

	// WorkingDays counts working days in [fromDay, toDay] of the month.
	// toDay is capped at the month length.
	WorkingDays(year int, month time.Month, fromDay, toDay int) (int, error)

	TotalWorkingDays(year int, month time.Month) (int, error)

	// NearestWorkingDayOnOrBefore walks back from d to the first working day.
	NearestWorkingDayOnOrBefore(d TimePoint) (TimePoint, error)

	// AvgMonthlyWorkDays is the year's working days divided by the number of
	// months that have at least one working day.
	AvgMonthlyWorkDays(year int) (decimal.Decimal, error)

	// EnsureLoaded fails unless every year in [fromYear, toYear] is available.
	EnsureLoaded(fromYear, toYear int) error
}

// CalendarYear is one year of a production calendar as stored and fetched.
type CalendarYear struct {
	Year           int
	NonWorkingDays []TimePoint
}

// =============================================================================
// KEY RATE SCHEDULE - Central bank key rate as a step function
// =============================================================================

// KeyRate is a key-rate change: Rate (percent per annum) applies from
// EffectiveFrom until the next change.
type KeyRate struct {
	EffectiveFrom TimePoint       `json:"effective_from"`
	Rate          decimal.Decimal `json:"rate"`
}

// KeyRateSegment is an inclusive run of days with a constant rate.
type KeyRateSegment struct {
	From TimePoint
	To   TimePoint
	Rate decimal.Decimal
}

// Days returns the number of days in the segment, both ends included.
func (s KeyRateSegment) Days() int {
	return Period{Start: s.From, End: s.To}.Length()
}

// KeyRateSchedule answers key-rate questions.
type KeyRateSchedule interface {
	// RateOn returns the latest rate whose effective date is <= d, or the
	// earliest known rate when d precedes the whole history.
	RateOn(d TimePoint) (decimal.Decimal, error)

	// Segments splits [from, to] at every rate change. The result is
	// contiguous, ordered and covers the range exactly.
	Segments(from, to TimePoint) ([]KeyRateSegment, error)
}
