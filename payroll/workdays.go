package payroll

import (
	"time"

	"github.com/warp/wage-arrears/generic"
)

// =============================================================================
// WORKING DAYS - Payable working days per month and half-month
// =============================================================================

// WorkingDays counts effective working days: calendar working days on which
// the employee was neither sick nor on vacation. A day inside several
// overlapping leaves is excluded once.
type WorkingDays struct {
	cal    generic.ProductionCalendar
	leaves []generic.Period
}

// NewWorkingDays builds a counter excluding every given leave.
func NewWorkingDays(cal generic.ProductionCalendar, leaves ...[]LeavePeriod) *WorkingDays {
	w := &WorkingDays{cal: cal}
	for _, group := range leaves {
		for _, l := range group {
			w.leaves = append(w.leaves, l.Period())
		}
	}
	return w
}

// Effective returns the effective working days of the whole month.
func (w *WorkingDays) Effective(year int, month time.Month) (int, error) {
	return w.EffectiveRange(year, month, 1, generic.DaysIn(year, month))
}

// EffectiveRange returns the effective working days in [fromDay, toDay].
func (w *WorkingDays) EffectiveRange(year int, month time.Month, fromDay, toDay int) (int, error) {
	if last := generic.DaysIn(year, month); toDay > last {
		toDay = last
	}
	total, err := w.cal.WorkingDays(year, month, fromDay, toDay)
	if err != nil {
		return 0, err
	}

	excluded := 0
	for day := fromDay; day <= toDay; day++ {
		d := generic.NewTimePoint(year, month, day)
		if !w.onLeave(d) {
			continue
		}
		working, err := w.cal.IsWorkingDay(d)
		if err != nil {
			return 0, err
		}
		if working {
			excluded++
		}
	}
	return total - excluded, nil
}

func (w *WorkingDays) onLeave(d generic.TimePoint) bool {
	for _, p := range w.leaves {
		if p.Contains(d) {
			return true
		}
	}
	return false
}
