package payroll_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/wage-arrears/generic"
	"github.com/warp/wage-arrears/payroll"
)

// =============================================================================
// WORKING DAYS TESTS
// =============================================================================

func TestWorkingDays_NoLeaves(t *testing.T) {
	days := payroll.NewWorkingDays(testCalendar())

	n, err := days.Effective(2025, time.May)
	require.NoError(t, err)
	assert.Equal(t, 18, n)

	n, err = days.EffectiveRange(2025, time.May, 1, 14)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestWorkingDays_SickLeaveAcrossMonths(t *testing.T) {
	// GIVEN: sick from Monday 2025-04-28 through Wednesday 2025-05-07
	// WHEN: counting effective days
	// THEN: the three working days of each month are excluded

	sick := []payroll.LeavePeriod{{From: date("2025-04-28"), To: date("2025-05-07")}}
	days := payroll.NewWorkingDays(testCalendar(), sick)

	april, err := days.Effective(2025, time.April)
	require.NoError(t, err)
	assert.Equal(t, 19, april)

	may, err := days.Effective(2025, time.May)
	require.NoError(t, err)
	assert.Equal(t, 15, may)

	firstHalf, err := days.EffectiveRange(2025, time.May, 1, 14)
	require.NoError(t, err)
	assert.Equal(t, 3, firstHalf)

	secondHalf, err := days.EffectiveRange(2025, time.May, 15, 40)
	require.NoError(t, err)
	assert.Equal(t, 12, secondHalf)
}

func TestWorkingDays_OverlappingLeavesCountOnce(t *testing.T) {
	sick := []payroll.LeavePeriod{{From: date("2025-04-28"), To: date("2025-05-07")}}
	vacation := []payroll.LeavePeriod{{From: date("2025-05-05"), To: date("2025-05-14")}}
	days := payroll.NewWorkingDays(testCalendar(), sick, vacation)

	may, err := days.Effective(2025, time.May)
	require.NoError(t, err)
	// 5, 6, 7, 12, 13, 14 are excluded once each
	assert.Equal(t, 12, may)
}

func TestWorkingDays_UnloadedYear(t *testing.T) {
	days := payroll.NewWorkingDays(testCalendar())

	_, err := days.Effective(2030, time.March)
	require.Error(t, err)
	assert.True(t, generic.IsExternalMissing(err))
}
