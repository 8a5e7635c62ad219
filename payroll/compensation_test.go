package payroll_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/warp/wage-arrears/generic"
	"github.com/warp/wage-arrears/payroll"
)

// =============================================================================
// MOCK KEY RATE SCHEDULE
// =============================================================================

type mockRates struct {
	mock.Mock
}

func (m *mockRates) RateOn(d generic.TimePoint) (decimal.Decimal, error) {
	args := m.Called(d)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockRates) Segments(from, to generic.TimePoint) ([]generic.KeyRateSegment, error) {
	args := m.Called(from, to)
	segments, _ := args.Get(0).([]generic.KeyRateSegment)
	return segments, args.Error(1)
}

// =============================================================================
// COMPENSATION TESTS
// =============================================================================

func TestCompensate_SplitsAtRateChange(t *testing.T) {
	// GIVEN: 1000 underpaid, 21% for 10 days then 20% for 5 days
	// WHEN: compensation is computed
	// THEN: 1000 * 0.21/150 * 10 = 14.00 and 1000 * 0.20/150 * 5 = 6.67

	rates := new(mockRates)
	rates.On("Segments", date("2025-05-30"), date("2025-06-13")).Return([]generic.KeyRateSegment{
		{From: date("2025-05-30"), To: date("2025-06-08"), Rate: dec("21")},
		{From: date("2025-06-09"), To: date("2025-06-13"), Rate: dec("20")},
	}, nil)

	engine := payroll.NewCompensationEngine(rates, date("2025-06-13"))
	segments, total, err := engine.Compensate(dec("1000"), date("2025-05-30"), date("2025-06-13"))
	require.NoError(t, err)

	require.Len(t, segments, 2)
	assert.Equal(t, 10, segments[0].Days)
	assert.Equal(t, 5, segments[1].Days)
	assertDecimal(t, "14", segments[0].Amount)
	assertDecimal(t, "6.67", segments[1].Amount)
	assertDecimal(t, "0.0014", segments[0].DailyRate)
	assertDecimal(t, "0.00133333", segments[1].DailyRate)
	assertDecimal(t, "20.67", total)
	rates.AssertExpectations(t)
}

func TestCompensate_AgainstHistory(t *testing.T) {
	engine := payroll.NewCompensationEngine(testKeyRates(), date("2025-06-13"))

	segments, total, err := engine.Compensate(dec("1000"), date("2025-05-30"), date("2025-06-13"))
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, date("2025-06-08"), segments[0].To)
	assert.Equal(t, date("2025-06-09"), segments[1].From)
	assertDecimal(t, "20.67", total)
}

func TestCompensationEngine_Apply(t *testing.T) {
	// GIVEN: one underpaid event, one fully paid, one paid on the calculation date
	// WHEN: compensation is applied
	// THEN: only the first earns compensation and all are compensated

	rates := new(mockRates)
	rates.On("Segments", date("2025-06-04"), date("2025-06-08")).Return([]generic.KeyRateSegment{
		{From: date("2025-06-04"), To: date("2025-06-08"), Rate: dec("21")},
	}, nil).Once()

	events := []payroll.PaymentEvent{
		{Kind: payroll.KindSettlement, PaymentDate: date("2025-06-03"), Underpayment: dec("1500")},
		{Kind: payroll.KindAdvance, PaymentDate: date("2025-05-20"), Underpayment: dec("0")},
		{Kind: payroll.KindAdvance, PaymentDate: date("2025-06-08"), Underpayment: dec("300")},
	}
	err := payroll.NewCompensationEngine(rates, date("2025-06-08")).Apply(events)
	require.NoError(t, err)

	// 1500 * 0.21 / 150 * 5
	assertDecimal(t, "10.5", events[0].Compensation)
	assert.Equal(t, 5, events[0].DelayDays)
	require.Len(t, events[0].CompensationBreakdown, 1)

	assertDecimal(t, "0", events[1].Compensation)
	assert.Empty(t, events[1].CompensationBreakdown)
	assertDecimal(t, "0", events[2].Compensation)
	assert.Equal(t, 0, events[2].DelayDays)

	for _, e := range events {
		assert.Equal(t, payroll.StateCompensated, e.State)
	}
	rates.AssertExpectations(t)
}

func TestCompensationEngine_MissingRates(t *testing.T) {
	rates := new(mockRates)
	rates.On("Segments", mock.Anything, mock.Anything).
		Return(nil, generic.MissingData(date("2025-06-08"), "key rate history ends on 2025-06-01"))

	events := []payroll.PaymentEvent{
		{Kind: payroll.KindSettlement, PaymentDate: date("2025-06-03"), Underpayment: dec("1500")},
	}
	err := payroll.NewCompensationEngine(rates, date("2025-06-08")).Apply(events)
	require.Error(t, err)
	assert.True(t, generic.IsExternalMissing(err))
}

func TestDailyKeyRate(t *testing.T) {
	assertDecimal(t, "0.0014", payroll.DailyKeyRate(dec("21")))
	assertDecimal(t, "0.0011", payroll.DailyKeyRate(dec("16.5")))
}
