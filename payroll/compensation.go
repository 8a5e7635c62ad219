package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/warp/wage-arrears/generic"
)

// =============================================================================
// COMPENSATION - Key rate / 150 per day of delay on each underpayment
// =============================================================================

var keyRateDivisor = decimal.NewFromInt(150)

// CompensationEngine prices the delay of every underpaid event from the day
// after payment through the calculation date.
type CompensationEngine struct {
	rates generic.KeyRateSchedule
	calc  generic.TimePoint
}

func NewCompensationEngine(rates generic.KeyRateSchedule, calc generic.TimePoint) *CompensationEngine {
	return &CompensationEngine{rates: rates, calc: calc}
}

// Apply fills compensation in place and moves events to StateCompensated.
// Events with no positive underpayment get zero.
func (c *CompensationEngine) Apply(events []PaymentEvent) error {
	for i := range events {
		e := &events[i]
		e.Compensation = decimal.Zero
		e.CompensationBreakdown = nil
		e.DelayDays = delayDays(e.PaymentDate, c.calc)

		start := e.PaymentDate.AddDays(1)
		if e.Underpayment.IsPositive() && start.BeforeOrEqual(c.calc) {
			segments, total, err := c.Compensate(e.Underpayment, start, c.calc)
			if err != nil {
				return err
			}
			e.CompensationBreakdown = segments
			e.Compensation = total
		}
		e.State = StateCompensated
	}
	return nil
}

// Compensate splits [from, to] at key-rate changes and prices each run.
func (c *CompensationEngine) Compensate(amount decimal.Decimal, from, to generic.TimePoint) ([]CompensationSegment, decimal.Decimal, error) {
	runs, err := c.rates.Segments(from, to)
	if err != nil {
		return nil, decimal.Zero, err
	}

	segments := make([]CompensationSegment, 0, len(runs))
	total := decimal.Zero
	for _, r := range runs {
		days := r.Days()
		daily := DailyKeyRate(r.Rate)
		s := CompensationSegment{
			From:      r.From,
			To:        r.To,
			Days:      days,
			KeyRate:   r.Rate,
			DailyRate: generic.Round8(daily),
			Amount:    generic.Round2(amount.Mul(daily).Mul(decimal.NewFromInt(int64(days)))),
		}
		total = total.Add(s.Amount)
		segments = append(segments, s)
	}
	return segments, generic.Round2(total), nil
}

// DailyKeyRate is the statutory per-day coefficient: rate / 150 / 100.
func DailyKeyRate(ratePercent decimal.Decimal) decimal.Decimal {
	return ratePercent.Div(keyRateDivisor.Mul(generic.Hundred))
}
