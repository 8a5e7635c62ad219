/*
Package generic provides the domain-agnostic building blocks of the arrears engine.

PURPOSE:
  This package holds the types every other package speaks: calendar days,
  periods, decimal money helpers, the error kinds, and the two query
  interfaces through which the engine reads external reference data
  (the production calendar and the central-bank key-rate schedule).
  It knows nothing about salaries, taxes or payment kinds.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: decimal.Decimal rounded to kopecks (2 places)
  - Rates: decimal.Decimal kept at full precision, reported at 8 places
  - Whole units: tax per bracket is rounded to whole roubles

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal everywhere; float64 never touches money
  2. Rounding happens at named steps only (Round2, RoundUnits, Round8)
  3. Half-away-from-zero rounding, matching decimal.Decimal.Round

USAGE:
  gross := generic.Round2(net.Div(generic.MustParseDecimal("0.87")))
  tax := generic.RoundUnits(portion.Mul(rate))

SEE ALSO:
  - time.go: TimePoint and month arithmetic
  - period.go: inclusive date ranges
  - calendar.go: ProductionCalendar and KeyRateSchedule interfaces
  - errors.go: error kinds
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - decimal amounts in roubles
// =============================================================================

var (
	// Hundred is used to turn percents into fractions.
	Hundred = decimal.NewFromInt(100)

	// Cent is the smallest reportable money step.
	Cent = decimal.New(1, -2)
)

// Round2 rounds a money amount to kopecks.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// RoundUnits rounds to whole roubles (used for tax per bracket).
func RoundUnits(d decimal.Decimal) decimal.Decimal { return d.Round(0) }

// Round8 rounds a daily rate for reporting.
func Round8(d decimal.Decimal) decimal.Decimal { return d.Round(8) }

// Percent converts a percent value (9.57) to a fraction (0.0957).
func Percent(p decimal.Decimal) decimal.Decimal { return p.Div(Hundred) }

// MustParseDecimal parses s or returns zero. Intended for literals in code and tests.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// MinDecimal returns the smaller of a and b.
func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// MaxDecimal returns the larger of a and b.
func MaxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// SumDecimals adds all values.
func SumDecimals(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// WithinCent reports whether a and b differ by at most one kopeck.
func WithinCent(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Cent)
}
