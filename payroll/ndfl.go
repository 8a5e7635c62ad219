package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/warp/wage-arrears/generic"
)

// =============================================================================
// NDFL - Progressive personal income tax on year-to-date gross
// =============================================================================

// Bracket applies Rate to the part of annual income at or above From.
type Bracket struct {
	From decimal.Decimal
	Rate decimal.Decimal
}

// Brackets is the progressive scale in force from 2025, ordered by From.
var Brackets = []Bracket{
	{From: decimal.Zero, Rate: decimal.RequireFromString("0.13")},
	{From: decimal.NewFromInt(2_400_000), Rate: decimal.RequireFromString("0.15")},
	{From: decimal.NewFromInt(5_000_000), Rate: decimal.RequireFromString("0.18")},
	{From: decimal.NewFromInt(20_000_000), Rate: decimal.RequireFromString("0.20")},
	{From: decimal.NewFromInt(50_000_000), Rate: decimal.RequireFromString("0.22")},
}

// DeclaredNetFactor converts a salary declared net into gross
// (gross = net / 0.87). It is not used for tax.
var DeclaredNetFactor = decimal.RequireFromString("0.87")

// maxFixedPointSteps bounds GrossFromNet. Each step shrinks the tax error by
// at least the top rate, so convergence takes far fewer.
const maxFixedPointSteps = 64

// Ndfl returns the tax on gross given the income already received this year.
// The payment is split at bracket thresholds and each portion's tax is
// rounded to whole roubles.
func Ndfl(gross, ytd decimal.Decimal) decimal.Decimal {
	tax := decimal.Zero
	remaining := gross
	current := ytd
	for remaining.IsPositive() {
		i := bracketIndex(current)
		portion := remaining
		if i+1 < len(Brackets) {
			portion = generic.MinDecimal(remaining, Brackets[i+1].From.Sub(current))
		}
		tax = tax.Add(generic.RoundUnits(portion.Mul(Brackets[i].Rate)))
		remaining = remaining.Sub(portion)
		current = current.Add(portion)
	}
	return tax
}

// Net returns gross minus tax, in kopecks.
func Net(gross, ytd decimal.Decimal) decimal.Decimal {
	return generic.Round2(gross.Sub(Ndfl(gross, ytd)))
}

// GrossFromNet finds the gross whose Net is exactly net. Because tax is
// rounded to whole roubles several grosses can share one net; the smallest
// is returned. Non-positive net yields zero.
func GrossFromNet(net, ytd decimal.Decimal) decimal.Decimal {
	net = generic.Round2(net)
	if !net.IsPositive() {
		return decimal.Zero
	}

	// Gross is net plus the tax on it: iterate T = Ndfl(net+T) from below.
	// Ndfl is monotone with slope under one, so the sequence rises to the
	// least fixed point.
	tax := decimal.Zero
	for i := 0; i < maxFixedPointSteps; i++ {
		next := Ndfl(net.Add(tax), ytd)
		if next.Equal(tax) {
			return net.Add(tax)
		}
		tax = next
	}
	return grossFromNetByBrackets(net, ytd)
}

// grossFromNetByBrackets inverts the scale bracket by bracket without
// rounding, as the fallback estimate.
func grossFromNetByBrackets(net, ytd decimal.Decimal) decimal.Decimal {
	gross := decimal.Zero
	remaining := net
	current := ytd
	one := decimal.NewFromInt(1)
	for remaining.GreaterThan(generic.Cent) {
		i := bracketIndex(current)
		keep := one.Sub(Brackets[i].Rate)
		if i+1 == len(Brackets) {
			gross = gross.Add(remaining.Div(keep))
			break
		}
		room := Brackets[i+1].From.Sub(current)
		netInBracket := room.Mul(keep)
		if remaining.LessThanOrEqual(netInBracket) {
			gross = gross.Add(remaining.Div(keep))
			break
		}
		gross = gross.Add(room)
		remaining = remaining.Sub(netInBracket)
		current = Brackets[i+1].From
	}
	return generic.Round2(gross)
}

// DeclaredToGross converts a declared salary to gross.
func DeclaredToGross(amount decimal.Decimal, kind SalaryKind) decimal.Decimal {
	if kind == SalaryNet {
		return generic.Round2(amount.Div(DeclaredNetFactor))
	}
	return amount
}

func bracketIndex(income decimal.Decimal) int {
	i := 0
	for j, b := range Brackets {
		if income.GreaterThanOrEqual(b.From) {
			i = j
		}
	}
	return i
}
