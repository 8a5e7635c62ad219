package payroll

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INCOME LEDGER - Gross already received, per calendar year
// =============================================================================

// IncomeLedger accumulates gross per year so each payment is taxed at the
// bracket the year has reached. Totals only grow. A ledger belongs to one
// pass of one calculation.
type IncomeLedger struct {
	byYear map[int]decimal.Decimal
}

func NewIncomeLedger() *IncomeLedger {
	return &IncomeLedger{byYear: make(map[int]decimal.Decimal)}
}

// Get returns the gross recorded for the year so far.
func (l *IncomeLedger) Get(year int) decimal.Decimal {
	return l.byYear[year]
}

// Add records gross for the year. Non-positive amounts are ignored.
func (l *IncomeLedger) Add(year int, gross decimal.Decimal) {
	if !gross.IsPositive() {
		return
	}
	l.byYear[year] = l.byYear[year].Add(gross)
}

// Years lists the years with recorded income, ascending.
func (l *IncomeLedger) Years() []int {
	out := make([]int, 0, len(l.byYear))
	for y := range l.byYear {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}
