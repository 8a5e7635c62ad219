package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/warp/wage-arrears/generic"
)

// =============================================================================
// INDEXATION OVERLAY - Every payment repriced at the indexed salary
// =============================================================================

// IndexationOverlay fills the indexed gross, indexed net and underpayment of
// built events. It walks the events in their (payment date, kind) order with
// its own ledger. That ledger advances by the paid gross, so each indexed
// payment is taxed at the bracket the year actually reached.
type IndexationOverlay struct {
	curve *SalaryCurve
}

func NewIndexationOverlay(curve *SalaryCurve) *IndexationOverlay {
	return &IndexationOverlay{curve: curve}
}

// Apply reprices events in place and moves them to StateIndexed.
func (o *IndexationOverlay) Apply(events []PaymentEvent) error {
	ledger := NewIncomeLedger()
	for i := range events {
		e := &events[i]
		year := e.PaymentDate.Year()

		e.GrossIndexed = o.indexedGross(*e)
		e.NetIndexed = Net(e.GrossIndexed, ledger.Get(year))
		if e.NetIndexed.IsNegative() {
			return generic.NumericDomain("negative indexed net for %s on %s: %s", e.Kind, e.PaymentDate, e.NetIndexed)
		}
		e.Underpayment = generic.Round2(e.NetIndexed.Sub(e.NetPaid))
		e.State = StateIndexed

		ledger.Add(year, e.GrossPaid)
	}
	return nil
}

// Skip marks events indexed without repricing, for runs that do not compute
// indexation arrears.
func (o *IndexationOverlay) Skip(events []PaymentEvent) {
	for i := range events {
		events[i].GrossIndexed = events[i].GrossPaid
		events[i].NetIndexed = events[i].NetPaid
		events[i].Underpayment = decimal.Zero
		events[i].State = StateIndexed
	}
}

// indexedGross scales the paid gross. Salary installments scale by the
// ratio of indexed to contractual salary on the 15th of their month. Leave
// payments scale by the indexed salary on the payment date over the base
// salary, or over the contractual salary when no base is given. Payments
// before the first unperformed indexation are unchanged.
func (o *IndexationOverlay) indexedGross(e PaymentEvent) decimal.Decimal {
	first, ok := o.curve.FirstUnperformed()
	if !ok {
		return e.GrossPaid
	}

	if e.Kind.IsMonthly() {
		mid := generic.MidMonth(e.Year, e.Month)
		if mid.Before(first) {
			return e.GrossPaid
		}
		contractual := o.curve.Contractual(mid)
		if !contractual.IsPositive() {
			return e.GrossPaid
		}
		return generic.Round2(e.GrossPaid.Mul(o.curve.IndexedExact(mid)).Div(contractual))
	}

	if e.PaymentDate.Before(first) {
		return e.GrossPaid
	}
	base, ok := o.curve.BaseGross()
	if !ok {
		base = o.curve.Contractual(e.PaymentDate)
	}
	if !base.IsPositive() {
		return e.GrossPaid
	}
	return generic.Round2(e.GrossPaid.Mul(o.curve.IndexedExact(e.PaymentDate)).Div(base))
}
