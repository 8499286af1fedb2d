/**
 * @description
 * DailyFinancialFacts is one employee's aggregated monetary figures for one
 * calendar date, as reported by the remote carteras API ("liquidación" /
 * "contabilidad" metrics). The reconciliation aggregator treats each instance
 * as an opaque, read-only snapshot.
 */

package domain

import "time"

// FactField names one figure of a DailyFinancialFacts record. The presentation
// layer may request a subset of fields; unrequested figures stay Absent so the
// aggregator reports dependent formulas as unavailable rather than zero.
type FactField string

const (
	FieldCollected            FactField = "collected"
	FieldLoansDisbursed       FactField = "loans_disbursed"
	FieldInterest             FactField = "interest"
	FieldExpenses             FactField = "expenses"
	FieldOpeningBase          FactField = "opening_base"
	FieldCashOutflows         FactField = "cash_outflows"
	FieldCashInflows          FactField = "cash_inflows"
	FieldCashBalance          FactField = "cash_balance"
	FieldPortfolioOutstanding FactField = "portfolio_outstanding"
)

// AllFactFields lists every requestable figure, in the order rows render them.
func AllFactFields() []FactField {
	return []FactField{
		FieldCollected,
		FieldLoansDisbursed,
		FieldInterest,
		FieldExpenses,
		FieldOpeningBase,
		FieldCashOutflows,
		FieldCashInflows,
		FieldCashBalance,
		FieldPortfolioOutstanding,
	}
}

// FieldSet is the set of figures a caller asked for. A nil FieldSet means all.
type FieldSet map[FactField]bool

// NewFieldSet builds a FieldSet from field names, ignoring empties.
func NewFieldSet(fields ...FactField) FieldSet {
	if len(fields) == 0 {
		return nil
	}
	s := make(FieldSet, len(fields))
	for _, f := range fields {
		if f != "" {
			s[f] = true
		}
	}
	return s
}

// Has reports whether the field was requested. A nil set requests everything.
func (s FieldSet) Has(f FactField) bool {
	if s == nil {
		return true
	}
	return s[f]
}

// DailyFinancialFacts holds one (employee, date) snapshot. Flow figures cover
// the day; CashBalance and PortfolioOutstanding are point-in-time readings at
// end of day. Payments carries the day's individual collection events when the
// caller needs the payment-method breakdown; it may be empty.
type DailyFinancialFacts struct {
	EmployeeID string    `json:"employee_id"`
	Date       time.Time `json:"date"`

	Collected            Figure `json:"collected"`
	LoansDisbursed       Figure `json:"loans_disbursed"`
	Interest             Figure `json:"interest"`
	Expenses             Figure `json:"expenses"`
	OpeningBase          Figure `json:"opening_base"`
	CashOutflows         Figure `json:"cash_outflows"`
	CashInflows          Figure `json:"cash_inflows"`
	CashBalance          Figure `json:"cash_balance"`
	PortfolioOutstanding Figure `json:"portfolio_outstanding"`

	PaymentCount int       `json:"payment_count"`
	Payments     []Payment `json:"payments,omitempty"`
}

// Masked returns a copy with every figure the caller did not request set to
// Absent. Counts and payments are structural, not figures, and always survive.
func (d DailyFinancialFacts) Masked(fields FieldSet) DailyFinancialFacts {
	if fields == nil {
		return d
	}
	mask := func(f FactField, v Figure) Figure {
		if fields.Has(f) {
			return v
		}
		return AbsentFigure()
	}
	d.Collected = mask(FieldCollected, d.Collected)
	d.LoansDisbursed = mask(FieldLoansDisbursed, d.LoansDisbursed)
	d.Interest = mask(FieldInterest, d.Interest)
	d.Expenses = mask(FieldExpenses, d.Expenses)
	d.OpeningBase = mask(FieldOpeningBase, d.OpeningBase)
	d.CashOutflows = mask(FieldCashOutflows, d.CashOutflows)
	d.CashInflows = mask(FieldCashInflows, d.CashInflows)
	d.CashBalance = mask(FieldCashBalance, d.CashBalance)
	d.PortfolioOutstanding = mask(FieldPortfolioOutstanding, d.PortfolioOutstanding)
	return d
}
