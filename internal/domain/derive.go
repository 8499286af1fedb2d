package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SumPayments totals the amounts of a payment list.
func SumPayments(payments []Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

// SumPaymentsOnDay totals the payments whose local calendar date equals day.
func SumPaymentsOnDay(payments []Payment, day time.Time, loc *time.Location) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if SameLocalDay(p.Timestamp, day, loc) {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// DeriveCardSummary computes a best-effort CardSummary from a card and its
// payment history, for use when the remote summary cannot be fetched.
//
// Expected installments accrue one per calendar day regardless of payment
// modality. That mirrors the remote system's own local derivation and is
// intentionally not schedule-aware; the modality-aware final due date is the
// only place the installment interval enters the math.
func DeriveCardSummary(card LoanCard, payments []Payment, asOf time.Time, loc *time.Location) CardSummary {
	totalPayable := card.TotalPayable()
	installmentValue := card.InstallmentValue()
	totalPaid := SumPayments(payments)

	outstanding := totalPayable.Sub(totalPaid)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}

	paidInstallments := 0
	if installmentValue.IsPositive() {
		paidInstallments = int(totalPaid.Div(installmentValue).IntPart())
	}

	daysElapsed := DaysBetween(card.CreationDate, asOf, loc)
	if daysElapsed < 0 {
		daysElapsed = 0
	}
	expected := daysElapsed
	if expected > card.InstallmentCount {
		expected = card.InstallmentCount
	}

	// Signed: negative means behind schedule by that many installments.
	pending := paidInstallments - expected

	remaining := card.InstallmentCount - paidInstallments
	if remaining < 0 {
		remaining = 0
	}

	summary := CardSummary{
		CardCode:              card.Code,
		OutstandingBalance:    outstanding,
		InstallmentValue:      installmentValue,
		RemainingInstallments: remaining,
		TotalPaid:             totalPaid,
		State:                 card.State,
	}
	if card.InstallmentCount > 0 {
		summary.PendingInstallmentsAsOf = &pending
		daysPast := DaysBetween(card.FinalDueDate(), asOf, loc)
		if daysPast < 0 {
			daysPast = 0
		}
		summary.DaysPastFinalDue = &daysPast
	}
	return summary
}
