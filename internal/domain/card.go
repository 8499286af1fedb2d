/**
 * @description
 * This file defines the core domain models for the cartera-service: loan cards
 * ("tarjetas"), payments ("abonos"), and the per-card summary returned by the
 * remote carteras API. These structs are used throughout the aging, reconciliation,
 * and API layers.
 *
 * @notes
 * - Monetary amounts use shopspring/decimal; the remote system stores currency
 *   with two decimal places and float64 would blur the available-vs-zero
 *   distinctions the reconciliation layer depends on.
 * - Card dates carry no time-of-day semantics; comparisons are by calendar date
 *   in the configured local timezone.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentModality determines the calendar interval between scheduled installments.
type PaymentModality string

const (
	ModalityDaily    PaymentModality = "daily"
	ModalityWeekly   PaymentModality = "weekly"
	ModalityBiweekly PaymentModality = "biweekly"
	ModalityMonthly  PaymentModality = "monthly"
)

// IntervalDays returns the number of calendar days between installments for the
// modality. Unknown modalities fall back to daily, matching the remote system's
// COALESCE(modalidad_pago, 'diario') behavior.
func (m PaymentModality) IntervalDays() int {
	switch m {
	case ModalityWeekly:
		return 7
	case ModalityBiweekly:
		return 15
	case ModalityMonthly:
		return 30
	default:
		return 1
	}
}

// CardState is the lifecycle state of a loan card.
type CardState string

const (
	CardActive    CardState = "active"
	CardCancelled CardState = "cancelled"
	CardPending   CardState = "pending"
)

// LoanCard represents one extended installment loan contract ("tarjeta").
type LoanCard struct {
	Code             string          `json:"code"`
	Principal        decimal.Decimal `json:"principal"`
	InterestPercent  int64           `json:"interest_percent"`
	InstallmentCount int             `json:"installment_count"`
	Modality         PaymentModality `json:"payment_modality"`
	CreationDate     time.Time       `json:"creation_date"`
	State            CardState       `json:"state"`
	RouteNumber      *int            `json:"route_number,omitempty"`
}

var oneHundred = decimal.NewFromInt(100)

// TotalPayable is the principal plus the flat interest applied once at creation.
func (c LoanCard) TotalPayable() decimal.Decimal {
	interest := c.Principal.Mul(decimal.NewFromInt(c.InterestPercent)).Div(oneHundred)
	return c.Principal.Add(interest)
}

// InstallmentValue is the amount due per scheduled installment. Zero when the
// installment count is not positive; callers must treat such cards as malformed.
func (c LoanCard) InstallmentValue() decimal.Decimal {
	if c.InstallmentCount <= 0 {
		return decimal.Zero
	}
	return c.TotalPayable().Div(decimal.NewFromInt(int64(c.InstallmentCount)))
}

// FinalDueDate is the date by which the card should be fully paid:
// creation date plus one modality interval per installment.
func (c LoanCard) FinalDueDate() time.Time {
	return c.CreationDate.AddDate(0, 0, c.InstallmentCount*c.Modality.IntervalDays())
}

// Payment is one recorded collection event ("abono") against a loan card.
// Payments are append-only; corrections happen by deletion, never mutation.
type Payment struct {
	ID        uuid.UUID       `json:"id"`
	CardCode  string          `json:"card_code"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"payment_method,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// CardSummary is the remote system's per-card balance snapshot.
// PendingInstallmentsAsOf is signed: negative means the card is behind schedule
// by that many installments. Nil pointers mean the remote system did not supply
// the figure.
type CardSummary struct {
	CardCode                string          `json:"card_code"`
	OutstandingBalance      decimal.Decimal `json:"outstanding_balance"`
	InstallmentValue        decimal.Decimal `json:"installment_value"`
	RemainingInstallments   int             `json:"remaining_installments"`
	TotalPaid               decimal.Decimal `json:"total_paid"`
	PendingInstallmentsAsOf *int            `json:"pending_installments_as_of,omitempty"`
	DaysPastFinalDue        *int            `json:"days_past_final_due,omitempty"`
	State                   CardState       `json:"card_state"`
}

// SameLocalDay reports whether two instants fall on the same calendar date in loc.
func SameLocalDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns the whole calendar days from a to b (b - a), ignoring
// time of day, in loc.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}
