/**
 * @description
 * This package classifies loan cards into collectability tiers from their
 * lateness. Classification is a pure function over one card, its payment
 * history, an optional remote summary, and a reference date: no I/O, no
 * side effects, safe for concurrent use.
 *
 * Lateness combines two measures:
 *   - installments late: how many scheduled installments the card is behind
 *     as of the reference date, and
 *   - days past final due date: how far past the card's modality-aware
 *     completion date the reference date is.
 * Their sum maps onto the fixed bucket table below.
 */

package aging

import (
	"errors"
	"fmt"
	"time"

	"github.com/gestioncarteras/cartera-service/internal/domain"
	"github.com/shopspring/decimal"
)

// Bucket is a collectability tier. Tiers are ordered from best to worst and
// partition total lateness days without overlap.
type Bucket string

const (
	BucketExcellent Bucket = "excellent" // 0 days
	BucketGood      Bucket = "good"      // 1-6 days
	BucketFair      Bucket = "fair"      // 7-15 days
	BucketPoor      Bucket = "poor"      // 16-60 days
	BucketWriteoff  Bucket = "writeoff"  // >60 days ("clavo")
)

// WriteoffThresholdDays is the lateness beyond which a card is considered
// uncollectable.
const WriteoffThresholdDays = 60

// ErrInvalidInstallmentCount marks cards whose due-date math is meaningless.
// Callers exclude such cards from aggregates; the error is never fatal.
var ErrInvalidInstallmentCount = errors.New("aging: card has non-positive installment count")

// Result is the outcome of classifying one card.
type Result struct {
	CardCode          string          `json:"card_code"`
	InstallmentsLate  int             `json:"installments_late"`
	DaysPastFinalDue  int             `json:"days_past_final_due"`
	TotalLatenessDays int             `json:"total_lateness_days"`
	Bucket            Bucket          `json:"bucket"`
	HasPaymentToday   bool            `json:"has_payment_today"`
	CollectedToday    decimal.Decimal `json:"collected_today"`
}

// Classify computes the aging result for card as of asOf (interpreted as a
// calendar date in loc).
//
// When summary carries a signed pending-installments figure, that remote value
// is authoritative: negative means behind schedule by that many installments.
// Without a summary the classifier does not attempt to reconstruct installment
// lateness from payment amounts and reports zero installments late; callers
// that want a local approximation derive a summary first (domain.DeriveCardSummary)
// and pass it in.
func Classify(card domain.LoanCard, payments []domain.Payment, summary *domain.CardSummary, asOf time.Time, loc *time.Location) (Result, error) {
	if card.InstallmentCount <= 0 {
		return Result{}, fmt.Errorf("card %s: %w", card.Code, ErrInvalidInstallmentCount)
	}
	if loc == nil {
		loc = time.Local
	}

	daysPast := domain.DaysBetween(card.FinalDueDate(), asOf, loc)
	if daysPast < 0 {
		daysPast = 0
	}

	installmentsLate := 0
	if summary != nil && summary.PendingInstallmentsAsOf != nil {
		if pending := *summary.PendingInstallmentsAsOf; pending < 0 {
			installmentsLate = -pending
		}
	}

	total := installmentsLate + daysPast

	res := Result{
		CardCode:          card.Code,
		InstallmentsLate:  installmentsLate,
		DaysPastFinalDue:  daysPast,
		TotalLatenessDays: total,
		Bucket:            bucketFor(total),
		CollectedToday:    decimal.Zero,
	}
	for _, p := range payments {
		if domain.SameLocalDay(p.Timestamp, asOf, loc) {
			res.HasPaymentToday = true
			res.CollectedToday = res.CollectedToday.Add(p.Amount)
		}
	}
	return res, nil
}

func bucketFor(latenessDays int) Bucket {
	switch {
	case latenessDays <= 0:
		return BucketExcellent
	case latenessDays <= 6:
		return BucketGood
	case latenessDays <= 15:
		return BucketFair
	case latenessDays <= WriteoffThresholdDays:
		return BucketPoor
	default:
		return BucketWriteoff
	}
}
