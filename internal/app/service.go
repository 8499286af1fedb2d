/**
 * @description
 * This file contains the core orchestration logic for the cartera-service. The
 * `Service` struct coordinates the remote carteras API client, the aging
 * classifier, the period reconciliation aggregator, the summary cache, and the
 * daily-close event producer.
 *
 * Key features:
 * - Fans out independent per-day and per-card fetches on a bounded worker pool
 *   and re-sequences the results by date index before rollup.
 * - Degrades gracefully: a failed per-day or per-card fetch contributes zero
 *   (or is excluded) and flags the overall result as partial instead of failing
 *   the whole aggregation.
 * - Memoizes period summaries keyed by (employee, date range, fields); cache
 *   writes replace the entry wholesale.
 *
 * @dependencies
 * - internal/aging, internal/reconcile, internal/domain: pure computation layers.
 * - pkg/carteraclient (via RemoteSource), pkg/rabbitmq (via ClosePublisher).
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gestioncarteras/cartera-service/internal/aging"
	"github.com/gestioncarteras/cartera-service/internal/domain"
	"github.com/gestioncarteras/cartera-service/internal/reconcile"
	"github.com/gestioncarteras/cartera-service/pkg/rabbitmq"
	"github.com/shopspring/decimal"
)

// RemoteSource is the collaborator contract for the remote carteras API. The
// service never talks to the network directly; the client is injected here so
// tests can stub it and no hidden global session exists.
type RemoteSource interface {
	FetchCard(ctx context.Context, code string) (domain.LoanCard, error)
	FetchCardSummary(ctx context.Context, code string) (domain.CardSummary, error)
	FetchPayments(ctx context.Context, code string) ([]domain.Payment, error)
	FetchActiveCards(ctx context.Context, employeeID string) ([]domain.LoanCard, error)
	FetchDailyFacts(ctx context.Context, employeeID string, date time.Time) (domain.DailyFinancialFacts, error)
	UpdateCardState(ctx context.Context, code string, state domain.CardState) error
}

// ClosePublisher publishes daily-close events. A nil publisher disables the hook.
type ClosePublisher interface {
	PublishDailyClose(ctx context.Context, event rabbitmq.DailyCloseEvent) error
}

// Service provides the collection-management operations exposed to the
// presentation layer.
type Service struct {
	source    RemoteSource
	cache     SummaryCache
	publisher ClosePublisher
	logger    *slog.Logger
	loc       *time.Location
	workers   int
}

// NewService creates a Service. cache may be nil (no memoization) and
// publisher may be nil (no daily-close events).
func NewService(source RemoteSource, cache SummaryCache, publisher ClosePublisher, logger *slog.Logger, loc *time.Location, workers int) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	if workers <= 0 {
		workers = defaultFetchWorkers
	}
	return &Service{
		source:    source,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		loc:       loc,
		workers:   workers,
	}
}

const defaultFetchWorkers = 8

// Location returns the service's configured local timezone.
func (s *Service) Location() *time.Location { return s.loc }

// CardAging classifies one card as of asOf. When the remote summary cannot be
// fetched, a local best-effort summary is derived from the card and its
// payments before classifying.
func (s *Service) CardAging(ctx context.Context, code string, asOf time.Time) (aging.Result, error) {
	card, err := s.source.FetchCard(ctx, code)
	if err != nil {
		return aging.Result{}, fmt.Errorf("fetch card %s: %w", code, err)
	}
	payments, err := s.source.FetchPayments(ctx, code)
	if err != nil {
		return aging.Result{}, fmt.Errorf("fetch payments for card %s: %w", code, err)
	}
	summary := s.summaryFor(ctx, card, payments, asOf)
	return aging.Classify(card, payments, &summary, asOf, s.loc)
}

func (s *Service) summaryFor(ctx context.Context, card domain.LoanCard, payments []domain.Payment, asOf time.Time) domain.CardSummary {
	summary, err := s.source.FetchCardSummary(ctx, card.Code)
	if err != nil {
		s.logger.Warn("card summary fetch failed; deriving locally",
			"card", card.Code, "error", err)
		return domain.DeriveCardSummary(card, payments, asOf, s.loc)
	}
	return summary
}

// BucketSlice is one tier of a portfolio aging report.
type BucketSlice struct {
	Bucket      aging.Bucket    `json:"bucket"`
	CardCount   int             `json:"card_count"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// PortfolioReport groups an employee's active cards by collectability tier.
type PortfolioReport struct {
	EmployeeID            string          `json:"employee_id"`
	AsOf                  time.Time       `json:"as_of"`
	Buckets               []BucketSlice   `json:"buckets"`
	CardsWithPaymentToday int             `json:"cards_with_payment_today"`
	CollectedToday        decimal.Decimal `json:"collected_today"`
	ExcludedCards         []string        `json:"excluded_cards,omitempty"`
	Partial               bool            `json:"partial"`
}

type cardAgingOutcome struct {
	code        string
	result      aging.Result
	outstanding decimal.Decimal
	err         error
	malformed   bool
}

// PortfolioAging classifies every active card of an employee concurrently and
// returns per-bucket counts and outstanding balances. Malformed cards are
// excluded and listed; failed per-card fetches degrade to an omitted
// contribution with Partial=true.
func (s *Service) PortfolioAging(ctx context.Context, employeeID string, asOf time.Time) (PortfolioReport, error) {
	cards, err := s.source.FetchActiveCards(ctx, employeeID)
	if err != nil {
		return PortfolioReport{}, fmt.Errorf("fetch active cards for employee %s: %w", employeeID, err)
	}

	outcomes := fanOut(ctx, s.workers, len(cards), func(ctx context.Context, i int) cardAgingOutcome {
		return s.classifyOne(ctx, cards[i], asOf)
	})
	if ctx.Err() != nil {
		return PortfolioReport{}, ctx.Err()
	}

	report := PortfolioReport{
		EmployeeID:     employeeID,
		AsOf:           asOf,
		CollectedToday: decimal.Zero,
	}
	tally := map[aging.Bucket]*BucketSlice{}
	for _, b := range []aging.Bucket{aging.BucketExcellent, aging.BucketGood, aging.BucketFair, aging.BucketPoor, aging.BucketWriteoff} {
		slice := &BucketSlice{Bucket: b, Outstanding: decimal.Zero}
		tally[b] = slice
	}

	for _, out := range outcomes {
		switch {
		case out.malformed:
			report.ExcludedCards = append(report.ExcludedCards, out.code)
		case out.err != nil:
			s.logger.Warn("card aging degraded", "card", out.code, "error", out.err)
			report.Partial = true
		default:
			slice := tally[out.result.Bucket]
			slice.CardCount++
			slice.Outstanding = slice.Outstanding.Add(out.outstanding)
			if out.result.HasPaymentToday {
				report.CardsWithPaymentToday++
				report.CollectedToday = report.CollectedToday.Add(out.result.CollectedToday)
			}
		}
	}
	for _, b := range []aging.Bucket{aging.BucketExcellent, aging.BucketGood, aging.BucketFair, aging.BucketPoor, aging.BucketWriteoff} {
		report.Buckets = append(report.Buckets, *tally[b])
	}
	return report, nil
}

func (s *Service) classifyOne(ctx context.Context, card domain.LoanCard, asOf time.Time) cardAgingOutcome {
	payments, err := s.source.FetchPayments(ctx, card.Code)
	if err != nil {
		return cardAgingOutcome{code: card.Code, err: err}
	}
	summary := s.summaryFor(ctx, card, payments, asOf)
	result, err := aging.Classify(card, payments, &summary, asOf, s.loc)
	if err != nil {
		if errors.Is(err, aging.ErrInvalidInstallmentCount) {
			s.logger.Warn("excluding malformed card from aging", "card", card.Code, "error", err)
			return cardAgingOutcome{code: card.Code, malformed: true}
		}
		return cardAgingOutcome{code: card.Code, err: err}
	}
	return cardAgingOutcome{
		code:        card.Code,
		result:      result,
		outstanding: summary.OutstandingBalance,
	}
}

// WriteoffReport totals the outstanding balance tied up in severely delinquent
// ("clavo") cards as of a cutoff date.
type WriteoffReport struct {
	EmployeeID  string          `json:"employee_id"`
	Cutoff      time.Time       `json:"cutoff"`
	CardCount   int             `json:"card_count"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Partial     bool            `json:"partial"`
}

// WriteoffExposure sums the outstanding balances of active cards whose final
// due date is WriteoffThresholdDays or more behind the cutoff. Cards with a
// non-positive balance are skipped even when their state still says active.
func (s *Service) WriteoffExposure(ctx context.Context, employeeID string, cutoff time.Time) (WriteoffReport, error) {
	cards, err := s.source.FetchActiveCards(ctx, employeeID)
	if err != nil {
		return WriteoffReport{}, fmt.Errorf("fetch active cards for employee %s: %w", employeeID, err)
	}

	report := WriteoffReport{EmployeeID: employeeID, Cutoff: cutoff, Outstanding: decimal.Zero}
	type exposure struct {
		amount decimal.Decimal
		clavo  bool
		err    error
	}
	outcomes := fanOut(ctx, s.workers, len(cards), func(ctx context.Context, i int) exposure {
		card := cards[i]
		if card.InstallmentCount <= 0 {
			s.logger.Warn("excluding malformed card from writeoff exposure", "card", card.Code)
			return exposure{}
		}
		daysPast := domain.DaysBetween(card.FinalDueDate(), cutoff, s.loc)
		if daysPast < aging.WriteoffThresholdDays {
			return exposure{}
		}
		summary, err := s.source.FetchCardSummary(ctx, card.Code)
		if err != nil {
			payments, perr := s.source.FetchPayments(ctx, card.Code)
			if perr != nil {
				return exposure{err: err}
			}
			summary = domain.DeriveCardSummary(card, payments, cutoff, s.loc)
		}
		if !summary.OutstandingBalance.IsPositive() {
			return exposure{}
		}
		return exposure{amount: summary.OutstandingBalance, clavo: true}
	})
	if ctx.Err() != nil {
		return WriteoffReport{}, ctx.Err()
	}

	for _, out := range outcomes {
		if out.err != nil {
			s.logger.Warn("writeoff exposure degraded", "employee", employeeID, "error", out.err)
			report.Partial = true
			continue
		}
		if out.clavo {
			report.CardCount++
			report.Outstanding = report.Outstanding.Add(out.amount)
		}
	}
	return report, nil
}

// PeriodSummary aggregates an employee's daily facts over [from, to]. fields
// limits which figures are requested; nil requests all. Results are memoized;
// a cached summary is returned as-is until its entry expires.
func (s *Service) PeriodSummary(ctx context.Context, employeeID string, from, to time.Time, fields domain.FieldSet) (reconcile.PeriodSummary, error) {
	if to.Before(from) {
		return reconcile.PeriodSummary{}, fmt.Errorf("period end %s precedes start %s", to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	key := SummaryCacheKey(employeeID, from, to, fields)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			return cached, nil
		}
	}

	dates := datesIn(from, to)
	days := fanOut(ctx, s.workers, len(dates), func(ctx context.Context, i int) reconcile.DayInput {
		facts, err := s.source.FetchDailyFacts(ctx, employeeID, dates[i])
		if err != nil {
			s.logger.Warn("daily facts fetch failed; day degrades to zero",
				"employee", employeeID, "date", dates[i].Format("2006-01-02"), "error", err)
			return reconcile.DayInput{Date: dates[i], Err: err}
		}
		return reconcile.DayInput{Date: dates[i], Facts: &facts}
	})
	if ctx.Err() != nil {
		return reconcile.PeriodSummary{}, ctx.Err()
	}

	summary := reconcile.AggregatePeriod(employeeID, days, fields)
	if s.cache != nil {
		s.cache.Set(ctx, key, summary)
	}
	return summary, nil
}

// DailyClose computes the single-day summary for an employee and publishes a
// close event when a publisher is configured. Publish failures are logged,
// never propagated; the close itself already succeeded.
func (s *Service) DailyClose(ctx context.Context, employeeID string, date time.Time) (reconcile.PeriodSummary, error) {
	summary, err := s.PeriodSummary(ctx, employeeID, date, date, nil)
	if err != nil {
		return reconcile.PeriodSummary{}, err
	}
	if s.publisher != nil {
		event := rabbitmq.DailyCloseEvent{
			EmployeeID:   employeeID,
			Date:         date.Format("2006-01-02"),
			PaymentCount: summary.Total.PaymentCount,
			Partial:      summary.Partial,
			ClosedAt:     time.Now().UTC(),
		}
		if collected, ok := summary.Total.Collected.Value(); ok {
			event.Collected = &collected
		}
		if cash, ok := summary.Cash.Value(); ok {
			event.Cash = &cash
		}
		if err := s.publisher.PublishDailyClose(ctx, event); err != nil {
			s.logger.Warn("daily close event publish failed",
				"employee", employeeID, "date", event.Date, "error", err)
		}
	}
	return summary, nil
}

// datesIn lists every calendar date from from through to, inclusive.
func datesIn(from, to time.Time) []time.Time {
	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}
