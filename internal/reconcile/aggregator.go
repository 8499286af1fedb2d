/**
 * @description
 * This package turns a date range of per-day financial facts into a period
 * reconciliation: daily rows, weekly subtotal rows every 7 days, a month
 * subtotal every 4 completed weeks, a trailing period total, and the derived
 * formulas (profit, cash, portfolio growth, collected breakdown).
 *
 * Aggregation is pure: identical input always produces an identical
 * PeriodSummary. Every formula output is a domain.Figure so a missing operand
 * surfaces as "unavailable" instead of collapsing to zero.
 *
 * Failure policy: a day whose remote fetch failed contributes zero to the
 * requested flow figures and marks the summary Partial. Point-in-time figures
 * for such a day stay absent: there is no meaningful "last seen" value to
 * carry.
 */

package reconcile

import (
	"fmt"
	"sort"
	"time"

	"github.com/gestioncarteras/cartera-service/internal/domain"
	"github.com/shopspring/decimal"
)

// RowKind distinguishes daily rows from the subtotal rows interleaved with them.
type RowKind string

const (
	RowDaily RowKind = "daily"
	RowWeek  RowKind = "week"
	RowMonth RowKind = "month"
	RowTotal RowKind = "total"
)

// Row is one line of the reconciliation table. Flow figures are summed across
// the rows a subtotal covers; CashBalance and PortfolioOutstanding are
// point-in-time readings and carry the last present value instead.
type Row struct {
	Label string     `json:"label"`
	Kind  RowKind    `json:"kind"`
	Date  *time.Time `json:"date,omitempty"`

	PaymentCount int `json:"payment_count"`

	Collected      domain.Figure `json:"collected"`
	LoansDisbursed domain.Figure `json:"loans_disbursed"`
	Interest       domain.Figure `json:"interest"`
	Expenses       domain.Figure `json:"expenses"`
	OpeningBase    domain.Figure `json:"opening_base"`
	CashInflows    domain.Figure `json:"cash_inflows"`
	CashOutflows   domain.Figure `json:"cash_outflows"`

	CashBalance          domain.Figure `json:"cash_balance"`
	PortfolioOutstanding domain.Figure `json:"portfolio_outstanding"`
}

// Breakdown partitions collected money by payment method. Payments whose
// method matches neither tag are counted in the overall collected total only.
type Breakdown struct {
	Cash         decimal.Decimal `json:"cash"`
	WireTransfer decimal.Decimal `json:"wire_transfer"`
}

// DayInput is one day's contribution to a period. Facts is nil when the
// remote fetch for that day failed; Err records why.
type DayInput struct {
	Date  time.Time
	Facts *domain.DailyFinancialFacts
	Err   error
}

// PeriodSummary is the full reconciliation for a date range.
type PeriodSummary struct {
	EmployeeID string    `json:"employee_id"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`

	DailyRows   []Row `json:"daily_rows"`
	WeeklyRows  []Row `json:"weekly_rows"`
	MonthlyRows []Row `json:"monthly_rows"`
	Total       Row   `json:"total"`

	Profit          domain.Figure `json:"profit"`
	Cash            domain.Figure `json:"cash"`
	PortfolioGrowth domain.Figure `json:"portfolio_growth"`
	GrowthPercent   domain.Figure `json:"growth_percent"`

	CollectedBreakdown Breakdown `json:"collected_breakdown"`

	Partial bool `json:"partial"`
}

const (
	daysPerWeekRow   = 7
	weeksPerMonthRow = 4
)

// AggregatePeriod builds the PeriodSummary for employeeID over days. Days are
// re-sequenced by date, so concurrent fetches may deliver them in any order.
// fields limits which figures participate; nil means all.
func AggregatePeriod(employeeID string, days []DayInput, fields domain.FieldSet) PeriodSummary {
	ordered := make([]DayInput, len(days))
	copy(ordered, days)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	summary := PeriodSummary{EmployeeID: employeeID}
	if len(ordered) > 0 {
		summary.From = ordered[0].Date
		summary.To = ordered[len(ordered)-1].Date
	}

	daily := make([]Row, 0, len(ordered))
	for _, day := range ordered {
		if day.Facts == nil || day.Err != nil {
			summary.Partial = true
		}
		daily = append(daily, dailyRow(day, fields))
	}
	summary.DailyRows = daily

	var week, month, total accumulator
	weekIdx := 1
	daysInWeek := 0
	weeksInMonthBlock := 0

	for i, row := range daily {
		week.add(row)
		total.add(row)
		daysInWeek++

		lastDay := i == len(daily)-1
		if daysInWeek == daysPerWeekRow || lastDay {
			summary.WeeklyRows = append(summary.WeeklyRows, week.row(fmt.Sprintf("Week %d", weekIdx), RowWeek))
			month.fold(week)
			week = accumulator{}
			daysInWeek = 0
			weekIdx++
			weeksInMonthBlock++
		}
		if weeksInMonthBlock == weeksPerMonthRow || (lastDay && weeksInMonthBlock > 0) {
			summary.MonthlyRows = append(summary.MonthlyRows, month.row("Month total", RowMonth))
			month = accumulator{}
			weeksInMonthBlock = 0
		}
	}
	summary.Total = total.row("Period total", RowTotal)

	summary.Profit = summary.Total.Interest.Sub(summary.Total.Expenses)

	// Cash deliberately excludes the opening base: collected + inflows
	// - loans - expenses - outflows.
	summary.Cash = summary.Total.Collected.
		Add(summary.Total.CashInflows).
		Sub(summary.Total.LoansDisbursed).
		Sub(summary.Total.Expenses).
		Sub(summary.Total.CashOutflows)

	if len(daily) > 0 {
		start := daily[0].PortfolioOutstanding
		end := daily[len(daily)-1].PortfolioOutstanding
		summary.PortfolioGrowth = end.Sub(start)
		if growth, ok := summary.PortfolioGrowth.Value(); ok {
			if startVal, ok := start.Value(); ok && !startVal.IsZero() {
				summary.GrowthPercent = domain.FigureOf(
					growth.Div(startVal).Mul(decimal.NewFromInt(100)))
			}
		}
	}

	summary.CollectedBreakdown = collectedBreakdown(ordered)
	return summary
}

func dailyRow(day DayInput, fields domain.FieldSet) Row {
	date := day.Date
	row := Row{
		Label: date.Format("2006-01-02"),
		Kind:  RowDaily,
		Date:  &date,
	}
	if day.Facts == nil || day.Err != nil {
		// Degraded day: requested flows contribute an explicit zero.
		zero := domain.FigureOf(decimal.Zero)
		apply := func(f domain.FactField, dst *domain.Figure) {
			if fields.Has(f) {
				*dst = zero
			}
		}
		apply(domain.FieldCollected, &row.Collected)
		apply(domain.FieldLoansDisbursed, &row.LoansDisbursed)
		apply(domain.FieldInterest, &row.Interest)
		apply(domain.FieldExpenses, &row.Expenses)
		apply(domain.FieldOpeningBase, &row.OpeningBase)
		apply(domain.FieldCashInflows, &row.CashInflows)
		apply(domain.FieldCashOutflows, &row.CashOutflows)
		return row
	}

	facts := day.Facts.Masked(fields)
	row.PaymentCount = facts.PaymentCount
	row.Collected = facts.Collected
	row.LoansDisbursed = facts.LoansDisbursed
	row.Interest = facts.Interest
	row.Expenses = facts.Expenses
	row.OpeningBase = facts.OpeningBase
	row.CashInflows = facts.CashInflows
	row.CashOutflows = facts.CashOutflows
	row.CashBalance = facts.CashBalance
	row.PortfolioOutstanding = facts.PortfolioOutstanding
	return row
}

// accumulator folds rows into a subtotal. Flow figures sum; point-in-time
// figures keep the last present value seen.
type accumulator struct {
	paymentCount int

	collected      domain.Figure
	loansDisbursed domain.Figure
	interest       domain.Figure
	expenses       domain.Figure
	openingBase    domain.Figure
	cashInflows    domain.Figure
	cashOutflows   domain.Figure

	cashBalance          domain.Figure
	portfolioOutstanding domain.Figure
}

func (a *accumulator) add(r Row) {
	a.paymentCount += r.PaymentCount
	a.collected = a.collected.Accumulate(r.Collected)
	a.loansDisbursed = a.loansDisbursed.Accumulate(r.LoansDisbursed)
	a.interest = a.interest.Accumulate(r.Interest)
	a.expenses = a.expenses.Accumulate(r.Expenses)
	a.openingBase = a.openingBase.Accumulate(r.OpeningBase)
	a.cashInflows = a.cashInflows.Accumulate(r.CashInflows)
	a.cashOutflows = a.cashOutflows.Accumulate(r.CashOutflows)
	if r.CashBalance.Present() {
		a.cashBalance = r.CashBalance
	}
	if r.PortfolioOutstanding.Present() {
		a.portfolioOutstanding = r.PortfolioOutstanding
	}
}

// fold merges a completed week into the month accumulator.
func (a *accumulator) fold(week accumulator) {
	a.paymentCount += week.paymentCount
	a.collected = a.collected.Accumulate(week.collected)
	a.loansDisbursed = a.loansDisbursed.Accumulate(week.loansDisbursed)
	a.interest = a.interest.Accumulate(week.interest)
	a.expenses = a.expenses.Accumulate(week.expenses)
	a.openingBase = a.openingBase.Accumulate(week.openingBase)
	a.cashInflows = a.cashInflows.Accumulate(week.cashInflows)
	a.cashOutflows = a.cashOutflows.Accumulate(week.cashOutflows)
	if week.cashBalance.Present() {
		a.cashBalance = week.cashBalance
	}
	if week.portfolioOutstanding.Present() {
		a.portfolioOutstanding = week.portfolioOutstanding
	}
}

func (a *accumulator) row(label string, kind RowKind) Row {
	return Row{
		Label:                label,
		Kind:                 kind,
		PaymentCount:         a.paymentCount,
		Collected:            a.collected,
		LoansDisbursed:       a.loansDisbursed,
		Interest:             a.interest,
		Expenses:             a.expenses,
		OpeningBase:          a.openingBase,
		CashInflows:          a.cashInflows,
		CashOutflows:         a.cashOutflows,
		CashBalance:          a.cashBalance,
		PortfolioOutstanding: a.portfolioOutstanding,
	}
}
