package reconcile

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gestioncarteras/cartera-service/internal/domain"
)

func day(t *testing.T, date string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("bad test date %q: %v", date, err)
	}
	return d
}

func factsWithCollected(employeeID string, date time.Time, collected float64) *domain.DailyFinancialFacts {
	return &domain.DailyFinancialFacts{
		EmployeeID: employeeID,
		Date:       date,
		Collected:  domain.FigureFromFloat(collected),
	}
}

func mustValue(t *testing.T, f domain.Figure) decimal.Decimal {
	t.Helper()
	v, ok := f.Value()
	if !ok {
		t.Fatalf("figure unexpectedly absent")
	}
	return v
}

func TestAggregatePeriod_WeeklyBanding(t *testing.T) {
	start := day(t, "2026-02-02")
	var days []DayInput
	for i := 0; i < 10; i++ {
		d := start.AddDate(0, 0, i)
		days = append(days, DayInput{Date: d, Facts: factsWithCollected("emp-1", d, 100)})
	}

	s := AggregatePeriod("emp-1", days, nil)

	if len(s.DailyRows) != 10 {
		t.Fatalf("daily rows = %d, want 10", len(s.DailyRows))
	}
	if len(s.WeeklyRows) != 2 {
		t.Fatalf("weekly rows = %d, want 2", len(s.WeeklyRows))
	}
	if s.WeeklyRows[0].Label != "Week 1" || s.WeeklyRows[1].Label != "Week 2" {
		t.Fatalf("weekly labels = %q, %q", s.WeeklyRows[0].Label, s.WeeklyRows[1].Label)
	}
	if got := mustValue(t, s.WeeklyRows[0].Collected); !got.Equal(decimal.NewFromInt(700)) {
		t.Errorf("week 1 collected = %s, want 700", got)
	}
	if got := mustValue(t, s.WeeklyRows[1].Collected); !got.Equal(decimal.NewFromInt(300)) {
		t.Errorf("week 2 collected = %s, want 300", got)
	}

	// The trailing short week still closes a month block at end of range.
	if len(s.MonthlyRows) != 1 {
		t.Fatalf("monthly rows = %d, want 1", len(s.MonthlyRows))
	}
	if got := mustValue(t, s.MonthlyRows[0].Collected); !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("month collected = %s, want 1000", got)
	}

	if s.Total.Label != "Period total" {
		t.Errorf("total label = %q", s.Total.Label)
	}
	if got := mustValue(t, s.Total.Collected); !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("period collected = %s, want 1000", got)
	}
}

func TestAggregatePeriod_MonthRowEveryFourWeeks(t *testing.T) {
	start := day(t, "2026-01-05")
	var days []DayInput
	for i := 0; i < 35; i++ {
		d := start.AddDate(0, 0, i)
		days = append(days, DayInput{Date: d, Facts: factsWithCollected("emp-1", d, 10)})
	}

	s := AggregatePeriod("emp-1", days, nil)

	if len(s.WeeklyRows) != 5 {
		t.Fatalf("weekly rows = %d, want 5", len(s.WeeklyRows))
	}
	// Weeks 1-4 close the first month block; week 5 closes a second at range end.
	if len(s.MonthlyRows) != 2 {
		t.Fatalf("monthly rows = %d, want 2", len(s.MonthlyRows))
	}
	if got := mustValue(t, s.MonthlyRows[0].Collected); !got.Equal(decimal.NewFromInt(280)) {
		t.Errorf("first month collected = %s, want 280", got)
	}
	if got := mustValue(t, s.MonthlyRows[1].Collected); !got.Equal(decimal.NewFromInt(70)) {
		t.Errorf("second month collected = %s, want 70", got)
	}
}

func TestAggregatePeriod_CashExcludesOpeningBase(t *testing.T) {
	d := day(t, "2026-04-01")
	facts := &domain.DailyFinancialFacts{
		EmployeeID:     "emp-1",
		Date:           d,
		Collected:      domain.FigureFromFloat(1000),
		CashInflows:    domain.FigureFromFloat(50),
		LoansDisbursed: domain.FigureFromFloat(200),
		Expenses:       domain.FigureFromFloat(30),
		CashOutflows:   domain.FigureFromFloat(20),
		OpeningBase:    domain.FigureFromFloat(500),
		Interest:       domain.FigureFromFloat(120),
	}

	s := AggregatePeriod("emp-1", []DayInput{{Date: d, Facts: facts}}, nil)

	if got := mustValue(t, s.Cash); !got.Equal(decimal.NewFromInt(800)) {
		t.Errorf("cash = %s, want 800 (1000 + 50 - 200 - 30 - 20)", got)
	}
	if got := mustValue(t, s.Profit); !got.Equal(decimal.NewFromInt(90)) {
		t.Errorf("profit = %s, want 90 (120 - 30)", got)
	}
}

func TestAggregatePeriod_PortfolioGrowth(t *testing.T) {
	d1, d2 := day(t, "2026-04-01"), day(t, "2026-04-02")
	first := factsWithCollected("emp-1", d1, 0)
	first.PortfolioOutstanding = domain.FigureFromFloat(5000)
	last := factsWithCollected("emp-1", d2, 0)
	last.PortfolioOutstanding = domain.FigureFromFloat(5600)

	s := AggregatePeriod("emp-1", []DayInput{{Date: d1, Facts: first}, {Date: d2, Facts: last}}, nil)

	if got := mustValue(t, s.PortfolioGrowth); !got.Equal(decimal.NewFromInt(600)) {
		t.Errorf("growth = %s, want 600", got)
	}
	if got := mustValue(t, s.GrowthPercent); !got.Equal(decimal.NewFromInt(12)) {
		t.Errorf("growth percent = %s, want 12", got)
	}
}

func TestAggregatePeriod_GrowthPercentUnavailableOnZeroStart(t *testing.T) {
	d1, d2 := day(t, "2026-04-01"), day(t, "2026-04-02")
	first := factsWithCollected("emp-1", d1, 0)
	first.PortfolioOutstanding = domain.FigureFromFloat(0)
	last := factsWithCollected("emp-1", d2, 0)
	last.PortfolioOutstanding = domain.FigureFromFloat(900)

	s := AggregatePeriod("emp-1", []DayInput{{Date: d1, Facts: first}, {Date: d2, Facts: last}}, nil)

	if got := mustValue(t, s.PortfolioGrowth); !got.Equal(decimal.NewFromInt(900)) {
		t.Errorf("growth = %s, want 900", got)
	}
	if s.GrowthPercent.Present() {
		t.Error("growth percent should be unavailable when the starting balance is zero")
	}
}

func TestAggregatePeriod_FailedDayContributesZeroAndFlagsPartial(t *testing.T) {
	d1, d2 := day(t, "2026-04-01"), day(t, "2026-04-02")
	days := []DayInput{
		{Date: d1, Facts: factsWithCollected("emp-1", d1, 300)},
		{Date: d2, Err: errors.New("upstream timeout")},
	}

	s := AggregatePeriod("emp-1", days, nil)

	if !s.Partial {
		t.Error("expected Partial summary when a day failed")
	}
	failed := s.DailyRows[1]
	if got := mustValue(t, failed.Collected); !got.IsZero() {
		t.Errorf("failed day collected = %s, want explicit 0", got)
	}
	if failed.CashBalance.Present() {
		t.Error("failed day cash balance should stay absent, not zero")
	}
	if got := mustValue(t, s.Total.Collected); !got.Equal(decimal.NewFromInt(300)) {
		t.Errorf("total collected = %s, want 300", got)
	}
}

func TestAggregatePeriod_UnrequestedFieldsStayAbsent(t *testing.T) {
	d := day(t, "2026-04-01")
	facts := &domain.DailyFinancialFacts{
		EmployeeID: "emp-1",
		Date:       d,
		Collected:  domain.FigureFromFloat(500),
		Interest:   domain.FigureFromFloat(80),
		Expenses:   domain.FigureFromFloat(10),
	}
	fields := domain.NewFieldSet(domain.FieldCollected)

	s := AggregatePeriod("emp-1", []DayInput{{Date: d, Facts: facts}}, fields)

	if got := mustValue(t, s.Total.Collected); !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("collected = %s, want 500", got)
	}
	if s.Total.Interest.Present() {
		t.Error("interest was not requested and should be absent")
	}
	if s.Profit.Present() {
		t.Error("profit depends on unrequested figures and should be unavailable")
	}
}

func TestAggregatePeriod_ResequencesOutOfOrderDays(t *testing.T) {
	d1, d2, d3 := day(t, "2026-04-01"), day(t, "2026-04-02"), day(t, "2026-04-03")
	days := []DayInput{
		{Date: d3, Facts: factsWithCollected("emp-1", d3, 3)},
		{Date: d1, Facts: factsWithCollected("emp-1", d1, 1)},
		{Date: d2, Facts: factsWithCollected("emp-1", d2, 2)},
	}

	s := AggregatePeriod("emp-1", days, nil)

	if !s.From.Equal(d1) || !s.To.Equal(d3) {
		t.Fatalf("range = [%s, %s], want [%s, %s]", s.From, s.To, d1, d3)
	}
	for i, want := range []string{"2026-04-01", "2026-04-02", "2026-04-03"} {
		if s.DailyRows[i].Label != want {
			t.Errorf("daily row %d label = %q, want %q", i, s.DailyRows[i].Label, want)
		}
	}
}

func TestAggregatePeriod_Idempotent(t *testing.T) {
	start := day(t, "2026-02-02")
	var days []DayInput
	for i := 0; i < 9; i++ {
		d := start.AddDate(0, 0, i)
		days = append(days, DayInput{Date: d, Facts: factsWithCollected("emp-1", d, float64(10*(i+1)))})
	}

	first := AggregatePeriod("emp-1", days, nil)
	second := AggregatePeriod("emp-1", days, nil)

	if !reflect.DeepEqual(first, second) {
		t.Error("AggregatePeriod is not deterministic over identical input")
	}
}
