package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gestioncarteras/cartera-service/internal/app"
	"github.com/gestioncarteras/cartera-service/internal/domain"
	"github.com/gestioncarteras/cartera-service/pkg/carteraclient"
)

// fakeSource serves a fixed card and a fixed week of facts.
type fakeSource struct {
	card  domain.LoanCard
	facts map[string]domain.DailyFinancialFacts
}

func (f *fakeSource) FetchCard(_ context.Context, code string) (domain.LoanCard, error) {
	if code != f.card.Code {
		return domain.LoanCard{}, carteraclient.ErrNotFound
	}
	return f.card, nil
}

func (f *fakeSource) FetchCardSummary(_ context.Context, code string) (domain.CardSummary, error) {
	if code != f.card.Code {
		return domain.CardSummary{}, carteraclient.ErrNotFound
	}
	pending := -2
	return domain.CardSummary{
		CardCode:                code,
		OutstandingBalance:      decimal.NewFromInt(40000),
		PendingInstallmentsAsOf: &pending,
		State:                   domain.CardActive,
	}, nil
}

func (f *fakeSource) FetchPayments(_ context.Context, code string) ([]domain.Payment, error) {
	return nil, nil
}

func (f *fakeSource) FetchActiveCards(_ context.Context, employeeID string) ([]domain.LoanCard, error) {
	return []domain.LoanCard{f.card}, nil
}

func (f *fakeSource) FetchDailyFacts(_ context.Context, employeeID string, date time.Time) (domain.DailyFinancialFacts, error) {
	facts, ok := f.facts[date.Format("2006-01-02")]
	if !ok {
		return domain.DailyFinancialFacts{}, fmt.Errorf("no facts for %s", date.Format("2006-01-02"))
	}
	return facts, nil
}

func (f *fakeSource) UpdateCardState(_ context.Context, code string, state domain.CardState) error {
	return nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	source := &fakeSource{
		card: domain.LoanCard{
			Code:             "T-001",
			Principal:        decimal.NewFromInt(100000),
			InterestPercent:  20,
			InstallmentCount: 30,
			Modality:         domain.ModalityDaily,
			CreationDate:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			State:            domain.CardActive,
		},
		facts: map[string]domain.DailyFinancialFacts{},
	}
	for i := 0; i < 7; i++ {
		d := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
		source.facts[d.Format("2006-01-02")] = domain.DailyFinancialFacts{
			EmployeeID: "emp-1",
			Date:       d,
			Collected:  domain.FigureFromFloat(100),
		}
	}

	logger := slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError}))
	service := app.NewService(source, nil, nil, logger, time.UTC, 2)
	return CarteraRoutes(NewCarteraHandlers(service), "test-key")
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func doRequest(t *testing.T, router http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("X-Internal-API-Key", "test-key")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpointIsOpen(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestCardAgingEndpoint(t *testing.T) {
	router := testRouter(t)
	rec := doRequest(t, router, http.MethodGet, "/cards/T-001/aging?as_of=2026-03-10")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Bucket           string `json:"bucket"`
		InstallmentsLate int    `json:"installments_late"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.InstallmentsLate != 2 {
		t.Errorf("installments late = %d, want 2", body.InstallmentsLate)
	}
	if body.Bucket != "good" {
		t.Errorf("bucket = %q, want good", body.Bucket)
	}
}

func TestCardAgingEndpoint_UnknownCardIs404(t *testing.T) {
	router := testRouter(t)
	rec := doRequest(t, router, http.MethodGet, "/cards/T-MISSING/aging")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestCardAgingEndpoint_BadDateIs400(t *testing.T) {
	router := testRouter(t)
	rec := doRequest(t, router, http.MethodGet, "/cards/T-001/aging?as_of=soon")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPeriodSummaryEndpoint(t *testing.T) {
	router := testRouter(t)
	rec := doRequest(t, router, http.MethodGet,
		"/employees/emp-1/period-summary?from=2026-04-01&to=2026-04-07")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Total struct {
			Collected *float64 `json:"collected"`
		} `json:"total"`
		Partial bool `json:"partial"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Total.Collected == nil || *body.Total.Collected != 700 {
		t.Errorf("total collected = %v, want 700", body.Total.Collected)
	}
	if body.Partial {
		t.Error("unexpected partial summary")
	}
}

func TestPeriodSummaryEndpoint_InvertedRangeIs400(t *testing.T) {
	router := testRouter(t)
	rec := doRequest(t, router, http.MethodGet,
		"/employees/emp-1/period-summary?from=2026-04-07&to=2026-04-01")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPeriodSummaryEndpoint_UnknownFieldIs400(t *testing.T) {
	router := testRouter(t)
	rec := doRequest(t, router, http.MethodGet,
		"/employees/emp-1/period-summary?from=2026-04-01&to=2026-04-02&fields=collected,bitcoin")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestEndpointsRequireKey(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/cards/T-001/aging", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
