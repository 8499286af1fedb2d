/**
 * @description
 * This package provides a client for communicating with the remote carteras
 * API, the system of record for loan cards, payments, and daily liquidation
 * metrics. It encapsulates the HTTP calls and translates the API's Spanish
 * wire vocabulary ("tarjetas", "abonos", "resumen") into the service's domain
 * types.
 *
 * The remote API reports monetary figures as nullable numbers; a null means
 * the figure was unavailable for that day, which this client preserves as an
 * absent Figure rather than collapsing it to zero.
 */
package carteraclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gestioncarteras/cartera-service/internal/domain"
)

// ErrNotFound is returned when the remote API reports a 404 for the requested
// card or employee.
var ErrNotFound = errors.New("carteras api: resource not found")

// Client is a client for the remote carteras API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new carteras API client.
func NewClient(baseURL string, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

const wireDateLayout = "2006-01-02"

// cardDTO mirrors the remote API's tarjeta resource.
type cardDTO struct {
	Codigo        string  `json:"codigo"`
	Monto         float64 `json:"monto"`
	Interes       int64   `json:"interes"`
	Cuotas        int     `json:"cuotas"`
	ModalidadPago string  `json:"modalidad_pago"`
	FechaCreacion string  `json:"fecha_creacion"`
	Estado        string  `json:"estado"`
	NumeroRuta    *int    `json:"numero_ruta"`
}

// paymentDTO mirrors the remote API's abono resource.
type paymentDTO struct {
	ID          string  `json:"id"`
	TarjetaCode string  `json:"tarjeta_codigo"`
	Monto       float64 `json:"monto"`
	Fecha       string  `json:"fecha"`
	MetodoPago  string  `json:"metodo_pago"`
}

// summaryDTO mirrors the remote API's per-card resumen resource.
type summaryDTO struct {
	TarjetaCode              string  `json:"tarjeta_codigo"`
	SaldoPendiente           float64 `json:"saldo_pendiente"`
	ValorCuota               float64 `json:"valor_cuota"`
	CuotasRestantes          int     `json:"cuotas_restantes"`
	TotalAbonado             float64 `json:"total_abonado"`
	CuotasPendientesALaFecha *int    `json:"cuotas_pendientes_a_la_fecha"`
	DiasPasadosCancelacion   *int    `json:"dias_pasados_cancelacion"`
	Estado                   string  `json:"estado"`
}

// dailyFactsDTO mirrors the remote API's per-day liquidation metrics. Every
// figure is nullable; null means the remote system could not produce it.
type dailyFactsDTO struct {
	TotalCobrado   *float64     `json:"total_cobrado"`
	TotalPrestamos *float64     `json:"total_prestamos"`
	TotalIntereses *float64     `json:"total_intereses"`
	TotalGastos    *float64     `json:"total_gastos"`
	TotalBases     *float64     `json:"total_bases"`
	TotalSalidas   *float64     `json:"total_salidas"`
	TotalEntradas  *float64     `json:"total_entradas"`
	Caja           *float64     `json:"caja"`
	CarteraEnCalle *float64     `json:"cartera_en_calle"`
	AbonosCount    int          `json:"abonos_count"`
	Abonos         []paymentDTO `json:"abonos,omitempty"`
}

func modalityFromWire(raw string) domain.PaymentModality {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "semanal":
		return domain.ModalityWeekly
	case "quincenal":
		return domain.ModalityBiweekly
	case "mensual":
		return domain.ModalityMonthly
	default:
		return domain.ModalityDaily
	}
}

func stateFromWire(raw string) domain.CardState {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "canceladas", "cancelada":
		return domain.CardCancelled
	case "pendientes", "pendiente":
		return domain.CardPending
	default:
		return domain.CardActive
	}
}

func stateToWire(state domain.CardState) string {
	switch state {
	case domain.CardCancelled:
		return "canceladas"
	case domain.CardPending:
		return "pendientes"
	default:
		return "activas"
	}
}

func figureFrom(v *float64) domain.Figure {
	if v == nil {
		return domain.AbsentFigure()
	}
	return domain.FigureFromFloat(*v)
}

func (dto cardDTO) toDomain() (domain.LoanCard, error) {
	created, err := time.Parse(wireDateLayout, dto.FechaCreacion)
	if err != nil {
		return domain.LoanCard{}, fmt.Errorf("card %s has invalid creation date %q: %w", dto.Codigo, dto.FechaCreacion, err)
	}
	return domain.LoanCard{
		Code:             dto.Codigo,
		Principal:        decimal.NewFromFloat(dto.Monto),
		InterestPercent:  dto.Interes,
		InstallmentCount: dto.Cuotas,
		Modality:         modalityFromWire(dto.ModalidadPago),
		CreationDate:     created,
		State:            stateFromWire(dto.Estado),
		RouteNumber:      dto.NumeroRuta,
	}, nil
}

func (dto paymentDTO) toDomain() (domain.Payment, error) {
	id, err := uuid.Parse(dto.ID)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("payment on card %s has invalid id %q: %w", dto.TarjetaCode, dto.ID, err)
	}
	ts, err := time.Parse(time.RFC3339, dto.Fecha)
	if err != nil {
		// Some rows only carry a calendar date.
		ts, err = time.Parse(wireDateLayout, dto.Fecha)
		if err != nil {
			return domain.Payment{}, fmt.Errorf("payment %s has invalid date %q: %w", dto.ID, dto.Fecha, err)
		}
	}
	return domain.Payment{
		ID:        id,
		CardCode:  dto.TarjetaCode,
		Amount:    decimal.NewFromFloat(dto.Monto),
		Method:    dto.MetodoPago,
		Timestamp: ts,
	}, nil
}

func (dto summaryDTO) toDomain() domain.CardSummary {
	return domain.CardSummary{
		CardCode:                dto.TarjetaCode,
		OutstandingBalance:      decimal.NewFromFloat(dto.SaldoPendiente),
		InstallmentValue:        decimal.NewFromFloat(dto.ValorCuota),
		RemainingInstallments:   dto.CuotasRestantes,
		TotalPaid:               decimal.NewFromFloat(dto.TotalAbonado),
		PendingInstallmentsAsOf: dto.CuotasPendientesALaFecha,
		DaysPastFinalDue:        dto.DiasPasadosCancelacion,
		State:                   stateFromWire(dto.Estado),
	}
}

// get performs a GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	if c.baseURL == "" {
		return fmt.Errorf("carteras api base url is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request to carteras api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("carteras api returned error status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(c.apiKey) != "" {
		req.Header.Set("X-API-Key", strings.TrimSpace(c.apiKey))
	}
}

// FetchCard retrieves one loan card by code.
func (c *Client) FetchCard(ctx context.Context, code string) (domain.LoanCard, error) {
	var dto cardDTO
	if err := c.get(ctx, "/tarjetas/"+url.PathEscape(code), &dto); err != nil {
		return domain.LoanCard{}, err
	}
	return dto.toDomain()
}

// FetchCardSummary retrieves the remote balance snapshot for one card.
func (c *Client) FetchCardSummary(ctx context.Context, code string) (domain.CardSummary, error) {
	var dto summaryDTO
	if err := c.get(ctx, "/tarjetas/"+url.PathEscape(code)+"/resumen", &dto); err != nil {
		return domain.CardSummary{}, err
	}
	return dto.toDomain(), nil
}

// FetchPayments retrieves the full payment history of one card, oldest first.
func (c *Client) FetchPayments(ctx context.Context, code string) ([]domain.Payment, error) {
	var dtos []paymentDTO
	if err := c.get(ctx, "/tarjetas/"+url.PathEscape(code)+"/abonos", &dtos); err != nil {
		return nil, err
	}
	payments := make([]domain.Payment, 0, len(dtos))
	for _, dto := range dtos {
		p, err := dto.toDomain()
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, nil
}

// FetchActiveCards lists an employee's active loan cards.
func (c *Client) FetchActiveCards(ctx context.Context, employeeID string) ([]domain.LoanCard, error) {
	path := fmt.Sprintf("/empleados/%s/tarjetas?estado=%s", url.PathEscape(employeeID), stateToWire(domain.CardActive))
	var dtos []cardDTO
	if err := c.get(ctx, path, &dtos); err != nil {
		return nil, err
	}
	cards := make([]domain.LoanCard, 0, len(dtos))
	for _, dto := range dtos {
		card, err := dto.toDomain()
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// FetchDailyFacts retrieves one employee's liquidation metrics for one date.
func (c *Client) FetchDailyFacts(ctx context.Context, employeeID string, date time.Time) (domain.DailyFinancialFacts, error) {
	path := fmt.Sprintf("/empleados/%s/liquidacion?fecha=%s", url.PathEscape(employeeID), date.Format(wireDateLayout))
	var dto dailyFactsDTO
	if err := c.get(ctx, path, &dto); err != nil {
		return domain.DailyFinancialFacts{}, err
	}

	facts := domain.DailyFinancialFacts{
		EmployeeID:           employeeID,
		Date:                 date,
		Collected:            figureFrom(dto.TotalCobrado),
		LoansDisbursed:       figureFrom(dto.TotalPrestamos),
		Interest:             figureFrom(dto.TotalIntereses),
		Expenses:             figureFrom(dto.TotalGastos),
		OpeningBase:          figureFrom(dto.TotalBases),
		CashOutflows:         figureFrom(dto.TotalSalidas),
		CashInflows:          figureFrom(dto.TotalEntradas),
		CashBalance:          figureFrom(dto.Caja),
		PortfolioOutstanding: figureFrom(dto.CarteraEnCalle),
		PaymentCount:         dto.AbonosCount,
	}
	for _, pdto := range dto.Abonos {
		p, err := pdto.toDomain()
		if err != nil {
			return domain.DailyFinancialFacts{}, err
		}
		facts.Payments = append(facts.Payments, p)
	}
	if facts.PaymentCount == 0 {
		facts.PaymentCount = len(facts.Payments)
	}
	return facts, nil
}

// UpdateCardState changes a card's lifecycle state on the remote system.
func (c *Client) UpdateCardState(ctx context.Context, code string, state domain.CardState) error {
	if c.baseURL == "" {
		return fmt.Errorf("carteras api base url is empty")
	}

	payload := struct {
		Estado string `json:"estado"`
	}{Estado: stateToWire(state)}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+"/tarjetas/"+url.PathEscape(code), bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request to carteras api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("carteras api returned error status %d updating card %s", resp.StatusCode, code)
	}
	return nil
}
