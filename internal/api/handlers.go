/**
 * @description
 * This file contains the HTTP handlers for the cartera-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the appropriate
 * methods on the application service, and writing the HTTP response. They act as the
 * bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/aging: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gestioncarteras/cartera-service/internal/aging"
	"github.com/gestioncarteras/cartera-service/internal/app"
	"github.com/gestioncarteras/cartera-service/internal/domain"
	"github.com/gestioncarteras/cartera-service/pkg/carteraclient"
)

const dateLayout = "2006-01-02"

// CarteraHandlers holds the application service that handlers will use.
type CarteraHandlers struct {
	service *app.Service
}

// NewCarteraHandlers creates a new instance of CarteraHandlers.
func NewCarteraHandlers(service *app.Service) *CarteraHandlers {
	return &CarteraHandlers{service: service}
}

// parseDateParam reads an optional YYYY-MM-DD query parameter, falling back to
// today's date in the service timezone.
func (h *CarteraHandlers) parseDateParam(r *http.Request, name string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		now := time.Now().In(h.service.Location())
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.service.Location()), nil
	}
	d, err := time.ParseInLocation(dateLayout, raw, h.service.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("parameter %q must be a YYYY-MM-DD date", name)
	}
	return d, nil
}

// parseFieldsParam reads the optional comma-separated fields parameter. An
// empty parameter requests every figure.
func parseFieldsParam(r *http.Request) (domain.FieldSet, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("fields"))
	if raw == "" {
		return nil, nil
	}
	known := make(map[domain.FactField]bool)
	for _, f := range domain.AllFactFields() {
		known[f] = true
	}
	var fields []domain.FactField
	for _, name := range strings.Split(raw, ",") {
		f := domain.FactField(strings.TrimSpace(name))
		if f == "" {
			continue
		}
		if !known[f] {
			return nil, fmt.Errorf("unknown field %q", f)
		}
		fields = append(fields, f)
	}
	return domain.NewFieldSet(fields...), nil
}

// CardAgingHandler classifies one card's delinquency as of a date.
func (h *CarteraHandlers) CardAgingHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	asOf, err := h.parseDateParam(r, "as_of")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.CardAging(r.Context(), code, asOf)
	if err != nil {
		h.writeServiceError(w, r, "card_aging", err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// PortfolioAgingHandler groups an employee's active cards by collectability tier.
func (h *CarteraHandlers) PortfolioAgingHandler(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	asOf, err := h.parseDateParam(r, "as_of")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.service.PortfolioAging(r.Context(), employeeID, asOf)
	if err != nil {
		h.writeServiceError(w, r, "portfolio_aging", err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

// WriteoffExposureHandler totals the balance tied up in severely delinquent cards.
func (h *CarteraHandlers) WriteoffExposureHandler(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	cutoff, err := h.parseDateParam(r, "cutoff")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.service.WriteoffExposure(r.Context(), employeeID, cutoff)
	if err != nil {
		h.writeServiceError(w, r, "writeoff_exposure", err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

// PeriodSummaryHandler aggregates an employee's daily facts over a date range.
func (h *CarteraHandlers) PeriodSummaryHandler(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	from, err := h.parseDateParam(r, "from")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := h.parseDateParam(r, "to")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if to.Before(from) {
		h.writeError(w, http.StatusBadRequest, "parameter \"to\" must not precede \"from\"")
		return
	}
	fields, err := parseFieldsParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.service.PeriodSummary(r.Context(), employeeID, from, to, fields)
	if err != nil {
		h.writeServiceError(w, r, "period_summary", err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// DailyCloseHandler runs the close for one employee and date on demand.
func (h *CarteraHandlers) DailyCloseHandler(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	date, err := h.parseDateParam(r, "date")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.service.DailyClose(r.Context(), employeeID, date)
	if err != nil {
		h.writeServiceError(w, r, "daily_close", err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// writeServiceError maps service errors onto HTTP statuses. Remote lookups
// that fail are the upstream's fault, not the caller's, hence 502.
func (h *CarteraHandlers) writeServiceError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	switch {
	case errors.Is(err, carteraclient.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, aging.ErrInvalidInstallmentCount):
		h.writeError(w, http.StatusUnprocessableEntity, "Card has no valid installment count")
	case r.Context().Err() != nil:
		h.writeError(w, http.StatusGatewayTimeout, "Request cancelled or timed out")
	default:
		log.Printf("level=error component=api endpoint=%s err=%v", endpoint, err)
		h.writeError(w, http.StatusBadGateway, "Upstream carteras API unavailable")
	}
}

func (h *CarteraHandlers) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("level=error component=api msg=\"failed to encode response\" err=%v", err)
	}
}

func (h *CarteraHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
