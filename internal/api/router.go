/**
 * @description
 * This file sets up the HTTP router for the cartera-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// CarteraRoutes creates and returns a new router for the cartera service.
func CarteraRoutes(h *CarteraHandlers, internalAPIKey string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require the internal API key.
	r.Group(func(r chi.Router) {
		r.Use(InternalKeyMiddleware(internalAPIKey))

		r.Get("/cards/{code}/aging", h.CardAgingHandler)
		r.Get("/employees/{employeeID}/portfolio/aging", h.PortfolioAgingHandler)
		r.Get("/employees/{employeeID}/writeoffs", h.WriteoffExposureHandler)
		r.Get("/employees/{employeeID}/period-summary", h.PeriodSummaryHandler)
		r.Post("/employees/{employeeID}/daily-close", h.DailyCloseHandler)
	})

	return r
}
