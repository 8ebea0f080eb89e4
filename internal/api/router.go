/**
 * @description
 * This file sets up the HTTP router for the admin-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies
 * middleware for logging, panic recovery, timeouts, CORS and authentication.
 *
 * @dependencies
 * - net/http, time: Standard Go libraries.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for the admin panel frontend.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// AdminRoutes creates and returns a new router for the admin service.
func AdminRoutes(h *AdminHandlers, jwtSecret string, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(OperatorAuthMiddleware(jwtSecret))

		// Remote account operations
		r.Get("/accounts/{phone}", h.GetAccountHandler)
		r.Put("/accounts/{uid}/level", h.UpdateAccountLevelHandler)

		// Broadcast alerts
		r.Post("/alerts", h.SendAlertHandler)
		r.Get("/alerts", h.GetUserAlertsHandler)

		// Upgrade request workflow
		r.Get("/upgrade-requests", h.ListUpgradeRequestsHandler)
		r.Get("/upgrade-requests/search", h.SearchAccountsHandler)
		r.Post("/upgrade-requests/{id}/approve", h.ApproveUpgradeRequestHandler)
		r.Post("/upgrade-requests/{id}/reject", h.RejectUpgradeRequestHandler)

		// Identity documents
		r.Get("/documents/url", h.IDDocumentURLHandler)

		// Cash-out reconciliation
		r.Get("/cashout-requests", h.ListCashoutRequestsHandler)
		r.Get("/cashout-requests/search", h.SearchCashoutRequestsHandler)
		r.Post("/cashout-requests/{id}/confirm", h.ConfirmCashoutPaymentHandler)
	})

	return r
}
