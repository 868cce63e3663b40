package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/BollineniRohith123/nibog-platform/internal/auth"
	"github.com/BollineniRohith123/nibog-platform/internal/catalog"
	"github.com/BollineniRohith123/nibog-platform/internal/payment"
	"github.com/BollineniRohith123/nibog-platform/internal/registration"
	"github.com/BollineniRohith123/nibog-platform/internal/transport/middleware"
	"github.com/BollineniRohith123/nibog-platform/internal/transport/swagger"
)

// Handlers collects everything RegisterAllRoutes wires into the router.
type Handlers struct {
	Auth           *auth.Handler
	Permissions    *auth.PermissionMiddleware
	Catalog        *catalog.Handler
	Registration   *registration.Handler
	Payment        *payment.Handler
	PaymentWebhook *payment.WebhookHandler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check routes
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Gateway deliveries: browser redirect callback and server-to-server
		// webhook. Both only trigger a reconcile, so neither needs auth.
		if h.PaymentWebhook != nil {
			r.Post("/payments/callback", h.PaymentWebhook.HandleCallback)
			r.Post("/payments/webhook", h.PaymentWebhook.HandleWebhook)
		}

		// Auth routes
		if h.Auth != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", h.Auth.Login)
				sr.Post("/refresh", h.Auth.RefreshToken)
				sr.Post("/logout", h.Auth.Logout)
			})
		}

		// Public catalog routes (no auth required)
		if h.Catalog != nil {
			r.Get("/cities", h.Catalog.GetCities)
			r.Get("/games", h.Catalog.GetGames)
			r.Get("/events", h.Catalog.GetEvents)
			r.Get("/events/{eventID}", h.Catalog.GetEvent)
		}

		// Parents register and pay without an account
		if h.Registration != nil {
			r.Post("/registrations", h.Registration.CreateRegistration)
			r.Get("/registrations/{registrationID}", h.Registration.GetRegistration)
		}

		if h.Payment != nil {
			r.Post("/payments", h.Payment.InitiatePayment)
			r.Get("/payments/{merchantTransactionID}", h.Payment.GetPayment)
			r.Get("/registrations/{registrationID}/payments", h.Payment.GetPaymentsForRegistration)
		}

		// Admin routes require authentication plus a permission grant
		if h.Auth != nil && h.Permissions != nil {
			r.Group(func(pr chi.Router) {
				pr.Use(h.Auth.AuthMiddleware)

				if h.Catalog != nil {
					pr.Group(func(mr chi.Router) {
						mr.Use(h.Permissions.RequireManageCatalog)
						mr.Post("/admin/cities", h.Catalog.CreateCity)
						mr.Post("/admin/games", h.Catalog.CreateGame)
						mr.Post("/admin/events", h.Catalog.CreateEvent)
						mr.Patch("/admin/events/{eventID}", h.Catalog.UpdateEvent)
					})
				}

				if h.Payment != nil {
					pr.Group(func(mr chi.Router) {
						mr.Use(h.Permissions.RequireRefundPayments)
						mr.Post("/payments/{merchantTransactionID}/refund", h.Payment.RefundPayment)
					})
				}

				if h.Registration != nil {
					pr.Group(func(mr chi.Router) {
						mr.Use(h.Permissions.RequireAdmin)
						mr.Get("/events/{eventID}/registrations", h.Registration.GetRegistrationsForEvent)
					})
				}
			})
		}
	})
}
