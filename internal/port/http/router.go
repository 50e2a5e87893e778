package http

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/leahpeker/vedgyproject/internal/platform/logger"
)

func NewRouter(h *Handler, jwtSecret string, log logger.Logger) *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(chimiddleware.RequestID)
	mux.Use(chimiddleware.RealIP)
	mux.Use(chimiddleware.Recoverer)

	mux.Get("/health", h.HandleHealth)

	// Public browse surface. Only active listings are reachable here.
	mux.Get("/api/listings", h.HandleListListings)
	mux.Get("/api/listings/{id}", h.HandleGetListing)

	// Payment provider callback, authenticated by transaction ledger
	// idempotency rather than a user token.
	mux.Post("/api/webhooks/payment", h.HandlePaymentWebhook)

	mux.Group(func(r chi.Router) {
		r.Use(JWTAuth(jwtSecret, log))

		r.Post("/api/listings", h.HandleCreateListing)
		r.Put("/api/listings/{id}", h.HandleUpdateListing)
		r.Delete("/api/listings/{id}", h.HandleDeleteListing)
		r.Post("/api/listings/{id}/submit", h.HandleSubmitPayment)
		r.Post("/api/listings/{id}/deactivate", h.HandleDeactivateListing)
		r.Post("/api/listings/{id}/renew", h.HandleRenewListing)
		r.Post("/api/listings/{id}/photos", h.HandleUploadPhotos)
		r.Delete("/api/listings/{id}/photos/{photoID}", h.HandleDeletePhoto)
		r.Get("/api/dashboard", h.HandleDashboard)

		r.Get("/api/admin/queue", h.HandleModerationQueue)
		r.Post("/api/admin/listings/{id}/approve", h.HandleApproveListing)
		r.Post("/api/admin/listings/{id}/reject", h.HandleRejectListing)
	})

	return mux
}
