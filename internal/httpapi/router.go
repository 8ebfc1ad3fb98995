package httpapi

import (
	"net/http"

	"github.com/ialame/maison-edition/internal/logger"
	"github.com/ialame/maison-edition/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler, jwtSecret string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(middleware.AuthMiddleware(jwtSecret))
	r.Use(middleware.RateLimitMiddleware)

	r.Post("/api/auth/register", h.Register)
	r.Post("/api/auth/login", h.Login)

	r.Post("/api/orders/checkout", h.Checkout)
	r.Post("/api/orders/{id}/renew", h.Renew)
	r.Get("/api/orders", h.MyOrders)
	r.Get("/api/orders/by-session", h.OrderBySession)
	r.Get("/api/orders/shipping-cost", h.ShippingCost)

	r.Get("/api/books/{id}/access", h.BookAccess)

	r.Get("/api/admin/orders", h.AdminListOrders)
	r.Put("/api/admin/orders/{id}/status", h.AdminUpdateStatus)
	r.Put("/api/admin/orders/{id}/tracking", h.AdminUpdateTracking)

	// Raw body endpoint: signature verification needs the exact bytes.
	r.Post("/webhook/stripe", h.StripeWebhook)

	return r
}
