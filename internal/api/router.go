package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nailtimes/salon-backend/internal/auth"
	"github.com/nailtimes/salon-backend/internal/booking"
	"github.com/nailtimes/salon-backend/internal/message"
	"github.com/nailtimes/salon-backend/internal/notify"
	"github.com/nailtimes/salon-backend/internal/presence"
	"github.com/nailtimes/salon-backend/internal/twilio"
)

type RouterConfig struct {
	Bookings *booking.Service
	Messages *message.Service
	Auth     *auth.Service
	Notifier *notify.Dispatcher
	Texter   *twilio.Client
	Webhook  twilio.Validator
	Presence *presence.Tracker
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Logger   *slog.Logger
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Get("/api/health", health.Liveness)

	// Public surface
	r.Post("/api/bookings", createBookingHandler(cfg.Bookings, cfg.Notifier))
	r.Get("/api/bookings/availability", availabilityHandler(cfg.Bookings))
	r.Post("/api/twilio/webhook", twilioWebhookHandler(cfg.Webhook, cfg.Messages, cfg.Notifier, cfg.Logger))

	r.Route("/api/admin", func(admin chi.Router) {
		admin.Post("/login/init", loginInitHandler(cfg.Auth))
		admin.Post("/login/verify", loginVerifyHandler(cfg.Auth))

		// Everything else is bearer-token guarded.
		admin.Group(func(g chi.Router) {
			g.Use(AdminAuthMiddleware(cfg.Auth))

			g.Get("/bookings", listBookingsHandler(cfg.Bookings))
			g.Post("/bookings/{id}/confirm", confirmBookingHandler(cfg.Bookings, cfg.Notifier))
			g.Delete("/bookings/{id}", cancelBookingHandler(cfg.Bookings, cfg.Notifier))
			g.Delete("/bookings/{id}/hard-delete", hardDeleteBookingHandler(cfg.Bookings))

			g.Get("/messages/groups", listThreadsHandler(cfg.Messages))
			g.Post("/messages/presence", presenceHandler(cfg.Presence))
			g.Get("/messages/{phone}", getThreadHandler(cfg.Messages, cfg.Presence))
			g.Patch("/messages/{phone}/name", renameThreadHandler(cfg.Messages))
			g.Post("/messages/{phone}/reply", replyHandler(cfg.Messages, cfg.Texter, cfg.Presence))
		})
	})

	return r
}
