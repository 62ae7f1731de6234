package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/kims-booking/internal/booking"
	"github.com/wolfman30/kims-booking/internal/bookings"
	"github.com/wolfman30/kims-booking/internal/chat"
	httpmiddleware "github.com/wolfman30/kims-booking/internal/http/middleware"
	"github.com/wolfman30/kims-booking/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	BookingHandler     *booking.Handler
	ArchiveHandler     *bookings.Handler
	ChatHandler        *chat.Handler
	MetricsHandler     http.Handler
	HealthChecks       map[string]HealthCheck
	AdminAuthSecret    string
	CORSAllowedOrigins []string

	// RateLimiter throttles /api/v1 and the chat HTTP fallback; nil disables it.
	RateLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	throttled := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimiter != nil {
		throttled = httpmiddleware.RateLimit(cfg.RateLimiter)
	}

	r.Get("/health", healthHandler(cfg.HealthChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.BookingHandler != nil {
		r.Route("/api/v1", func(api chi.Router) {
			api.Use(throttled)
			api.Use(middleware.Compress(5))
			cfg.BookingHandler.Routes(api)
		})
	}

	if cfg.ChatHandler != nil {
		r.Route("/chat", func(c chi.Router) {
			c.Get("/ws", cfg.ChatHandler.HandleWebSocket)
			c.Group(func(c chi.Router) {
				c.Use(throttled)
				c.Get("/history", cfg.ChatHandler.HandleHistory)
				c.Post("/events", cfg.ChatHandler.HandleEvent)
			})
		})
	}

	// Without a secret the archive is not exposed at all.
	if cfg.ArchiveHandler != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/bookings", cfg.ArchiveHandler.List)
			admin.Get("/bookings/{reference}", cfg.ArchiveHandler.Get)
		})
	}

	return r
}
