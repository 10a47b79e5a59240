// Package router assembles the HTTP surface: public booking endpoints
// for the shop widget and a JWT-protected staff group.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/walid-afk/salon-scheduler/internal/http/handlers"
	httpmiddleware "github.com/walid-afk/salon-scheduler/internal/http/middleware"
	"github.com/walid-afk/salon-scheduler/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger       *logging.Logger
	Availability *handlers.AvailabilityHandler
	Bookings     *handlers.BookingsHandler
	Services     *handlers.ServicesHandler

	MetricsHandler     http.Handler
	StaffJWTSecret     string
	CORSAllowedOrigins []string
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.Services != nil {
			api.Get("/services", cfg.Services.List)
		}
		if cfg.Availability != nil {
			api.Get("/availability", cfg.Availability.GetAvailability)
			api.Post("/availability/validate", cfg.Availability.ValidateDrop)
		}
		if cfg.Bookings != nil {
			api.Post("/bookings", cfg.Bookings.Create)
			api.Route("/staff", func(staff chi.Router) {
				staff.Use(httpmiddleware.StaffJWT(cfg.StaffJWTSecret))
				staff.Get("/bookings", cfg.Bookings.ListStaff)
			})
		}
	})

	return r
}
