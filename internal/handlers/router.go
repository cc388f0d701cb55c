package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rate limit scopes.
const (
	ScopeProfile = "profile"
	ScopeSteam   = "steam"
	ScopeFaceit  = "faceit"
	ScopeLeetify = "leetify"
	ScopeResolve = "resolve"
	ScopeReports = "reports"
)

// Router builds the HTTP routes. allowedOrigins feeds CORS.
func (h *Handler) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Admin-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(h.WithSession)

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.With(h.RateLimit(ScopeProfile)).Get("/profile/{steamId}", h.GetProfile)
		r.Get("/profile/{steamId}/history", h.GetProfileHistory)
		r.Get("/profile/{steamId}/flag", h.GetFlagStatus)
		r.Post("/assess", h.Assess)

		r.With(h.RateLimit(ScopeSteam)).Get("/steam/{steamId}", h.GetSteamPlayer)
		r.With(h.RateLimit(ScopeFaceit)).Get("/faceit/{playerId}", h.GetFaceitPlayer)
		r.With(h.RateLimit(ScopeLeetify)).Get("/leetify/{steamId}", h.GetLeetifyProfile)
		r.With(h.RateLimit(ScopeLeetify)).Get("/match/{dataSource}/{dataSourceId}", h.GetMatch)
		r.With(h.RateLimit(ScopeResolve)).Get("/resolve", h.Resolve)

		r.Get("/home-stats", h.HomeStats)
		r.Post("/track/heartbeat", h.Heartbeat)

		r.Get("/reports", h.ListReports)
		r.With(h.RateLimit(ScopeReports)).Post("/reports", h.SubmitReport)
		r.Get("/ai-flags", h.AutoFlags)
		r.Get("/notifications", h.Notifications)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/reports/status", h.DecideReport)
			r.Get("/stats", h.AdminStats)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Get("/steam/login", h.SteamLogin)
			r.Get("/steam/callback", h.SteamCallback)
			r.Get("/logout", h.Logout)
			r.Get("/me", h.Me)
		})
	})

	return r
}
