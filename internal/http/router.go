package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/civicflow/api/internal/complaint"
	"github.com/civicflow/api/internal/config"
	"github.com/civicflow/api/internal/http/middleware"
	"github.com/civicflow/api/internal/service"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	Auth       *service.AuthService
	AuthH      *AuthHandler
	Buildings  *BuildingHandler
	Admin      *AdminHandler
	Complaints *complaint.Handler
}

// NewRouter assembles the full route tree with its middleware chain.
func NewRouter(cfg *config.Config, deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recover)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.AllowOrigins))

	publicLimiter := middleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst)
	userLimiter := middleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	// Public surface: registration, login and the room pickers that feed
	// the registration form.
	r.Group(func(r chi.Router) {
		r.Use(middleware.IPRateLimit(publicLimiter))

		deps.AuthH.RegisterPublicRoutes(r)
		deps.Buildings.RegisterRoutes(r)
	})

	// Authenticated surface.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(deps.Auth.JWT()))
		r.Use(middleware.UserRateLimit(userLimiter))

		deps.AuthH.RegisterProtectedRoutes(r)
		deps.Complaints.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole("admin"))
			deps.Admin.RegisterRoutes(r)
		})
	})

	return r
}
