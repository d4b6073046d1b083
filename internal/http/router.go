package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/redforge/authsvc/internal/auth"
	"github.com/redforge/authsvc/internal/config"
	"github.com/redforge/authsvc/internal/httputil"
	"github.com/redforge/authsvc/internal/logging"
	"github.com/redforge/authsvc/internal/metrics"
	"github.com/redforge/authsvc/internal/user"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	authHandler *auth.Handler,
	userHandler *user.Handler,
	authMiddleware *auth.Middleware,
	registry *prometheus.Registry,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	// Public routes
	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(registry))

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)
	})

	// Protected routes (require an access token)
	r.Route("/users", func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)
		r.Get("/me", userHandler.Me)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireRole(user.RoleAdmin))
			r.Get("/", userHandler.List)
		})
	})

	return r
}

// handleHealth is a simple health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
