package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/taskloop/taskloop/internal/access"
	"github.com/taskloop/taskloop/internal/api/handlers"
	"github.com/taskloop/taskloop/internal/api/middleware"
	"github.com/taskloop/taskloop/internal/auth"
	"github.com/taskloop/taskloop/internal/database"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *database.Runner
	Redis          *redis.Client
	Logger         *slog.Logger
	AuthService    *auth.Service
	ResetService   *auth.ResetService
	OAuthService   *auth.OAuthService
	Resolver       *access.Resolver
	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Rate limiting - applied globally to prevent abuse
	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	// CORS - restrict to configured origins, or allow all in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		// Default to localhost for development - configure in production
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Auth-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB.DB(), cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService)
	resetHandler := handlers.NewResetHandler(cfg.ResetService)
	oauthHandler := handlers.NewOAuthHandler(cfg.OAuthService)
	spaceHandler := handlers.NewSpaceHandler(cfg.DB, cfg.Resolver)
	folderHandler := handlers.NewFolderHandler(cfg.DB, cfg.Resolver)
	dashboardHandler := handlers.NewDashboardHandler(cfg.DB, cfg.Resolver)
	taskHandler := handlers.NewTaskHandler(cfg.DB, cfg.Resolver)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Post("/auth/oauth/google", oauthHandler.Login)
		r.Post("/auth/reset/request", resetHandler.Request)
		r.Post("/auth/reset/verify", resetHandler.Verify)
		r.Post("/auth/reset/consume", resetHandler.Consume)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.AuthService))

			r.Get("/me", authHandler.Me)

			r.Route("/spaces", func(r chi.Router) {
				r.Get("/", spaceHandler.List)
				r.Post("/", spaceHandler.Create)
				r.Get("/{id}", spaceHandler.Get)
				r.Put("/{id}", spaceHandler.Update)
				r.Delete("/{id}", spaceHandler.Delete)
				r.Post("/{id}/members", spaceHandler.AddMember)
				r.Delete("/{id}/members/{userID}", spaceHandler.RemoveMember)
			})

			r.Route("/folders", func(r chi.Router) {
				r.Post("/", folderHandler.Create)
				r.Get("/{id}", folderHandler.Get)
				r.Delete("/{id}", folderHandler.Delete)
			})

			r.Route("/dashboards", func(r chi.Router) {
				r.Post("/", dashboardHandler.Create)
				r.Get("/{id}", dashboardHandler.Get)
				r.Delete("/{id}", dashboardHandler.Delete)
				r.Post("/{id}/members", dashboardHandler.AddMember)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.List)
				r.Post("/", taskHandler.Create)
				r.Get("/{id}", taskHandler.Get)
				r.Put("/{id}", taskHandler.Update)
				r.Delete("/{id}", taskHandler.Delete)
			})
		})
	})

	return &Router{r}
}
