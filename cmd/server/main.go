package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/taskloop/taskloop/internal/access"
	"github.com/taskloop/taskloop/internal/api"
	"github.com/taskloop/taskloop/internal/auth"
	"github.com/taskloop/taskloop/internal/database"
	"github.com/taskloop/taskloop/internal/notify"
	"github.com/taskloop/taskloop/pkg/config"
	"github.com/taskloop/taskloop/pkg/util"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting TaskLoop server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
	)

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if cfg.Server.IsDevelopment() {
		if err := database.AutoMigrate(db); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("failed to connect to Redis", "error", err)
		redisClient = nil
	}

	// All storage calls go through the retrying runner
	runner := database.NewRunner(db, logger)

	// Initialize services
	authService := auth.NewService(runner, cfg.Session.Expiry())
	mailer := notify.NewSMTPMailer(&cfg.SMTP, logger)
	if mailer == nil {
		logger.Warn("SMTP not configured, password reset delivery is unavailable")
	}
	resetService := auth.NewResetService(runner, authService, mailer, cfg.Reset.CodeTTL())
	oauthService := auth.NewOAuthService(runner, authService, auth.GoogleExchanger{})
	resolver := access.NewResolver(runner)

	// Create router
	router := api.NewRouter(api.RouterConfig{
		DB:            runner,
		Redis:         redisClient,
		Logger:        logger,
		AuthService:   authService,
		ResetService:  resetService,
		OAuthService:  oauthService,
		Resolver:      resolver,
		RateLimitReqs: cfg.RateLimit.Requests,
		RateLimitSecs: cfg.RateLimit.WindowSeconds,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Close Redis connection
	if redisClient != nil {
		redisClient.Close()
	}

	// Close database connection
	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("server stopped")
}
