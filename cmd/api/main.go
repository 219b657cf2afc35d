package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	httpAdapter "github.com/ca-vahid/agent-analytics/internal/adapters/primary/http"
	mw "github.com/ca-vahid/agent-analytics/internal/adapters/primary/http/middleware"
	"github.com/ca-vahid/agent-analytics/internal/adapters/primary/websocket"
	"github.com/ca-vahid/agent-analytics/internal/adapters/secondary/memory"
	"github.com/ca-vahid/agent-analytics/internal/adapters/secondary/postgres"
	"github.com/ca-vahid/agent-analytics/internal/auth"
	"github.com/ca-vahid/agent-analytics/internal/config"
	"github.com/ca-vahid/agent-analytics/internal/core/ports"
	"github.com/ca-vahid/agent-analytics/internal/core/services"
	"github.com/ca-vahid/agent-analytics/internal/infrastructure/logging"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	// 3. Initialize Storage. DATABASE_URL selects postgres; without it every
	// dataset lives in process memory and is lost on restart.
	ctx := context.Background()

	var datasetRepo ports.DatasetRepository
	var healthChecker httpAdapter.HealthChecker

	if cfg.Database.URL != "" {
		poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
		if err != nil {
			logger.Error("failed to parse database URL", "error", err)
			os.Exit(1)
		}

		poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
		poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)
		poolConfig.MaxConnLifetime = cfg.Database.ConnMaxLifetime
		poolConfig.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			logger.Error("database ping failed", "error", err)
			os.Exit(1)
		}

		if err := postgres.RunMigrations("file://migrations", cfg.Database.URL); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		datasetRepo = postgres.NewDatasetRepository(pool)
		healthChecker = pool
		logger.Info("database connection established")
	} else {
		datasetRepo = memory.NewDatasetStore()
		logger.Info("using in-memory dataset store")
	}

	// 4. Initialize Security & Real-time Components
	tokenManager := auth.NewTokenManager(cfg.Session.Secret, cfg.Session.TokenTTL)
	hub := websocket.NewHub(logger)
	go hub.Run()

	// 5. Initialize Rate Limiters
	var generalRateLimiter, uploadRateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		generalConfig := mw.DefaultRateLimiterConfig()
		generalConfig.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		generalConfig.BurstSize = cfg.RateLimit.BurstSize
		generalRateLimiter = mw.NewRateLimiter(generalConfig)

		uploadConfig := mw.UploadRateLimiterConfig()
		uploadConfig.RequestsPerSecond = cfg.RateLimit.UploadRPS
		uploadConfig.BurstSize = cfg.RateLimit.UploadBurst
		uploadRateLimiter = mw.NewRateLimiter(uploadConfig)
	}

	// 6. Dependency Injection (Wiring the Hexagon)

	// Error Handler
	errorHandler := httpAdapter.NewErrorHandler(logger)

	// Services (Core)
	ingestService := services.NewIngestService(datasetRepo, hub, cfg.Upload.MaxRows)
	analyticsService := services.NewAnalyticsService(datasetRepo)
	trendService := services.NewTrendService(datasetRepo, analyticsService,
		cfg.Forecast.DefaultHorizon, cfg.Forecast.MaxHorizon)

	// Handlers (Primary Adapters)
	datasetHandler := httpAdapter.NewDatasetHandler(ingestService, datasetRepo,
		tokenManager, errorHandler, logger, cfg.Upload.MaxFileBytes)
	analyticsHandler := httpAdapter.NewAnalyticsHandler(analyticsService, errorHandler, logger)
	filtersHandler := httpAdapter.NewFiltersHandler(analyticsService, hub, errorHandler, logger)
	trendsHandler := httpAdapter.NewTrendsHandler(trendService, errorHandler, logger)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, tokenManager, cfg, logger)
	healthHandler := httpAdapter.NewHealthHandler(healthChecker, hub, cfg.App.Version)

	// 7. Setup Router
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Admin-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Apply general rate limiting if enabled
	if generalRateLimiter != nil {
		r.Use(generalRateLimiter.Middleware)
	}

	// Health check endpoints (outside /api/v1 for standard probe paths)
	r.Get("/health", healthHandler.HandleHealth)
	r.Get("/health/live", healthHandler.HandleLiveness)
	r.Get("/health/ready", healthHandler.HandleReadiness)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Upload is the expensive path; give it the strict limiter
		r.Group(func(r chi.Router) {
			if uploadRateLimiter != nil {
				r.Use(uploadRateLimiter.Middleware)
			}
			r.Post("/datasets", datasetHandler.HandleUpload)
		})
		r.Get("/datasets", datasetHandler.HandleList)

		// WebSocket route (authentication is handled inside the handler)
		r.Get("/ws", wsHandler.ServeHTTP)

		// Session-protected routes
		r.Group(func(r chi.Router) {
			r.Use(mw.SessionMiddleware(tokenManager))
			datasetHandler.RegisterProtectedRoutes(r)
			r.Route("/analytics", analyticsHandler.RegisterRoutes)
			r.Route("/filters", filtersHandler.RegisterRoutes)
			r.Route("/trends", trendsHandler.RegisterRoutes)
		})

		// Debug routes (disabled unless explicitly enabled)
		if cfg.Debug.Enabled {
			debugHandler := httpAdapter.NewDebugHandler(cfg.Debug.AdminKeyHash,
				errorHandler, logger, cfg.Upload.MaxFileBytes)
			r.Route("/debug", debugHandler.RegisterRoutes)
		}
	})

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}
