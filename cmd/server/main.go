// BaseGenspark gateway - REST proxy for pedagogical agent tracking.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alkymya/basegenspark/internal/api"
	"github.com/alkymya/basegenspark/internal/backend"
	"github.com/alkymya/basegenspark/internal/config"
	"github.com/alkymya/basegenspark/internal/crm"
	"github.com/alkymya/basegenspark/internal/middleware"
	"github.com/alkymya/basegenspark/internal/session"
	"github.com/alkymya/basegenspark/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting gateway", "port", cfg.Port, "backend_url", cfg.BackendURL)

	// Initialize dependencies.
	client := backend.New(cfg.BackendURL, cfg.BackendAPIKey, cfg.Timeout.BackendRequest)
	repo := store.NewREST(client)

	if err := repo.Ping(context.Background()); err != nil {
		slog.Warn("Backend not reachable at startup, continuing", "error", err)
	} else {
		slog.Info("Backend connected")
	}

	// Initialize services.
	sessions := session.NewService(repo)
	crmService := crm.NewService(client)

	// Initialize handlers.
	agentHandler := api.NewAgentHandler(sessions)
	logsHandler := api.NewLogsHandler(repo)
	crmHandler := api.NewCRMHandler(crmService)
	healthHandler := api.NewHealthHandler(repo, cfg.Timeout.HealthCheck)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Public routes.
	r.Get("/", api.Root)
	healthHandler.RegisterHealth(r)

	// Agent-facing routes behind the shared-secret token gate.
	gate := middleware.TokenGate(cfg.AgentToken)
	r.Route("/agent", func(r chi.Router) {
		r.Use(gate)
		agentHandler.RegisterRoutes(r)
	})
	r.Route("/logs", func(r chi.Router) {
		r.Use(gate)
		logsHandler.RegisterRoutes(r)
	})
	r.Route("/crm", func(r chi.Router) {
		r.Use(gate)
		crmHandler.RegisterRoutes(r)
	})

	// Create server.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Timeout.BackendRequest + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
