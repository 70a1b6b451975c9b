package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"proximity-dashboard/internal/config"
	"proximity-dashboard/internal/directory"
	"proximity-dashboard/internal/handlers"
	"proximity-dashboard/internal/history"
	"proximity-dashboard/internal/session"
	"proximity-dashboard/internal/telemetry"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	// Setup structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// A local .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	telemetryClient := telemetry.NewClient(cfg.TelemetryBaseURL, cfg.TelemetryToken, cfg.TelemetryTimeout)

	vehicles := directory.NewVehicleDirectory(telemetryClient)
	stations := directory.NewStationDirectory()
	sess := session.New(vehicles, stations)
	historyQuery := history.NewQuery(telemetryClient)

	// Load the roster in the background so the server comes up immediately.
	// The dashboard serves a placeholder until the load completes. The
	// session is released either way; a failed load leaves an empty roster,
	// not a stuck one.
	go func() {
		ctx := context.Background()
		roster, err := vehicles.LoadAll(ctx)
		sess.CompleteRosterLoad(ctx)
		if err != nil {
			slog.Error("Vehicle roster load failed", "error", err)
			return
		}
		slog.Info("Vehicle roster loaded", "count", len(roster))
	}()

	httpHandler := handlers.NewHTTPHandler(sess, vehicles, stations, historyQuery, cfg.MapAPIKey)

	router := mux.NewRouter()

	// Use path prefix if running behind load balancer
	if cfg.PathPrefix != "" {
		dashboardRouter := router.PathPrefix(cfg.PathPrefix).Subrouter()
		httpHandler.RegisterRoutes(dashboardRouter)
	} else {
		httpHandler.RegisterRoutes(router)
	}

	// Add CORS middleware for frontend
	router.Use(corsMiddleware)

	// Setup graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		slog.Info("Proximity Dashboard starting", "port", cfg.Port, "telemetry_api", cfg.TelemetryBaseURL)
		if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
			slog.Error("Proximity Dashboard failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	<-c
	slog.Info("Proximity Dashboard shutting down")
}

// corsMiddleware adds CORS headers for frontend access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
