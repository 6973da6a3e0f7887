package main

import (
	"context"
	"flag"
	"log"

	httpapi "ewm-participation/internal/api/http"
	"ewm-participation/internal/config"
	"ewm-participation/internal/jobs"
	"ewm-participation/internal/logger"
	"ewm-participation/internal/repository/postgres"
	"ewm-participation/internal/scheduler"
	"ewm-participation/internal/security"
	"ewm-participation/internal/server"
	"ewm-participation/internal/service"
	"ewm-participation/internal/telemetry"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const serviceName = "event-service"

func main() {
	configPath := flag.String("config", "config/config.event.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format, serviceName)
	logger.Info("Starting event service...", "log_level", cfg.Log.Level, "address", cfg.GetServerAddress())

	ctx := context.Background()
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, serviceName)
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	db, err := server.OpenDatabase(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	store := postgres.NewStore(db)
	capacitySvc := service.NewCapacityService(store.EventRepository)

	// Only the request service may call the interaction API.
	tokenManager := security.NewTokenManager(cfg.Security.ServiceSecret, cfg.Security.TokenTTL, "request-service")

	router := mux.NewRouter()
	httpapi.Use(router, tokenManager)
	httpapi.RegisterHealthRoutes(router, store)
	httpapi.RegisterInteractionRoutes(router, capacitySvc)

	jobRunner := jobs.NewJobRunner(&jobs.Services{Capacity: capacitySvc}, cfg)
	cronScheduler := scheduler.NewScheduler(jobRunner)

	if err := server.Run(cfg, otelhttp.NewHandler(router, serviceName), cronScheduler); err != nil {
		logger.Error("Server stopped with error", "error", err)
		log.Fatalf("Server error: %v", err)
	}
	logger.Info("Event service stopped")
}
