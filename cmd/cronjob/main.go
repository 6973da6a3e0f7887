package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ewm-participation/internal/client/eventclient"
	"ewm-participation/internal/config"
	"ewm-participation/internal/jobs"
	"ewm-participation/internal/logger"
	"ewm-participation/internal/repository/postgres"
	"ewm-participation/internal/scheduler"
	"ewm-participation/internal/security"
	"ewm-participation/internal/server"
	"ewm-participation/internal/service"
)

// The cronjob runner drives maintenance jobs outside the HTTP services. Which
// jobs it can run depends on the database it is pointed at: the request
// database carries the adjustment outbox, the event database the counters.
func main() {
	configPath := flag.String("config", "config/config.request.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'retry-counter-adjustments', 'reconcile-counters', 'all')")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format, "cronjob")
	logger.Info("Starting cronjob runner...", "log_level", cfg.Log.Level)

	db, err := server.OpenDatabase(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	store := postgres.NewStore(db)
	services := &jobs.Services{}

	// An event_service block means this is the request database.
	if cfg.EventService.BaseURL != "" {
		if err := cfg.ValidateEventClient(); err != nil {
			log.Fatalf("Invalid event service configuration: %v", err)
		}
		tokenManager := security.NewTokenManager(cfg.Security.ServiceSecret, cfg.Security.TokenTTL)
		events, err := eventclient.New(cfg.EventService, tokenManager, cfg.Security.ServiceName, nil)
		if err != nil {
			log.Fatalf("Failed to create event service client: %v", err)
		}
		services.Compensation = service.NewCompensationService(store.AdjustmentRepository, store.RequestRepository, events)
	} else {
		services.Capacity = service.NewCapacityService(store.EventRepository)
	}

	jobRunner := jobs.NewJobRunner(services, cfg)

	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	cronScheduler := scheduler.NewScheduler(jobRunner)
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	services := jobRunner.Services()
	switch jobName {
	case "retry-counter-adjustments":
		if services.Compensation == nil {
			log.Fatalf("Job %s needs the request service configuration", jobName)
		}
		jobRunner.RetryCounterAdjustments()
	case "reconcile-counters":
		if services.Capacity == nil {
			log.Fatalf("Job %s needs the event service configuration", jobName)
		}
		jobRunner.ReconcileCounters()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - retry-counter-adjustments\n")
		fmt.Printf("  - reconcile-counters\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
