package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldops/workforce-dashboard/internal/aggregate"
	"fieldops/workforce-dashboard/internal/config"
	"fieldops/workforce-dashboard/internal/database"
	"fieldops/workforce-dashboard/internal/eventstore"
	"fieldops/workforce-dashboard/internal/handler"
	"fieldops/workforce-dashboard/internal/logger"
	"fieldops/workforce-dashboard/internal/metrics"
	"fieldops/workforce-dashboard/internal/repository"
	"fieldops/workforce-dashboard/internal/router"
	"fieldops/workforce-dashboard/internal/schedule"
	"fieldops/workforce-dashboard/internal/service"
	"fieldops/workforce-dashboard/internal/session"
	"fieldops/workforce-dashboard/internal/simpro"

	"go.uber.org/zap"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/local.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting workforce dashboard",
		zap.String("env", cfg.Env),
		zap.String("config_path", *configPath),
	)

	// Initialize database
	db, err := database.New(cfg.StoragePath, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	// Initialize SimPRO API client
	apiClient := simpro.NewClient(
		cfg.Simpro.BaseURL,
		cfg.Simpro.APIKey,
		time.Duration(cfg.Simpro.Timeout)*time.Second,
		log.Logger,
	)

	// Initialize repositories
	projectRepo := repository.NewProjectRepository(db.DB)
	workerRepo := repository.NewWorkerRepository(db.DB)
	jobRepo := repository.NewJobRepository(db.DB)
	approvalRepo := repository.NewApprovalRepository(db.DB)

	// Initialize pipeline components
	m := metrics.New()
	store := eventstore.NewStore(db.DB, log.Logger)
	reconstructor := session.NewReconstructor(log.Logger)
	aggregator := aggregate.NewAggregator(reconstructor, log.Logger)
	reconciler := schedule.NewReconciler(apiClient, log.Logger)

	dashboardService := service.NewDashboardService(
		apiClient,
		store,
		aggregator,
		reconciler,
		projectRepo,
		workerRepo,
		m,
		time.Duration(cfg.Pipeline.PollInterval)*time.Second,
		cfg.Pipeline.ScheduleWindowDays,
		log.Logger,
	)

	// Initialize handlers and router
	dashboardHandler := handler.NewDashboardHandler(dashboardService, log.Logger)
	projectHandler := handler.NewProjectHandler(projectRepo, log.Logger)
	workforceHandler := handler.NewWorkforceHandler(workerRepo, jobRepo, approvalRepo, log.Logger)

	httpHandler := router.New(dashboardHandler, projectHandler, workforceHandler, log.Logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      httpHandler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start HTTP server in goroutine
	go func() {
		log.Info("Starting HTTP server", zap.String("address", addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Start the ingestion poller
	dashboardService.Start()

	log.Info("Workforce dashboard started successfully",
		zap.String("simpro_url", cfg.Simpro.BaseURL),
		zap.Int("poll_interval_seconds", cfg.Pipeline.PollInterval),
	)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	log.Info("Shutting down workforce dashboard...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Warn("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	// Stop the poller; an in-flight pipeline run is allowed to finish
	done := make(chan struct{})
	go func() {
		dashboardService.Stop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("Dashboard service stopped successfully")
	case <-time.After(10 * time.Second):
		log.Warn("Shutdown timeout reached, exiting anyway")
	}

	log.Info("Workforce dashboard stopped")
}
