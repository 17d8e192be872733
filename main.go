package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gitaura/internal/badges"
	"gitaura/internal/config"
	"gitaura/internal/database"
	"gitaura/internal/github"
	"gitaura/internal/handlers"
	"gitaura/internal/leaderboard"
	"gitaura/internal/metrics"
	"gitaura/internal/middleware"
	"gitaura/internal/refresh"
	"gitaura/internal/scheduler"
	"gitaura/internal/snapshot"
)

func main() {
	runServer()
}

func runServer() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set up logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting gitaura server",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.DatabasePath,
		"log_level", cfg.LogLevel)

	// Open database
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("Database opened successfully")

	// Wire up components
	githubClient := github.NewClient(cfg.GitHubToken, logger)
	aggregator := leaderboard.NewAggregator(db)
	orchestrator := refresh.NewOrchestrator(db, githubClient, aggregator)

	var notifier badges.Notifier = badges.NoopNotifier{}
	if cfg.BadgeAwardURL != "" {
		notifier = badges.NewClient(cfg.BadgeAwardURL)
	}
	capture := snapshot.NewCapture(db, notifier)

	// Create handlers
	syncHandler := handlers.NewSyncHandler(orchestrator, capture, cfg)
	leaderboardHandler := handlers.NewLeaderboardHandler(db)

	// Set up HTTP routes
	mux := http.NewServeMux()

	// Trigger endpoints (shared-secret protected)
	mux.Handle("/refresh-user", middleware.WrapHandler(metrics.EndpointRefreshUser, syncHandler.HandleRefreshUser))
	mux.Handle("/refresh-all", middleware.WrapHandler(metrics.EndpointRefreshAll, syncHandler.HandleRefreshAll))
	mux.Handle("/capture-winners", middleware.WrapHandler(metrics.EndpointCaptureWinners, syncHandler.HandleCaptureWinners))

	// Read endpoints
	mux.Handle("/leaderboard", middleware.WrapHandler(metrics.EndpointLeaderboard, leaderboardHandler.HandleLeaderboard))
	mux.Handle("/winners", middleware.WrapHandler(metrics.EndpointWinners, leaderboardHandler.HandleWinners))

	// Health check endpoint
	mux.Handle("/health", middleware.WrapHandler(metrics.EndpointHealth, func(w http.ResponseWriter, r *http.Request) {
		if err := db.Health(); err != nil {
			http.Error(w, "Database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
		// A synchronous bulk refresh over a large user population can take
		// a while; the write timeout has to cover it.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	backgroundCtx, backgroundCancel := context.WithCancel(context.Background())
	defer backgroundCancel()

	// Start scheduler if enabled
	if cfg.ScheduleEnabled {
		sched := scheduler.New(orchestrator, aggregator, capture, scheduler.Config{
			RunAtHourUTC:      cfg.ScheduleHourUTC,
			BatchSize:         cfg.RefreshBatchSize,
			InterBatchDelay:   cfg.RefreshInterBatchDelay,
			InterRequestDelay: cfg.RefreshInterRequestDelay,
		})
		go func() {
			logger.Info("Starting daily scheduler")
			if err := sched.Start(backgroundCtx); err != nil && err != context.Canceled {
				logger.Error("Scheduler failed", "error", err)
			}
		}()
	}

	// Start rate limit gauge collector if metrics are enabled
	if cfg.MetricsEnabled {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-backgroundCtx.Done():
					return
				case <-ticker.C:
					metrics.GitHubRateLimitRemaining.Set(float64(githubClient.RateLimitStatus().Remaining))
				}
			}
		}()
	}

	// Start metrics server if enabled
	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())

		metricsAddr := fmt.Sprintf("%s:%d", cfg.MetricsHost, cfg.MetricsPort)
		metricsServer = &http.Server{
			Addr:    metricsAddr,
			Handler: metricsMux,
		}

		go func() {
			logger.Info("Metrics server listening", "addr", metricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Start HTTP server in background
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down gracefully...")

	// Stop background jobs
	backgroundCancel()

	// Shutdown HTTP servers with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown failed", "error", err)
		}
	}

	logger.Info("Server stopped")
}
