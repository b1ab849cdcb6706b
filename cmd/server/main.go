package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/eleblu/bluswipe/internal/config"
	"github.com/eleblu/bluswipe/internal/http/handlers"
	"github.com/eleblu/bluswipe/internal/http/routes"
	"github.com/eleblu/bluswipe/internal/metrics"
	"github.com/eleblu/bluswipe/internal/rembg"
	"github.com/eleblu/bluswipe/internal/services/processor"
	"github.com/eleblu/bluswipe/internal/services/queue"
	"github.com/eleblu/bluswipe/internal/services/remover"
	"github.com/eleblu/bluswipe/internal/services/storage"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		logger.Warn("Settings file not honored, using defaults", zap.Error(err))
	}

	m := metrics.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Warm the segmentation session before accepting traffic
	session, err := rembg.NewSessionManager(ctx, cfg.Rembg.URL,
		settings.GetString("models.default", rembg.DefaultModel), cfg.Rembg.Timeout, logger)
	if err != nil {
		logger.Fatal("Failed to initialize segmentation session", zap.Error(err))
	}

	proc := processor.New(processor.DefaultMaxDimension)

	store, err := storage.NewStorageService(cfg, settings, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage service", zap.Error(err))
	}
	defer store.Close()

	svc := remover.NewService(session, proc, store, m, remover.Config{
		ItemTimeout:   time.Duration(settings.GetInt("processing.item_timeout", 60)) * time.Second,
		MaxBatchFiles: settings.GetInt("web.max_batch_files", 10),
	}, logger)

	q, err := queue.NewQueueService(cfg.RabbitMQ.URL, svc, store, logger)
	if err != nil {
		logger.Warn("Failed to initialize queue service", zap.Error(err))
		// Continue without queue service for basic functionality
	} else {
		defer q.Close()
		for i := 1; i <= cfg.Queue.Workers; i++ {
			if err := q.StartWorker(ctx, i); err != nil {
				logger.Error("Failed to start worker", zap.Int("worker_id", i), zap.Error(err))
			}
		}
	}

	// Periodic sweep of stale uploads and outputs
	interval := settings.GetInt("web.cleanup_interval", 3600)
	retention := time.Duration(settings.GetInt("web.file_retention", 3600)) * time.Second

	sweeper := cron.New()
	if _, err := sweeper.AddFunc(fmt.Sprintf("@every %ds", interval), func() {
		removed := store.Sweep(retention)
		m.ObserveCleanup(removed)
		logger.Info("Cleanup sweep finished", zap.Int("removed", removed))
	}); err != nil {
		logger.Error("Failed to schedule cleanup sweep", zap.Error(err))
	}
	sweeper.Start()
	defer sweeper.Stop()

	handler := handlers.NewHandler(svc, store, q, settings, logger)
	router := routes.NewRouter(handler, m, logger)

	port := cfg.Server.Port
	if port == "" {
		port = strconv.Itoa(settings.GetInt("web.port", 8000))
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server",
			zap.String("addr", server.Addr),
			zap.String("model", session.Model()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stop queue workers before draining in-flight requests
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
