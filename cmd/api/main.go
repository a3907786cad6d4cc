package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/user/internship-ingest/internal/adapter/chromedp_session"
	"github.com/user/internship-ingest/internal/adapter/postgres"
	redis_adapter "github.com/user/internship-ingest/internal/adapter/redis"
	"github.com/user/internship-ingest/internal/delivery/http/handler"
	"github.com/user/internship-ingest/internal/delivery/http/router"
	"github.com/user/internship-ingest/internal/source"
	"github.com/user/internship-ingest/internal/usecase"
	"github.com/user/internship-ingest/internal/worker"
	"github.com/user/internship-ingest/pkg/config"
	"github.com/user/internship-ingest/pkg/logger"
	"github.com/user/internship-ingest/pkg/metrics"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		// The logger is not configured yet.
		zap.NewExample().Fatal("Could not load config", zap.Error(err))
	}

	// --- Logger ---
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		zap.NewExample().Fatal("Could not build logger", zap.Error(err))
	}
	defer log.Sync()

	// --- Metrics ---
	m := metrics.New(prometheus.DefaultRegisterer)

	// --- Database Connections ---
	ctx := context.Background()

	// PostgreSQL
	dbpool, err := postgres.NewPool(ctx, cfg.PostgresDSN(), cfg.PostgresMaxConns)
	if err != nil {
		log.Fatal("Unable to connect to database", zap.Error(err))
	}
	defer dbpool.Close()
	if err := postgres.EnsureSchema(ctx, dbpool); err != nil {
		log.Fatal("Unable to create schema", zap.Error(err))
	}
	log.Info("PostgreSQL connection pool established")

	// Redis
	rdb, err := redis_adapter.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal("Unable to connect to Redis", zap.Error(err))
	}
	defer rdb.Close()
	log.Info("Redis connection established")

	// --- Repositories ---
	listingRepo := postgres.NewListingRepo(dbpool)
	runRepo := postgres.NewRunRepo(dbpool)
	queueRepo := redis_adapter.NewRunQueueRepo(rdb)
	recentRepo := redis_adapter.NewRecentRunRepo(rdb)

	// --- Use Cases ---
	adapters, err := source.Select(cfg.SourceNames())
	if err != nil {
		log.Fatal("Invalid SOURCES", zap.Error(err))
	}
	sessions := chromedp_session.NewFactory(chromedp_session.Config{
		Headless:             cfg.BrowserHeadless,
		UserAgent:            cfg.BrowserUserAgent,
		ExecPath:             cfg.BrowserExecPath,
		ProxyServer:          cfg.BrowserProxy,
		AcceptLanguage:       cfg.BrowserAcceptLanguage,
		StartupTimeout:       cfg.StartupTimeout(),
		NavigationTimeout:    cfg.NavigationDeadline(),
		NavigationsPerMinute: cfg.NavigationsPerMinute,
	}, log)
	crawler := usecase.NewCrawlUseCase(sessions, adapters, usecase.CrawlConfig{
		ReadyTimeout: cfg.ReadyDeadline(),
		Parallel:     cfg.ParallelSources,
	}, log, m)
	ingestor := usecase.NewIngestUseCase(crawler, listingRepo, runRepo, queueRepo, recentRepo, cfg.MaxRetries, log, m)
	runManager := usecase.NewRunManager(recentRepo, queueRepo, runRepo, cfg.RunDedupWindow(), log)

	// --- Workers ---
	runCtx, cancelRuns := context.WithCancel(ctx)
	defer cancelRuns()
	pool := worker.NewPool(ingestor, cfg.IngestWorkers, log)
	pool.Start(runCtx)

	var scheduler *worker.Scheduler
	if cfg.IngestSchedule != "" {
		scheduler, err = worker.NewScheduler(cfg.IngestSchedule, runManager, cfg.SearchQuery, cfg.SearchLocation, log)
		if err != nil {
			log.Fatal("Invalid schedule", zap.Error(err))
		}
		scheduler.Start()
	}

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(runManager, listingRepo, map[string]handler.HealthCheck{
		"postgres": listingRepo.Ping,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}, log)
	httpRouter := router.New(apiHandler, m, prometheus.DefaultGatherer, log)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpRouter,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("Starting server", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Could not listen on port", zap.String("port", cfg.ServerPort), zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if scheduler != nil {
		scheduler.Stop()
	}

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		log.Warn("Cancelling runs still in progress")
		cancelRuns()
		<-stopped
	}

	log.Info("Server exiting")
}
