package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/shelfwise/shelfwise/pkg/config"
	"github.com/shelfwise/shelfwise/pkg/observability"
	"github.com/shelfwise/shelfwise/pkg/storage/postgres"
	"github.com/shelfwise/shelfwise/pkg/tasks"
)

const version = "1.0.0"

var runOnce = flag.Bool("run-once", false, "Run view refresh and rating rollup once and exit (for testing or backfilling)")

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.Observability.LogLevel)
	logger.WithField("version", version).Info("Starting shelfwise worker")

	db, err := postgres.Connect(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	maintenance := postgres.NewMaintenanceStore(db)

	// Run once mode (for testing or backfilling)
	if *runOnce {
		ctx := context.Background()
		if err := maintenance.RefreshMaterializedViews(ctx); err != nil {
			logger.Fatalf("View refresh failed: %v", err)
		}
		updated, err := maintenance.RecomputeBookRatings(ctx)
		if err != nil {
			logger.Fatalf("Rating rollup failed: %v", err)
		}
		logger.WithField("books_updated", updated).Info("Maintenance run completed")
		return
	}

	redisClient, err := postgres.NewRedisClient(cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	scheduler := tasks.NewScheduler(maintenance, redisClient, metrics, logger)
	if err := scheduler.Start(cfg.Tasks); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}
	logger.WithFields(logrus.Fields{
		"view_refresh_interval": cfg.Tasks.ViewRefreshInterval.String(),
		"cache_purge_interval":  cfg.Tasks.CachePurgeInterval.String(),
	}).Info("Scheduler started")

	// Metrics and probes on the health port
	healthServer := newHealthServer(cfg, db, redisClient, registry)
	go func() {
		logger.Infof("Health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Health server stopped")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logger.WithField("signal", sig.String()).Info("Shutting down")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := healthServer.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Health server shutdown error")
	}

	logger.Info("Worker stopped")
}

func newLogger(level observability.LogLevel) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	switch level {
	case observability.DebugLevel:
		logger.SetLevel(logrus.DebugLevel)
	case observability.WarnLevel:
		logger.SetLevel(logrus.WarnLevel)
	case observability.ErrorLevel:
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}

func newHealthServer(cfg *config.Config, db *sql.DB, redisClient *postgres.RedisClient, registry *prometheus.Registry) *http.Server {
	checker := observability.NewHealthChecker(db, redisClient.GetClient(), version)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", checker.Liveness)
	mux.HandleFunc("/readyz", checker.Readiness)
	observability.RegisterMetricsEndpoint(mux, registry)

	return &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: mux,
	}
}
