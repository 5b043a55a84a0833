// Package observability provides structured logging, Prometheus
// metrics, health probes, OpenTelemetry export and graceful shutdown.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("book_id", id).Info("book cached")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	handler = observability.HTTPMetricsMiddleware(metrics)(handler)
//
// # Health Probes
//
// A HealthChecker answers liveness and readiness. PostgreSQL down means
// unhealthy (503); Redis down only degrades, since the catalog serves
// without its cache.
//
//	checker := observability.NewHealthChecker(db, redisClient, version)
//	mux.HandleFunc("/healthz", checker.Liveness)
//	mux.HandleFunc("/readyz", checker.Readiness)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, cfg, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
//
// # Graceful Shutdown
//
//	shutdown := observability.NewShutdownManager(logger, server, timeout)
//	shutdown.RegisterShutdownFunc(dispatcherDrain)
//	err := shutdown.WaitForShutdown()
//
// # Related Packages
//
//   - pkg/config: observability settings
//   - pkg/middleware: rate limiting and authentication middleware
package observability
