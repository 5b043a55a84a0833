package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/shelfwise/shelfwise/pkg/api"
	"github.com/shelfwise/shelfwise/pkg/auth"
	"github.com/shelfwise/shelfwise/pkg/config"
	"github.com/shelfwise/shelfwise/pkg/httputil"
	"github.com/shelfwise/shelfwise/pkg/middleware"
	"github.com/shelfwise/shelfwise/pkg/observability"
	"github.com/shelfwise/shelfwise/pkg/search"
	"github.com/shelfwise/shelfwise/pkg/storage"
	"github.com/shelfwise/shelfwise/pkg/storage/postgres"
	"github.com/shelfwise/shelfwise/pkg/tasks"
)

const version = "1.0.0"

// maxRequestBody caps JSON payloads; covers are file paths, not uploads.
const maxRequestBody = 1 << 20

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "shelfwise: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.WithField("version", version).Info("Starting shelfwise API server")

	ctx := context.Background()

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("initializing OpenTelemetry: %w", err)
	}

	db, err := postgres.Connect(cfg.Storage)
	if err != nil {
		return fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	defer db.Close()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}

	redisClient, err := postgres.NewRedisClient(cfg.Storage)
	if err != nil {
		return fmt.Errorf("connecting to Redis: %w", err)
	}
	defer redisClient.Close()

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	stores, err := buildStores(db, redisClient, cfg.Storage)
	if err != nil {
		return fmt.Errorf("building stores: %w", err)
	}

	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Review notifications run on a worker pool off the request path.
	notifier := tasks.NewReviewNotifier(
		tasks.NotifierStores{
			Reviews: stores.Reviews,
			Books:   stores.Books,
			Authors: stores.Authors,
			Users:   stores.Users,
		},
		tasks.NewSMTPSender(cfg.SMTP),
		tasks.NewRetryPolicy(tasks.RetryConfig{
			MaxAttempts: cfg.Tasks.NotificationMaxAttempts,
			Delay:       cfg.Tasks.NotificationRetryDelay,
		}),
		tasks.NewDeliveryLog(0),
		metrics,
		nil,
	)
	dispatcher := tasks.NewDispatcher(ctx, notifier, cfg.Tasks.WorkerCount)

	server := api.NewServer(stores, issuer, dispatcher, logger)

	searchEngine := search.NewEngine(db, redisClient, cfg.Storage.CacheTTL)
	search.NewHandlers(searchEngine).RegisterRoutes(server.Router())

	var handler http.Handler = httputil.Chain(
		httputil.RecoveryMiddleware,
		httputil.RequestIDMiddleware,
		httputil.ContentTypeMiddleware,
		httputil.MaxBytesMiddleware(maxRequestBody),
	)(server)
	if cfg.Server.DistributedRateLimit {
		handler = middleware.NewDistributedRateLimitMiddleware(redisClient.GetClient()).Handler(handler)
	} else {
		handler = middleware.NewRateLimitMiddleware().Handler(handler)
	}
	handler = observability.HTTPMetricsMiddleware(metrics)(handler)
	if providers != nil {
		handler = otelhttp.NewHandler(handler, "shelfwise-api")
	}

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthServer := newHealthServer(cfg.Server, db, redisClient, registry)

	var group errgroup.Group
	group.Go(func() error {
		logger.Infof("API server listening on %s", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("API server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		logger.Infof("Health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	shutdown := observability.NewShutdownManager(logger, apiServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return dispatcher.Shutdown(cfg.Server.ShutdownTimeout)
	})
	if providers != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, providers, logger)
		})
	}

	if err := shutdown.WaitForShutdown(); err != nil {
		return err
	}
	return group.Wait()
}

// buildStores wires the PostgreSQL repositories, with the book store
// wrapped in the Redis/LRU cache when caching is enabled.
func buildStores(db *sql.DB, redisClient *postgres.RedisClient, cfg storage.Config) (api.Stores, error) {
	var books storage.BookRepository = postgres.NewBookStore(db)
	if cfg.CacheEnabled {
		cached, err := postgres.NewCachedBookStore(books, redisClient, cfg)
		if err != nil {
			return api.Stores{}, err
		}
		books = cached
	}

	return api.Stores{
		Users:      postgres.NewUserStore(db),
		Authors:    postgres.NewAuthorStore(db),
		Books:      books,
		Genres:     postgres.NewGenreStore(db),
		Reviews:    postgres.NewReviewStore(db),
		Favourites: postgres.NewFavouriteStore(db),
		Roles:      postgres.NewRoleStore(db),
	}, nil
}

// newHealthServer serves liveness, readiness and metrics on a separate
// port so probes stay reachable under API load.
func newHealthServer(cfg config.ServerConfig, db *sql.DB, redisClient *postgres.RedisClient, registry *prometheus.Registry) *http.Server {
	checker := observability.NewHealthChecker(db, redisClient.GetClient(), version)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", checker.Liveness)
	mux.HandleFunc("/readyz", checker.Readiness)
	observability.RegisterMetricsEndpoint(mux, registry)

	return &http.Server{
		Addr:    cfg.Host + ":" + cfg.HealthPort,
		Handler: mux,
	}
}
