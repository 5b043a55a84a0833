// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings. An optional YAML file referenced by
// SHELFWISE_CONFIG_FILE supplies values for anything the environment leaves unset.
//
// # Configuration Structure
//
// Server settings:
//
//	SHELFWISE_HOST="0.0.0.0"
//	SHELFWISE_PORT="8080"
//	SHELFWISE_HEALTH_PORT="9090"
//	SHELFWISE_READ_TIMEOUT="15s"
//	SHELFWISE_WRITE_TIMEOUT="15s"
//
// Storage settings:
//
//	SHELFWISE_POSTGRES_URL="postgres://localhost/shelfwise"
//	SHELFWISE_POSTGRES_MAX_CONNS="20"
//	SHELFWISE_REDIS_ADDR="localhost:6379"
//	SHELFWISE_CACHE_ENABLED="true"
//	SHELFWISE_CACHE_TTL="5m"
//
// Auth settings:
//
//	SHELFWISE_JWT_SECRET="..."
//	SHELFWISE_TOKEN_TTL="24h"
//
// Background task settings:
//
//	SHELFWISE_VIEW_REFRESH_INTERVAL="30m"
//	SHELFWISE_CACHE_PURGE_INTERVAL="1h"
//	SHELFWISE_NOTIFICATION_MAX_ATTEMPTS="3"
//	SHELFWISE_NOTIFICATION_RETRY_DELAY="30s"
//
// Observability settings:
//
//	SHELFWISE_LOG_LEVEL="info"  # debug, info, warn, error
//	SHELFWISE_METRICS_ENABLED="true"
//	SHELFWISE_OTEL_ENABLED="true"
//	SHELFWISE_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
//
// # Related Packages
//
//   - pkg/storage: Uses storage configuration
//   - pkg/observability: Uses observability configuration
package config
