package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shelfwise/shelfwise/pkg/observability"
	"github.com/shelfwise/shelfwise/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration
	Storage storage.Config

	// Auth configuration
	Auth AuthConfig

	// Background task configuration
	Tasks TasksConfig

	// Email delivery configuration
	SMTP SMTPConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string

	// Back the rate limiter with Redis so limits hold across replicas
	DistributedRateLimit bool
}

// AuthConfig holds token signing configuration
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// TasksConfig holds background task scheduling configuration
type TasksConfig struct {
	ViewRefreshInterval     time.Duration
	CachePurgeInterval      time.Duration
	NotificationMaxAttempts int
	NotificationRetryDelay  time.Duration
	WorkerCount             int
}

// SMTPConfig holds outbound email configuration
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// fileConfig mirrors the YAML configuration file layout. Environment
// variables take precedence over file values.
type fileConfig struct {
	Server struct {
		Host            string `yaml:"host"`
		Port            string `yaml:"port"`
		HealthPort      string `yaml:"health_port"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		IdleTimeout     string `yaml:"idle_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`

		DistributedRateLimit *bool `yaml:"distributed_ratelimit"`
	} `yaml:"server"`
	Storage struct {
		PostgresURL   string `yaml:"postgres_url"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       *int   `yaml:"redis_db"`
		CacheEnabled  *bool  `yaml:"cache_enabled"`
		CacheTTL      string `yaml:"cache_ttl"`
		L1CacheSize   int    `yaml:"l1_cache_size"`
	} `yaml:"storage"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		TokenTTL  string `yaml:"token_ttl"`
	} `yaml:"auth"`
	Tasks struct {
		ViewRefreshInterval     string `yaml:"view_refresh_interval"`
		CachePurgeInterval      string `yaml:"cache_purge_interval"`
		NotificationMaxAttempts int    `yaml:"notification_max_attempts"`
		NotificationRetryDelay  string `yaml:"notification_retry_delay"`
		WorkerCount             int    `yaml:"worker_count"`
	} `yaml:"tasks"`
	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		From     string `yaml:"from"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"smtp"`
	Observability struct {
		LogLevel       string `yaml:"log_level"`
		MetricsEnabled *bool  `yaml:"metrics_enabled"`
		OTelEnabled    *bool  `yaml:"otel_enabled"`
		OTelEndpoint   string `yaml:"otel_endpoint"`
	} `yaml:"observability"`
}

// LoadConfig loads configuration from an optional YAML file and environment
// variables. File values override defaults, environment variables override
// file values. The file path comes from SHELFWISE_CONFIG_FILE.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Auth:          loadAuthConfig(),
		Tasks:         loadTasksConfig(),
		SMTP:          loadSMTPConfig(),
		Observability: loadObservabilityConfig(),
	}

	if path := getEnv("SHELFWISE_CONFIG_FILE", ""); path != "" {
		if err := applyConfigFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyConfigFile overlays file values onto cfg for every field the
// corresponding environment variable did not set.
func applyConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	setUnlessEnv := func(envKey string, dst *string, fileVal string) {
		if fileVal != "" && os.Getenv(envKey) == "" {
			*dst = fileVal
		}
	}
	setDurationUnlessEnv := func(envKey string, dst *time.Duration, fileVal string) {
		if fileVal != "" && os.Getenv(envKey) == "" {
			if d, err := time.ParseDuration(fileVal); err == nil {
				*dst = d
			}
		}
	}

	setUnlessEnv("SHELFWISE_HOST", &cfg.Server.Host, fc.Server.Host)
	setUnlessEnv("SHELFWISE_PORT", &cfg.Server.Port, fc.Server.Port)
	setUnlessEnv("SHELFWISE_HEALTH_PORT", &cfg.Server.HealthPort, fc.Server.HealthPort)
	setDurationUnlessEnv("SHELFWISE_READ_TIMEOUT", &cfg.Server.ReadTimeout, fc.Server.ReadTimeout)
	setDurationUnlessEnv("SHELFWISE_WRITE_TIMEOUT", &cfg.Server.WriteTimeout, fc.Server.WriteTimeout)
	setDurationUnlessEnv("SHELFWISE_IDLE_TIMEOUT", &cfg.Server.IdleTimeout, fc.Server.IdleTimeout)
	setDurationUnlessEnv("SHELFWISE_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout, fc.Server.ShutdownTimeout)
	if fc.Server.DistributedRateLimit != nil && os.Getenv("SHELFWISE_DISTRIBUTED_RATELIMIT") == "" {
		cfg.Server.DistributedRateLimit = *fc.Server.DistributedRateLimit
	}

	setUnlessEnv("SHELFWISE_POSTGRES_URL", &cfg.Storage.PostgresURL, fc.Storage.PostgresURL)
	setUnlessEnv("SHELFWISE_REDIS_ADDR", &cfg.Storage.RedisAddr, fc.Storage.RedisAddr)
	setUnlessEnv("SHELFWISE_REDIS_PASSWORD", &cfg.Storage.RedisPassword, fc.Storage.RedisPassword)
	if fc.Storage.RedisDB != nil && os.Getenv("SHELFWISE_REDIS_DB") == "" {
		cfg.Storage.RedisDB = *fc.Storage.RedisDB
	}
	if fc.Storage.CacheEnabled != nil && os.Getenv("SHELFWISE_CACHE_ENABLED") == "" {
		cfg.Storage.CacheEnabled = *fc.Storage.CacheEnabled
	}
	setDurationUnlessEnv("SHELFWISE_CACHE_TTL", &cfg.Storage.CacheTTL, fc.Storage.CacheTTL)
	if fc.Storage.L1CacheSize > 0 && os.Getenv("SHELFWISE_L1_CACHE_SIZE") == "" {
		cfg.Storage.L1CacheSize = fc.Storage.L1CacheSize
	}

	setUnlessEnv("SHELFWISE_JWT_SECRET", &cfg.Auth.JWTSecret, fc.Auth.JWTSecret)
	setDurationUnlessEnv("SHELFWISE_TOKEN_TTL", &cfg.Auth.TokenTTL, fc.Auth.TokenTTL)

	setDurationUnlessEnv("SHELFWISE_VIEW_REFRESH_INTERVAL", &cfg.Tasks.ViewRefreshInterval, fc.Tasks.ViewRefreshInterval)
	setDurationUnlessEnv("SHELFWISE_CACHE_PURGE_INTERVAL", &cfg.Tasks.CachePurgeInterval, fc.Tasks.CachePurgeInterval)
	if fc.Tasks.NotificationMaxAttempts > 0 && os.Getenv("SHELFWISE_NOTIFICATION_MAX_ATTEMPTS") == "" {
		cfg.Tasks.NotificationMaxAttempts = fc.Tasks.NotificationMaxAttempts
	}
	setDurationUnlessEnv("SHELFWISE_NOTIFICATION_RETRY_DELAY", &cfg.Tasks.NotificationRetryDelay, fc.Tasks.NotificationRetryDelay)
	if fc.Tasks.WorkerCount > 0 && os.Getenv("SHELFWISE_WORKER_COUNT") == "" {
		cfg.Tasks.WorkerCount = fc.Tasks.WorkerCount
	}

	setUnlessEnv("SHELFWISE_SMTP_HOST", &cfg.SMTP.Host, fc.SMTP.Host)
	if fc.SMTP.Port > 0 && os.Getenv("SHELFWISE_SMTP_PORT") == "" {
		cfg.SMTP.Port = fc.SMTP.Port
	}
	setUnlessEnv("SHELFWISE_SMTP_FROM", &cfg.SMTP.From, fc.SMTP.From)
	setUnlessEnv("SHELFWISE_SMTP_USERNAME", &cfg.SMTP.Username, fc.SMTP.Username)
	setUnlessEnv("SHELFWISE_SMTP_PASSWORD", &cfg.SMTP.Password, fc.SMTP.Password)

	if fc.Observability.LogLevel != "" && os.Getenv("SHELFWISE_LOG_LEVEL") == "" {
		cfg.Observability.LogLevel = parseLogLevel(fc.Observability.LogLevel)
	}
	if fc.Observability.MetricsEnabled != nil && os.Getenv("SHELFWISE_METRICS_ENABLED") == "" {
		cfg.Observability.MetricsEnabled = *fc.Observability.MetricsEnabled
	}
	if fc.Observability.OTelEnabled != nil && os.Getenv("SHELFWISE_OTEL_ENABLED") == "" {
		cfg.Observability.OTelEnabled = *fc.Observability.OTelEnabled
	}
	setUnlessEnv("SHELFWISE_OTEL_ENDPOINT", &cfg.Observability.OTelEndpoint, fc.Observability.OTelEndpoint)

	return nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("SHELFWISE_HOST", "0.0.0.0"),
		Port:            getEnv("SHELFWISE_PORT", "8080"),
		ReadTimeout:     getEnvDuration("SHELFWISE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("SHELFWISE_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("SHELFWISE_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("SHELFWISE_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("SHELFWISE_HEALTH_PORT", "9090"),

		DistributedRateLimit: getEnvBool("SHELFWISE_DISTRIBUTED_RATELIMIT", false),
	}
}

// loadStorageConfig loads storage configuration from environment
func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	// PostgreSQL config
	if pgURL := getEnv("SHELFWISE_POSTGRES_URL", ""); pgURL != "" {
		cfg.PostgresURL = pgURL
	}
	if maxConns := getEnvInt("SHELFWISE_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.PostgresMaxConns = maxConns
	}
	if minConns := getEnvInt("SHELFWISE_POSTGRES_MIN_CONNS", 0); minConns > 0 {
		cfg.PostgresMinConns = minConns
	}
	if timeout := getEnvDuration("SHELFWISE_POSTGRES_TIMEOUT", 0); timeout > 0 {
		cfg.PostgresTimeout = timeout
	}

	// Redis config
	if redisAddr := getEnv("SHELFWISE_REDIS_ADDR", ""); redisAddr != "" {
		cfg.RedisAddr = redisAddr
	}
	if redisPassword := getEnv("SHELFWISE_REDIS_PASSWORD", ""); redisPassword != "" {
		cfg.RedisPassword = redisPassword
	}
	if redisDB := getEnvInt("SHELFWISE_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}
	if redisMaxRetries := getEnvInt("SHELFWISE_REDIS_MAX_RETRIES", 0); redisMaxRetries > 0 {
		cfg.RedisMaxRetries = redisMaxRetries
	}
	if redisPoolSize := getEnvInt("SHELFWISE_REDIS_POOL_SIZE", 0); redisPoolSize > 0 {
		cfg.RedisPoolSize = redisPoolSize
	}

	// Cache config
	if cacheEnabled := getEnv("SHELFWISE_CACHE_ENABLED", ""); cacheEnabled != "" {
		cfg.CacheEnabled = strings.ToLower(cacheEnabled) == "true"
	}
	if cacheTTL := getEnvDuration("SHELFWISE_CACHE_TTL", 0); cacheTTL > 0 {
		cfg.CacheTTL = cacheTTL
	}
	if l1CacheSize := getEnvInt("SHELFWISE_L1_CACHE_SIZE", 0); l1CacheSize > 0 {
		cfg.L1CacheSize = l1CacheSize
	}

	return cfg
}

// loadAuthConfig loads auth configuration from environment
func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret: getEnv("SHELFWISE_JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("SHELFWISE_TOKEN_TTL", 24*time.Hour),
	}
}

// loadTasksConfig loads background task configuration from environment
func loadTasksConfig() TasksConfig {
	return TasksConfig{
		ViewRefreshInterval:     getEnvDuration("SHELFWISE_VIEW_REFRESH_INTERVAL", 30*time.Minute),
		CachePurgeInterval:      getEnvDuration("SHELFWISE_CACHE_PURGE_INTERVAL", time.Hour),
		NotificationMaxAttempts: getEnvInt("SHELFWISE_NOTIFICATION_MAX_ATTEMPTS", 3),
		NotificationRetryDelay:  getEnvDuration("SHELFWISE_NOTIFICATION_RETRY_DELAY", 30*time.Second),
		WorkerCount:             getEnvInt("SHELFWISE_WORKER_COUNT", 4),
	}
}

// loadSMTPConfig loads email configuration from environment
func loadSMTPConfig() SMTPConfig {
	return SMTPConfig{
		Host:     getEnv("SHELFWISE_SMTP_HOST", ""),
		Port:     getEnvInt("SHELFWISE_SMTP_PORT", 587),
		From:     getEnv("SHELFWISE_SMTP_FROM", "noreply@shelfwise.io"),
		Username: getEnv("SHELFWISE_SMTP_USERNAME", ""),
		Password: getEnv("SHELFWISE_SMTP_PASSWORD", ""),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	cfg := ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("SHELFWISE_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("SHELFWISE_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("SHELFWISE_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("SHELFWISE_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("SHELFWISE_OTEL_SERVICE_NAME", "shelfwise-api"),
		OTelServiceVersion: getEnv("SHELFWISE_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("SHELFWISE_OTEL_INSECURE", true),
	}

	return cfg
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Validate storage config
	if c.Storage.PostgresURL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Storage.CacheEnabled && c.Storage.RedisAddr == "" {
		return fmt.Errorf("redis address is required when cache is enabled")
	}

	// Validate auth config
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}

	// Validate task config
	if c.Tasks.NotificationMaxAttempts < 1 {
		return fmt.Errorf("notification max attempts must be at least 1")
	}
	if c.Tasks.WorkerCount < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
