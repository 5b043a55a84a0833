package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

const readinessTimeout = 5 * time.Second

// HealthChecker probes the catalog's backing services. PostgreSQL is
// the system of record so a dead database means unhealthy; Redis only
// costs caching, so a dead Redis degrades instead.
type HealthChecker struct {
	db      *sql.DB
	redis   *redis.Client
	version string
}

// NewHealthChecker creates a checker over the given connections. Either
// connection may be nil; nil dependencies are skipped.
func NewHealthChecker(db *sql.DB, redis *redis.Client, version string) *HealthChecker {
	return &HealthChecker{db: db, redis: redis, version: version}
}

// HealthStatus is the readiness payload.
type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Version      string                      `json:"version,omitempty"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus reports one probed dependency.
type DependencyStatus struct {
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Latency   time.Duration `json:"latency_ms,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Liveness answers 200 whenever the process can serve HTTP.
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    StatusHealthy,
		"timestamp": time.Now(),
	})
}

// Readiness probes every dependency; 503 only when unhealthy, so a
// degraded instance keeps taking traffic.
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if status.Status == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(status)
}

// Check probes all configured dependencies and folds their states into
// one overall status.
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:       StatusHealthy,
		Timestamp:    time.Now(),
		Version:      h.version,
		Dependencies: make(map[string]DependencyStatus),
	}

	if h.db != nil {
		dep := h.checkDatabase(ctx)
		status.Dependencies["database"] = dep
		switch dep.Status {
		case StatusUnhealthy:
			status.Status = StatusUnhealthy
		case StatusDegraded:
			if status.Status == StatusHealthy {
				status.Status = StatusDegraded
			}
		}
	}

	if h.redis != nil {
		dep := h.checkRedis(ctx)
		status.Dependencies["redis"] = dep
		if dep.Status == StatusUnhealthy && status.Status == StatusHealthy {
			status.Status = StatusDegraded
		}
	}

	return status
}

func (h *HealthChecker) checkDatabase(ctx context.Context) DependencyStatus {
	start := time.Now()
	dep := DependencyStatus{Status: StatusHealthy, Timestamp: start}

	var one int
	err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
	dep.Latency = time.Since(start)
	if err != nil {
		dep.Status = StatusUnhealthy
		dep.Message = err.Error()
		return dep
	}

	if stats := h.db.Stats(); stats.MaxOpenConnections > 0 && stats.OpenConnections >= stats.MaxOpenConnections {
		dep.Status = StatusDegraded
		dep.Message = "connection pool exhausted"
	}
	return dep
}

func (h *HealthChecker) checkRedis(ctx context.Context) DependencyStatus {
	start := time.Now()
	dep := DependencyStatus{Status: StatusHealthy, Timestamp: start}

	if err := h.redis.Ping(ctx).Err(); err != nil {
		dep.Status = StatusUnhealthy
		dep.Message = err.Error()
	}
	dep.Latency = time.Since(start)
	return dep
}
