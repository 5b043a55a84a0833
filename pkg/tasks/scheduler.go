package tasks

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/shelfwise/shelfwise/pkg/config"
	"github.com/shelfwise/shelfwise/pkg/observability"
	"github.com/shelfwise/shelfwise/pkg/storage"
)

// purgePatterns are the ephemeral key families the purge job clears.
// Cached search results and temporary keys only; entity cache keys are
// invalidated by their own writers.
var purgePatterns = []string{"search:books:*", "tmp:*"}

// jobTimeout bounds a single maintenance job run.
const jobTimeout = 5 * time.Minute

// Scheduler runs the recurring maintenance jobs: materialized view
// refresh, book rating rollup and cache purge. A failed run is logged
// and skipped; the next tick tries again. A panicking job never takes
// the scheduler down.
type Scheduler struct {
	cron        *cron.Cron
	maintenance storage.MaintenanceStore
	purger      storage.KeyPurger
	metrics     *observability.Metrics
	logger      *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(maintenance storage.MaintenanceStore, purger storage.KeyPurger, metrics *observability.Metrics, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scheduler{
		cron:        cron.New(),
		maintenance: maintenance,
		purger:      purger,
		metrics:     metrics,
		logger:      logger,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start(cfg config.TasksConfig) error {
	refreshSpec := fmt.Sprintf("@every %s", cfg.ViewRefreshInterval)
	purgeSpec := fmt.Sprintf("@every %s", cfg.CachePurgeInterval)

	if _, err := s.cron.AddFunc(refreshSpec, s.runJob("view_refresh", s.refreshViews)); err != nil {
		return fmt.Errorf("schedule view refresh: %w", err)
	}
	if _, err := s.cron.AddFunc(refreshSpec, s.runJob("rating_rollup", s.rollupRatings)); err != nil {
		return fmt.Errorf("schedule rating rollup: %w", err)
	}
	if _, err := s.cron.AddFunc(purgeSpec, s.runJob("cache_purge", s.purgeCache)); err != nil {
		return fmt.Errorf("schedule cache purge: %w", err)
	}

	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"view_refresh_interval": cfg.ViewRefreshInterval.String(),
		"cache_purge_interval":  cfg.CachePurgeInterval.String(),
	}).Info("Maintenance scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Maintenance scheduler stopped")
}

// runJob wraps a job with panic recovery, a timeout and run metrics.
func (s *Scheduler) runJob(name string, fn func(context.Context) error) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.WithFields(logrus.Fields{
					"task":  name,
					"panic": r,
				}).Errorf("Task panicked\n%s", debug.Stack())
				s.recordRun(name, "panic", 0)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		err := fn(ctx)
		duration := time.Since(start)

		if err != nil {
			s.recordRun(name, "failure", duration)
			s.logger.WithField("task", name).WithError(err).Error("Task failed")
			return
		}

		s.recordRun(name, "success", duration)
		s.logger.WithFields(logrus.Fields{
			"task":     name,
			"duration": duration.String(),
		}).Info("Task completed")
	}
}

func (s *Scheduler) recordRun(name, status string, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.TaskRunsTotal.WithLabelValues(name, status).Inc()
	if status != "panic" {
		s.metrics.TaskDuration.WithLabelValues(name).Observe(duration.Seconds())
	}
}

func (s *Scheduler) refreshViews(ctx context.Context) error {
	return s.maintenance.RefreshMaterializedViews(ctx)
}

func (s *Scheduler) rollupRatings(ctx context.Context) error {
	updated, err := s.maintenance.RecomputeBookRatings(ctx)
	if err != nil {
		return err
	}
	s.logger.WithField("books_updated", updated).Debug("Book ratings recomputed")
	return nil
}

func (s *Scheduler) purgeCache(ctx context.Context) error {
	for _, pattern := range purgePatterns {
		purged, err := s.purger.PurgePattern(ctx, pattern)
		if err != nil {
			return fmt.Errorf("purge %s: %w", pattern, err)
		}
		if s.metrics != nil {
			s.metrics.CachePurgedKeys.WithLabelValues(pattern).Add(float64(purged))
		}
	}
	return nil
}
