// Package tasks provides the background work that runs beside the API:
// scheduled maintenance and event-triggered review notifications.
//
// # Overview
//
// Two kinds of work live here. Recurring maintenance jobs (materialized
// view refresh, book rating rollup, Redis cache purge) run on a cron
// scheduler; a failed run is logged and skipped until the next tick.
// Review notifications are fire-and-forget tasks enqueued by the API
// when a review is created, delivered on a worker pool with bounded
// retry.
//
// # Usage Example
//
// Scheduled maintenance:
//
//	scheduler := tasks.NewScheduler(maintenance, redisClient, metrics, logger)
//	if err := scheduler.Start(cfg.Tasks); err != nil {
//		return err
//	}
//	defer scheduler.Stop()
//
// Notification dispatch:
//
//	notifier := tasks.NewReviewNotifier(stores, sender, policy, log, metrics, logger)
//	dispatcher := tasks.NewDispatcher(ctx, notifier, cfg.Tasks.WorkerCount)
//	dispatcher.Enqueue(review.UserID, review.BookID)
//
// # Retry Policy
//
// Fixed delay between attempts, max 3 attempts per notification.
// A review chain that cannot be resolved (missing review, book, author
// or contact address) is abandoned immediately with zero attempts.
//
// Delivery states: pending -> sending -> {sent | retrying -> sending | abandoned}
//
// # Related Packages
//
//   - pkg/async: Worker pool and panic-safe goroutines
//   - pkg/storage: Maintenance store and key purger
package tasks
