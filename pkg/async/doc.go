// Package async provides a bounded worker pool for background tasks.
//
// Tasks run on a fixed set of goroutines with per-task timeouts and
// panic containment; failures surface on a buffered error channel so
// workers never block on reporting.
//
//	pool := async.NewWorkerPool(ctx, 4, "review notification", 30*time.Second)
//	defer pool.Shutdown(5 * time.Second)
//
//	pool.Submit(func(ctx context.Context) error {
//		return notifier.Notify(ctx, reviewID)
//	})
//
// The notification dispatcher in pkg/tasks runs its deliveries on this
// pool, keeping email transport off the HTTP request path.
package async
