package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shelfwise/shelfwise/pkg/async"
	"github.com/shelfwise/shelfwise/pkg/observability"
	"github.com/shelfwise/shelfwise/pkg/storage"
)

// NotifierStores bundles the repositories the notifier resolves the
// review chain through: review -> book -> author -> owning user's email.
type NotifierStores struct {
	Reviews storage.ReviewRepository
	Books   storage.BookRepository
	Authors storage.AuthorRepository
	Users   storage.UserRepository
}

// ReviewNotifier emails a book's author when someone reviews their book.
// Transport failures are retried with a fixed delay up to the policy's
// attempt cap. A review chain that cannot be resolved (missing review,
// book, author or contact address) abandons the delivery immediately
// with zero transport attempts, since retrying will not make a missing
// row appear.
type ReviewNotifier struct {
	stores  NotifierStores
	sender  EmailSender
	policy  *RetryPolicy
	log     *DeliveryLog
	metrics *observability.Metrics
	logger  *logrus.Logger

	// sleep is swapped out in tests
	sleep func(time.Duration)
}

// NewReviewNotifier creates a new review notifier
func NewReviewNotifier(stores NotifierStores, sender EmailSender, policy *RetryPolicy, log *DeliveryLog, metrics *observability.Metrics, logger *logrus.Logger) *ReviewNotifier {
	if policy == nil {
		policy = NewRetryPolicy(DefaultRetryConfig())
	}
	if log == nil {
		log = NewDeliveryLog(0)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &ReviewNotifier{
		stores:  stores,
		sender:  sender,
		policy:  policy,
		log:     log,
		metrics: metrics,
		logger:  logger,
		sleep:   time.Sleep,
	}
}

// NotifyReviewCreated runs one notification task to completion and
// returns its delivery record in a terminal state. The returned error
// reports why a delivery ended abandoned; callers running on a worker
// pool typically just log it.
func (n *ReviewNotifier) NotifyReviewCreated(ctx context.Context, reviewerID, bookID uuid.UUID) (*Delivery, error) {
	delivery := &Delivery{
		ID:         uuid.New(),
		ReviewerID: reviewerID,
		BookID:     bookID,
		State:      StatePending,
		CreatedAt:  time.Now(),
	}
	n.log.Add(delivery)

	recipient, subject, body, err := n.resolve(ctx, reviewerID, bookID)
	if err != nil {
		n.abandon(delivery, err)
		return delivery, fmt.Errorf("resolve notification target: %w", err)
	}
	delivery.Recipient = recipient

	for {
		delivery.State = StateSending
		delivery.Attempts++
		n.log.Update(delivery)

		err = n.sender.Send(ctx, recipient, subject, body)
		if err == nil {
			n.recordAttempt("success")
			n.complete(delivery, StateSent)
			n.logger.WithFields(logrus.Fields{
				"delivery_id": delivery.ID,
				"recipient":   recipient,
				"attempts":    delivery.Attempts,
			}).Info("Review notification sent")
			return delivery, nil
		}

		n.recordAttempt("failure")

		if !n.policy.ShouldRetry(delivery.Attempts, err) {
			n.abandon(delivery, fmt.Errorf("max attempts exceeded: %w", err))
			return delivery, fmt.Errorf("deliver notification: %w", err)
		}

		delivery.State = StateRetrying
		delivery.LastError = err.Error()
		n.log.Update(delivery)
		n.logger.WithFields(logrus.Fields{
			"delivery_id": delivery.ID,
			"attempt":     delivery.Attempts,
		}).WithError(err).Warn("Review notification attempt failed, retrying")

		n.sleep(n.policy.NextDelay())
	}
}

// resolve walks review -> book -> author -> user and composes the
// message. Any failure along the chain is a data-integrity condition.
func (n *ReviewNotifier) resolve(ctx context.Context, reviewerID, bookID uuid.UUID) (recipient, subject, body string, err error) {
	review, err := n.stores.Reviews.Get(ctx, reviewerID, bookID)
	if err != nil {
		return "", "", "", fmt.Errorf("review: %w", err)
	}

	book, err := n.stores.Books.GetByID(ctx, bookID)
	if err != nil {
		return "", "", "", fmt.Errorf("book: %w", err)
	}

	author, err := n.stores.Authors.GetByID(ctx, book.AuthorID)
	if err != nil {
		return "", "", "", fmt.Errorf("author: %w", err)
	}

	owner, err := n.stores.Users.GetByID(ctx, author.UserID)
	if err != nil {
		return "", "", "", fmt.Errorf("author account: %w", err)
	}
	if owner.Email == "" {
		return "", "", "", fmt.Errorf("author account %s has no email address", owner.ID)
	}

	reviewer, err := n.stores.Users.GetByID(ctx, reviewerID)
	if err != nil {
		return "", "", "", fmt.Errorf("reviewer account: %w", err)
	}

	subject = fmt.Sprintf("New review of %q", book.Title)
	body = fmt.Sprintf("%s rated %q %d/5.\n\n%s\n", reviewer.Username, book.Title, review.Rating, review.Text)
	return owner.Email, subject, body, nil
}

func (n *ReviewNotifier) abandon(d *Delivery, err error) {
	d.LastError = err.Error()
	n.complete(d, StateAbandoned)
	n.logger.WithFields(logrus.Fields{
		"delivery_id": d.ID,
		"book_id":     d.BookID,
		"attempts":    d.Attempts,
	}).WithError(err).Warn("Review notification abandoned")
}

func (n *ReviewNotifier) complete(d *Delivery, state DeliveryState) {
	d.State = state
	now := time.Now()
	d.CompletedAt = &now
	n.log.Update(d)
	if n.metrics != nil {
		n.metrics.NotificationsByState.WithLabelValues(string(state)).Inc()
	}
}

func (n *ReviewNotifier) recordAttempt(status string) {
	if n.metrics != nil {
		n.metrics.NotificationAttempts.WithLabelValues(status).Inc()
	}
}

// Dispatcher runs notification tasks on a worker pool so request
// handlers never block on delivery.
type Dispatcher struct {
	pool     *async.WorkerPool
	notifier *ReviewNotifier
}

// deliveryTimeout bounds one complete delivery including every retry
// delay.
const deliveryTimeout = 5 * time.Minute

// NewDispatcher creates a dispatcher backed by a worker pool. The pool
// lives until Shutdown or ctx cancellation.
func NewDispatcher(ctx context.Context, notifier *ReviewNotifier, workers int) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	return &Dispatcher{
		pool:     async.NewWorkerPool(ctx, workers, "review notification", deliveryTimeout),
		notifier: notifier,
	}
}

// Enqueue submits a notification task for asynchronous delivery. It
// returns an error only when the pool cannot accept more work.
func (d *Dispatcher) Enqueue(reviewerID, bookID uuid.UUID) error {
	return d.pool.Submit(func(ctx context.Context) error {
		_, err := d.notifier.NotifyReviewCreated(ctx, reviewerID, bookID)
		return err
	})
}

// Shutdown drains the pool, waiting up to timeout for in-flight
// deliveries.
func (d *Dispatcher) Shutdown(timeout time.Duration) error {
	return d.pool.Shutdown(timeout)
}
