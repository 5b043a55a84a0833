package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ShutdownFunc releases one resource during shutdown.
type ShutdownFunc func(context.Context) error

// ShutdownManager drains the process on SIGINT/SIGTERM: it stops the
// HTTP listener first, then runs the registered shutdown functions in
// registration order, all under one timeout. Ordering matters because
// later functions usually depend on earlier ones having stopped
// producing work (listener before dispatcher before telemetry flush).
type ShutdownManager struct {
	logger  *Logger
	server  *http.Server
	timeout time.Duration

	mu    sync.Mutex
	funcs []ShutdownFunc

	trigger chan os.Signal
}

// NewShutdownManager creates a manager draining server and any
// registered functions within timeout.
func NewShutdownManager(logger *Logger, server *http.Server, timeout time.Duration) *ShutdownManager {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ShutdownManager{
		logger:  logger,
		server:  server,
		timeout: timeout,
		trigger: make(chan os.Signal, 1),
	}
}

// RegisterShutdownFunc appends fn to the drain sequence. Functions run
// in the order they were registered.
func (sm *ShutdownManager) RegisterShutdownFunc(fn ShutdownFunc) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.funcs = append(sm.funcs, fn)
}

// Trigger starts the drain without an OS signal.
func (sm *ShutdownManager) Trigger() {
	select {
	case sm.trigger <- syscall.SIGTERM:
	default:
	}
}

// WaitForShutdown blocks until SIGINT, SIGTERM or Trigger, then drains.
// Returns the joined errors of every step that failed; a timeout error
// when the drain did not finish in time.
func (sm *ShutdownManager) WaitForShutdown() error {
	signal.Notify(sm.trigger, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sm.trigger
	sm.logger.Infof("Received %s, draining", sig)

	ctx, cancel := context.WithTimeout(context.Background(), sm.timeout)
	defer cancel()

	var errs []error
	if sm.server != nil {
		if err := sm.server.Shutdown(ctx); err != nil {
			sm.logger.WithError(err).Error("HTTP server shutdown failed")
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}

	sm.mu.Lock()
	funcs := sm.funcs
	sm.mu.Unlock()

	for i, fn := range funcs {
		if ctx.Err() != nil {
			sm.logger.Warnf("Shutdown timeout reached with %d steps remaining", len(funcs)-i)
			errs = append(errs, fmt.Errorf("shutdown timed out after %s", sm.timeout))
			break
		}
		if err := fn(ctx); err != nil {
			sm.logger.WithError(err).Errorf("Shutdown step %d failed", i)
			errs = append(errs, fmt.Errorf("step %d: %w", i, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	sm.logger.Info("Shutdown complete")
	return nil
}
