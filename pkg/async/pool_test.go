package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_RunsSubmittedTasks(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 4, "test", time.Second)
	defer func() { _ = pool.Shutdown(time.Second) }()

	var count atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		require.NoError(t, pool.Submit(func(context.Context) error {
			defer wg.Done()
			count.Add(1)
			return nil
		}))
	}
	wg.Wait()
	assert.Equal(t, int32(20), count.Load())
}

func TestWorkerPool_ReportsTaskErrors(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, "test", time.Second)
	defer func() { _ = pool.Shutdown(time.Second) }()

	taskErr := errors.New("smtp refused")
	require.NoError(t, pool.Submit(func(context.Context) error { return taskErr }))

	select {
	case err := <-pool.Errors():
		assert.Equal(t, taskErr, err)
	case <-time.After(time.Second):
		t.Fatal("no error reported")
	}
}

func TestWorkerPool_ContainsPanics(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, "test", time.Second)
	defer func() { _ = pool.Shutdown(time.Second) }()

	require.NoError(t, pool.Submit(func(context.Context) error {
		panic("boom")
	}))

	select {
	case err := <-pool.Errors():
		assert.Contains(t, err.Error(), "boom")
	case <-time.After(time.Second):
		t.Fatal("panic not reported")
	}

	// The worker that recovered keeps taking tasks
	done := make(chan struct{})
	require.NoError(t, pool.Submit(func(context.Context) error {
		close(done)
		return nil
	}))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive the panic")
	}
}

func TestWorkerPool_TaskTimeout(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, "test", 10*time.Millisecond)
	defer func() { _ = pool.Shutdown(time.Second) }()

	require.NoError(t, pool.Submit(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	select {
	case err := <-pool.Errors():
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("timeout not enforced")
	}
}

func TestWorkerPool_ShutdownDrainsQueue(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, "test", time.Second)

	var count atomic.Int32
	for i := 0; i < 5; i++ {
		require.NoError(t, pool.Submit(func(context.Context) error {
			count.Add(1)
			return nil
		}))
	}

	require.NoError(t, pool.Shutdown(time.Second))
	assert.Equal(t, int32(5), count.Load())
}

func TestWorkerPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, "test", time.Second)
	require.NoError(t, pool.Shutdown(time.Second))

	err := pool.Submit(func(context.Context) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shut down")
}

func TestWorkerPool_SubmitDuringShutdownReportsError(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, "test", time.Minute)

	started := make(chan struct{})
	block := make(chan struct{})
	require.NoError(t, pool.Submit(func(context.Context) error {
		close(started)
		<-block
		return nil
	}))
	<-started

	// Fill the queue so the next submit cannot land before the close.
	for i := 0; i < cap(pool.tasks); i++ {
		require.NoError(t, pool.Submit(func(context.Context) error { return nil }))
	}

	go func() { _ = pool.Shutdown(time.Minute) }()

	err := pool.Submit(func(context.Context) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shut down")

	close(block)
}

func TestWorkerPool_ShutdownTimesOutOnStuckTask(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, "test", time.Minute)

	block := make(chan struct{})
	defer close(block)
	require.NoError(t, pool.Submit(func(context.Context) error {
		<-block
		return nil
	}))

	err := pool.Shutdown(20 * time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestWorkerPool_ShutdownIsIdempotent(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 2, "test", time.Second)
	require.NoError(t, pool.Shutdown(time.Second))
	assert.NoError(t, pool.Shutdown(time.Second))
}
