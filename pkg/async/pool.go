package async

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"
)

// Task is one unit of pool work.
type Task func(context.Context) error

// WorkerPool runs submitted tasks on a fixed set of goroutines. Each
// task gets its own timeout-bounded context, panics are contained to
// the task that raised them, and failures surface on Errors.
type WorkerPool struct {
	name    string
	timeout time.Duration

	tasks  chan Task
	done   chan struct{}
	errs   chan error
	ctx    context.Context
	cancel context.CancelFunc

	closeOnce    sync.Once
	shutdownOnce sync.Once
}

// NewWorkerPool starts workers goroutines processing tasks until
// Shutdown. timeout bounds each individual task.
func NewWorkerPool(ctx context.Context, workers int, name string, timeout time.Duration) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)

	p := &WorkerPool{
		name:    name,
		timeout: timeout,
		tasks:   make(chan Task, workers*2),
		done:    make(chan struct{}),
		errs:    make(chan error, workers*10),
		ctx:     ctx,
		cancel:  cancel,
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			p.run()
		}()
	}
	go func() {
		wg.Wait()
		close(p.done)
	}()

	return p
}

// Submit queues a task. Fails once the pool has begun shutting down.
func (p *WorkerPool) Submit(task Task) (err error) {
	select {
	case <-p.done:
		return fmt.Errorf("worker pool %q shut down", p.name)
	default:
	}

	// Shutdown may close the channel between the check above and the
	// send below; the recover turns that race into an error return.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker pool %q shut down", p.name)
		}
	}()

	select {
	case p.tasks <- task:
		return nil
	case <-p.done:
		return fmt.Errorf("worker pool %q shut down", p.name)
	}
}

// Shutdown stops intake and waits up to timeout for queued tasks to
// drain. Safe to call more than once.
func (p *WorkerPool) Shutdown(timeout time.Duration) error {
	var err error
	p.shutdownOnce.Do(func() {
		p.closeOnce.Do(func() { close(p.tasks) })

		select {
		case <-p.done:
		case <-time.After(timeout):
			err = fmt.Errorf("worker pool %q drain timed out after %v", p.name, timeout)
		}
		p.cancel()
	})
	return err
}

// Errors exposes task failures. The channel is buffered; when it fills
// further errors are logged and dropped rather than blocking workers.
func (p *WorkerPool) Errors() <-chan error {
	return p.errs
}

func (p *WorkerPool) run() {
	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.execute(task)
		}
	}
}

func (p *WorkerPool) execute(task Task) {
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[%s] panic in task: %v\n%s", p.name, r, debug.Stack())
			p.report(fmt.Errorf("panic: %v", r))
		}
	}()

	if err := task(ctx); err != nil {
		p.report(err)
	}
}

func (p *WorkerPool) report(err error) {
	select {
	case p.errs <- err:
	default:
		log.Printf("[%s] error channel full, dropping: %v", p.name, err)
	}
}
