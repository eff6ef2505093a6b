// internal/worker/runner.go
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/calston/taskleased/internal/lease"
	"github.com/calston/taskleased/internal/observability"
)

const (
	defaultTaskTimeout    = 30 * time.Second
	defaultReleaseTimeout = 2 * time.Second
)

// Handler executes one task. A non-nil error marks the run as failed;
// the lease is released either way once the handler returns.
type Handler func(ctx context.Context, task *Task) error

// Runner drains a queue with a fixed pool of workers. Before executing
// a task it acquires the lease for (task.Name, task.Args); a held lease
// means the same work is already in flight somewhere and the task is
// skipped. A worker that crashes mid-task leaves its lease to expire
// naturally.
type Runner struct {
	queue       *Queue
	handler     Handler
	leases      *lease.LeaseStore
	concurrency int
	taskTimeout time.Duration
	logger      *observability.SLogger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTaskTimeout bounds each handler invocation.
func WithTaskTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.taskTimeout = d
	}
}

// NewRunner creates a runner with the given worker pool size.
func NewRunner(queue *Queue, handler Handler, leases *lease.LeaseStore, concurrency int, logger *observability.SLogger, opts ...RunnerOption) (*Runner, error) {
	if queue == nil {
		return nil, errors.New("runner requires a queue")
	}
	if handler == nil {
		return nil, errors.New("runner requires a handler")
	}
	if leases == nil {
		return nil, errors.New("runner requires a lease store")
	}
	if concurrency <= 0 {
		return nil, errors.New("runner concurrency must be positive")
	}

	r := &Runner{
		queue:       queue,
		handler:     handler,
		leases:      leases,
		concurrency: concurrency,
		taskTimeout: defaultTaskTimeout,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run blocks until the context is cancelled or the queue is closed and
// drained.
func (r *Runner) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	for i := 0; i < r.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			r.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	return ctx.Err()
}

func (r *Runner) worker(ctx context.Context, workerID int) {
	for {
		task, err := r.queue.Dequeue(ctx)
		if err != nil {
			if !errors.Is(err, ErrQueueClosed) && !errors.Is(err, context.Canceled) {
				r.logger.Errorf("worker %d dequeue error: %v", workerID, err)
			}
			return
		}

		r.process(ctx, task, workerID)
	}
}

func (r *Runner) process(ctx context.Context, task *Task, workerID int) {
	acquired, err := r.leases.Acquire(ctx, task.Name, task.Args)
	if err != nil {
		r.logger.Errorf("worker %d could not acquire lease for task %q: %v", workerID, task.Name, err)
		return
	}
	if !acquired {
		r.logger.Infof("worker %d skipping task %q (%s): already in flight", workerID, task.Name, task.ID)
		return
	}

	handlerCtx, cancel := context.WithTimeout(ctx, r.taskTimeout)
	if err := r.handler(handlerCtx, task); err != nil {
		r.logger.Errorf("worker %d task %q (%s) failed: %v", workerID, task.Name, task.ID, err)
	}
	cancel()

	// The run is over either way; release with a fresh context so a
	// cancelled run still frees its lease.
	relCtx, relCancel := context.WithTimeout(context.Background(), defaultReleaseTimeout)
	if err := r.leases.Release(relCtx, task.Name, task.Args); err != nil {
		r.logger.Errorf("worker %d could not release lease for task %q: %v", workerID, task.Name, err)
	}
	relCancel()
}
