// Package worker runs independent jobs on a bounded pool of goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/okian/marquee/internal/adapters/mq/queue"
	"github.com/okian/marquee/pkg/logger"
	"github.com/okian/marquee/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 5
	poolShutdownTimeout = 30 * time.Second
)

// Job is one unit of work. Its error, or a recovered panic, is reported
// only for that job.
type Job func(ctx context.Context) error

// task is what travels through the queue.
type task struct {
	ctx  context.Context //nolint:containedctx // each task runs under its submitter's context
	job  Job
	done chan error
}

// InMemoryWorker executes tasks read off the shared queue.
type InMemoryWorker struct {
	tasks <-chan task
	name  string

	done chan struct{}

	logger logger.Logger
}

func newWorker(tasks <-chan task, name string, log logger.Logger) *InMemoryWorker {
	return &InMemoryWorker{
		tasks:  tasks,
		name:   name,
		done:   make(chan struct{}),
		logger: log.Named(name),
	}
}

// Run processes tasks until the queue is closed and drained. Each task runs
// under its submitter's context, not ctx.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	for t := range w.tasks {
		t.done <- w.execute(t)
	}
	w.logger.Debug(ctx, "worker stopped")
}

// execute runs one task, converting a panic into an error for that task alone.
func (w *InMemoryWorker) execute(t task) (err error) {
	if err := t.ctx.Err(); err != nil {
		return err
	}

	metrics.AddWorkerInFlight(1)
	defer metrics.AddWorkerInFlight(-1)

	defer func() {
		if r := recover(); r != nil {
			metrics.RecordWorkerPanic()
			w.logger.Error(t.ctx, "job panicked",
				logger.Any("panic", r),
				logger.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()

	return t.job(t.ctx)
}

// Pool manages a fixed number of workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   *queue.InMemoryQueue[task]

	mu      sync.Mutex
	started bool

	logger logger.Logger
}

// NewPool creates a pool of size workers. Workers start with Start.
func NewPool(size int, opts ...Option) *Pool {
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	if size < 1 {
		size = defaultWorkerCount
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("worker-pool")
	}

	q := queue.NewInMemoryQueue[task](queue.WithCapacity(size * 2))
	p := &Pool{
		workers: make([]*InMemoryWorker, size),
		queue:   q,
		logger:  s.logger,
	}
	for i := range p.workers {
		p.workers[i] = newWorker(q.Dequeue(), "worker-"+strconv.Itoa(i), s.logger)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool. Calling it twice is a no-op.
// Canceling ctx does not stop the workers; only Shutdown does.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	ctx = context.WithoutCancel(ctx)
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Debug(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Run submits jobs and waits for all of them. errs[i] is the outcome of
// jobs[i]; one job failing or panicking never affects another.
func (p *Pool) Run(ctx context.Context, jobs []Job) []error {
	errs := make([]error, len(jobs))
	pending := make([]chan error, len(jobs))

	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		for i := range errs {
			errs[i] = ErrNotStarted
		}
		return errs
	}

	for i, job := range jobs {
		done := make(chan error, 1)
		if err := p.queue.Enqueue(ctx, task{ctx: ctx, job: job, done: done}); err != nil {
			errs[i] = p.rejected(err)
			continue
		}
		pending[i] = done
	}

	for i, done := range pending {
		if done == nil {
			continue
		}
		select {
		case errs[i] = <-done:
		case <-ctx.Done():
			errs[i] = ctx.Err()
		}
	}
	return errs
}

func (p *Pool) rejected(err error) error {
	if err == queue.ErrClosed { //nolint:errorlint // sentinel returned unwrapped
		return ErrStopped
	}
	return err
}

// Shutdown closes the queue, lets workers drain what is buffered, and waits
// for them to exit or ctx to expire.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}

	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
		}
	}
	return nil
}
