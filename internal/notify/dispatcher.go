package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wolfman30/kims-booking/pkg/logging"
)

// Job is one unit of fire-and-forget work.
type Job struct {
	Name      string
	Reference string
	Run       func(ctx context.Context) error
}

// Dispatcher runs jobs on a fixed pool of goroutines fed by a bounded queue.
// Enqueue never blocks; when the queue is full the job is dropped.
type Dispatcher struct {
	logger     *logging.Logger
	workers    int
	queueSize  int
	jobTimeout time.Duration

	mu      sync.RWMutex
	jobs    chan Job
	started bool
	closed  bool
	wg      sync.WaitGroup
}

func NewDispatcher(logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		logger:     logger,
		workers:    2,
		queueSize:  64,
		jobTimeout: 15 * time.Second,
	}
}

func (d *Dispatcher) WithWorkers(n int) *Dispatcher {
	if n > 0 {
		d.workers = n
	}
	return d
}

func (d *Dispatcher) WithQueueSize(n int) *Dispatcher {
	if n > 0 {
		d.queueSize = n
	}
	return d
}

func (d *Dispatcher) WithJobTimeout(timeout time.Duration) *Dispatcher {
	if timeout > 0 {
		d.jobTimeout = timeout
	}
	return d
}

// Start launches the workers. Calling it twice is a no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	d.jobs = make(chan Job, d.queueSize)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(d.jobs)
	}
}

// Enqueue hands the job to the pool and reports whether it was accepted.
func (d *Dispatcher) Enqueue(job Job) bool {
	if job.Run == nil {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.started || d.closed {
		d.logger.Warn("dispatcher not running, dropping job", "job", job.Name, "reference", job.Reference)
		return false
	}
	select {
	case d.jobs <- job:
		return true
	default:
		d.logger.Warn("dispatcher queue full, dropping job", "job", job.Name, "reference", job.Reference)
		return false
	}
}

// Close stops accepting jobs and waits for queued ones to finish or for ctx
// to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	if d.started {
		close(d.jobs)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notify: dispatcher drain: %w", ctx.Err())
	}
}

func (d *Dispatcher) work(jobs <-chan Job) {
	defer d.wg.Done()
	for job := range jobs {
		d.run(job)
	}
}

func (d *Dispatcher) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.jobTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatcher job panicked", "job", job.Name, "reference", job.Reference, "panic", r)
		}
	}()
	if err := job.Run(ctx); err != nil {
		d.logger.Warn("dispatcher job failed", "job", job.Name, "reference", job.Reference, "error", err)
		return
	}
	d.logger.Debug("dispatcher job done", "job", job.Name, "reference", job.Reference)
}
