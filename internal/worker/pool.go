package worker

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of work delivered off the request path
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pool runs jobs on a fixed number of workers fed by a bounded queue
type Pool struct {
	workers int
	timeout time.Duration
	jobs    chan Job
	wg      sync.WaitGroup
	logger  *zap.Logger

	mu      sync.RWMutex
	started bool
	stopped bool
}

// NewPool creates a new worker pool. timeout bounds a single job; zero
// means no limit.
func NewPool(workers, queue int, timeout time.Duration, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queue < 1 {
		queue = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		workers: workers,
		timeout: timeout,
		jobs:    make(chan Job, queue),
		logger:  logger.Named("worker"),
	}
}

// Start launches the worker goroutines
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("👷 worker pool started", zap.Int("workers", p.workers), zap.Int("queue", cap(p.jobs)))
}

// worker processes jobs from the jobs channel
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobs {
		p.run(id, job)
	}
}

func (p *Pool) run(id int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("❌ panic recovered",
				zap.Int("worker", id),
				zap.String("job", job.Name),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()

	ctx := context.Background()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if err := job.Run(ctx); err != nil {
		p.logger.Warn("⚠️ job failed", zap.Int("worker", id), zap.String("job", job.Name), zap.Error(err))
	}
}

// Submit queues a job without blocking. It returns false, and logs, when the
// queue is full or the pool is stopped.
func (p *Pool) Submit(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		p.logger.Warn("⚠️ job dropped, pool stopped", zap.String("job", job.Name))
		return false
	}

	select {
	case p.jobs <- job:
		return true
	default:
		p.logger.Warn("⚠️ job dropped, queue full", zap.String("job", job.Name), zap.Int("queue", cap(p.jobs)))
		return false
	}
}

// Stop closes the queue and waits for workers to drain it
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	started := p.started
	p.mu.Unlock()

	if started {
		p.wg.Wait()
	}
	p.logger.Info("🛑 worker pool stopped")
}

// Run starts the pool, blocks until ctx is done and then drains it
func (p *Pool) Run(ctx context.Context) error {
	p.Start()
	<-ctx.Done()
	p.Stop()
	return nil
}
