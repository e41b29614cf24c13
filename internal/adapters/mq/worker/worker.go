// Package worker delivers queued reports: each job is composed into an
// email and handed to the mail sink, retrying transient sink failures.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/perfil/internal/adapters/mail"
	"github.com/okian/perfil/internal/adapters/mq/queue"
	"github.com/okian/perfil/pkg/logger"
	"github.com/okian/perfil/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	defaultMaxAttempts      = 3
	defaultBackoff          = 100 * time.Millisecond
	metricsUpdateInterval   = 5 * time.Second
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Delivery outcomes recorded per job.
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusRejected = "rejected"
)

// Composer renders the email for a job.
type Composer interface {
	Compose(ctx context.Context, job queue.Job) (mail.Message, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes delivery jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	composer Composer
	sink     mail.Sink
	name     string

	maxAttempts int
	backoff     time.Duration

	// Set by the pool.
	active    *atomic.Int64
	processed *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, composer Composer, sink mail.Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       q,
		composer:    composer,
		sink:        sink,
		name:        "worker",
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(logger.String("worker", w.name))
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "report delivery failed",
					logger.String("job", job.ID),
					logger.String("student", job.StudentID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker after its current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	if w.active != nil {
		w.active.Add(1)
		defer w.active.Add(-1)
	}
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
		if w.processed != nil {
			w.processed.Add(1)
		}
	}()

	msg, err := w.composer.Compose(ctx, job)
	if err != nil {
		metrics.RecordReportDelivery(StatusRejected)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "compose_error")
		return fmt.Errorf("compose job %s: %w", job.ID, err)
	}
	if msg.To == "" {
		msg.To = job.To
	}

	for attempt := 1; ; attempt++ {
		err = w.sink.Send(ctx, msg)
		if err == nil {
			metrics.RecordReportDelivery(StatusSent)
			w.logger.Debug(ctx, "report delivered",
				logger.String("job", job.ID),
				logger.Int("attempt", attempt),
			)
			return nil
		}
		if attempt >= w.maxAttempts || ctx.Err() != nil {
			break
		}
		metrics.RecordWorkerRetry()
		select {
		case <-time.After(w.backoff * time.Duration(attempt)):
		case <-ctx.Done():
		case <-w.shutdown:
		}
	}

	metrics.RecordReportDelivery(StatusFailed)
	metrics.RecordWorkerError()
	metrics.RecordErrorByComponent("worker", "send_error")
	metrics.RecordErrorByType("send_error", "medium")
	return fmt.Errorf("send job %s: %w", job.ID, err)
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	active    atomic.Int64
	processed atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	lastProcessedTime time.Time

	logger logger.Logger
}

// NewPool creates a new worker pool. Options are applied to every worker.
func NewPool(workerCount int, q Queue, composer Composer, sink mail.Sink, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:           make([]*InMemoryWorker, workerCount),
		queue:             q,
		shutdown:          make(chan struct{}),
		done:              make(chan struct{}),
		lastProcessedTime: time.Now(),
		logger:            logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(q, composer, sink, wopts...)
		w.active = &pool.active
		w.processed = &pool.processed
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(workerCount)
	metrics.UpdateWorkerMessagesPerSecond(0.0)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of jobs handled so far, delivered or not.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	var last int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			last = p.updateMetrics(last)
		}
	}
}

func (p *Pool) updateMetrics(last int64) int64 {
	now := time.Now()
	processed := p.processed.Load()
	if elapsed := now.Sub(p.lastProcessedTime).Seconds(); elapsed > 0 {
		metrics.UpdateWorkerMessagesPerSecond(float64(processed-last) / elapsed)
	}
	p.lastProcessedTime = now

	active := int(p.active.Load())
	metrics.UpdateWorkerActiveCount(active)
	metrics.UpdateWorkerIdleCount(len(p.workers) - active)
	return processed
}

// Stop signals every worker to stop after its current job and waits briefly.
// Jobs still queued are left in the queue.
func (p *Pool) Stop() {
	close(p.shutdown)
	for _, w := range p.workers {
		close(w.shutdown)
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	close(p.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("%w: worker %d", ErrShutdownTimeout, i)
		}
	}
	return nil
}
