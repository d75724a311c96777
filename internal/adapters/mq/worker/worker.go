// Package worker drains the promotion queue and hands each event to the
// pods notifier.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/campuslink/beacon/internal/adapters/mq/queue"
	"github.com/campuslink/beacon/pkg/logger"
	"github.com/campuslink/beacon/pkg/metrics"
)

const (
	defaultDispatchTimeout = 5 * time.Second
	poolShutdownTimeout    = 30 * time.Second
)

// Event is what workers read off the queue.
type Event = queue.Event

// Notifier delivers a promotion event to the pods service.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Queue defines how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
	Len(ctx context.Context) int
}

// Worker processes queued events until the queue closes or ctx ends.
type Worker interface {
	Run(ctx context.Context)
	Done() <-chan struct{}
}

// InMemoryWorker delivers events one at a time.
type InMemoryWorker struct {
	queue           Queue
	notifier        Notifier
	name            string
	dispatchTimeout time.Duration

	done chan struct{}

	processed atomic.Int64
	failed    atomic.Int64

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, notifier Notifier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:           q,
		notifier:        notifier,
		name:            "worker",
		dispatchTimeout: defaultDispatchTimeout,
		done:            make(chan struct{}),
		logger:          logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(logger.String("worker", w.name))
	return w
}

// Run starts the worker loop. It returns when the queue channel is closed
// and drained, or when ctx is cancelled.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := w.dispatch(ctx, event); err != nil {
				w.logger.Error(ctx, "promotion dispatch failed",
					logger.String("post_id", event.PostID),
					logger.String("applicant_id", event.ApplicantID),
					logger.Error(err))
			}
			metrics.UpdateQueueSize(w.queue.Len(ctx))
		}
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// Processed returns how many events were delivered successfully.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

// Failed returns how many deliveries failed.
func (w *InMemoryWorker) Failed() int64 { return w.failed.Load() }

func (w *InMemoryWorker) dispatch(ctx context.Context, event Event) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	dctx, cancel := context.WithTimeout(ctx, w.dispatchTimeout)
	defer cancel()

	err := w.notifier.Notify(dctx, event)
	metrics.RecordDispatchLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		w.failed.Add(1)
		metrics.RecordPromotionDispatched("error")
		return fmt.Errorf("notify pods for post %s: %w", event.PostID, err)
	}
	w.processed.Add(1)
	metrics.RecordPromotionDispatched("ok")
	return nil
}

// Pool manages multiple workers reading the same queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates workerCount workers. A count below one means NumCPU.
func NewPool(workerCount int, q Queue, notifier Notifier, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range workerCount {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, notifier, workerOpts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Stats sums delivery counters over all workers.
func (p *Pool) Stats() (processed, failed int64) {
	for _, w := range p.workers {
		processed += w.Processed()
		failed += w.Failed()
	}
	return processed, failed
}

// Shutdown closes the queue and waits for workers to drain it, bounded by
// ctx and poolShutdownTimeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
		}
	}
	return nil
}
