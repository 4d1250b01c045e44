// Package worker defines worker contracts for asynchronous notification delivery.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/funnel/internal/domain/model"
	"github.com/okian/funnel/pkg/backoff"
	"github.com/okian/funnel/pkg/logger"
	"github.com/okian/funnel/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Notification abstracts what workers read off the queue.
// Using the model.Notification type for consistency.
type Notification = model.Notification

// Sender delivers a notification to its recipient.
type Sender interface {
	Send(ctx context.Context, n model.Notification) error
}

// Tracker records the outcome of a delivery attempt on the candidate record.
type Tracker interface {
	TrackDelivery(ctx context.Context, candidateID string, attempts int, deliveryErr error) error
}

// Queue defines how workers receive notifications.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Notification
}

// Worker delivers notifications using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	// It will deliver any in-flight notification before stopping.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for delivering notifications.
type InMemoryWorker struct {
	queue   Queue
	sender  Sender
	tracker Tracker
	retry   *backoff.Policy
	name    string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, sender Sender, tracker Tracker, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		sender:   sender,
		tracker:  tracker,
		name:     "worker", // default name
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	if w.retry == nil {
		w.retry = backoff.New(
			backoff.WithOnRetry(func(attempt int, err error) {
				metrics.RecordNotificationRetry()
			}),
		)
	}

	// Set up logger with worker name if not already set
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	notifChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case n, ok := <-notifChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if err := w.deliver(ctx, n); err != nil {
				w.logger.Error(ctx, "notification delivery exhausted retries",
					logger.String("notificationID", n.ID),
					logger.String("candidateID", n.CandidateID),
					logger.String("kind", string(n.Kind)),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	// Signal shutdown
	close(w.shutdown)

	// Wait for worker to finish or context to timeout
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// deliver attempts the notification with retries and records the outcome.
func (w *InMemoryWorker) deliver(ctx context.Context, n Notification) error {
	start := time.Now()
	attempts := 0

	err := w.retry.Do(ctx, func(ctx context.Context) error {
		attempts++
		return w.sender.Send(ctx, n)
	})

	latency := time.Since(start).Milliseconds()
	metrics.RecordNotificationDeliveryLatency(float64(latency))

	if err != nil {
		metrics.RecordNotificationFailed(string(n.Kind))
	} else {
		metrics.RecordNotificationSent(string(n.Kind))
	}

	if w.tracker != nil {
		if trackErr := w.tracker.TrackDelivery(ctx, n.CandidateID, attempts, err); trackErr != nil {
			w.logger.Warn(ctx, "failed to record delivery outcome",
				logger.String("candidateID", n.CandidateID),
				logger.Error(trackErr),
			)
		}
	}

	if err != nil {
		return fmt.Errorf("delivery failed for notification %s: %w", n.ID, err)
	}
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	sender  Sender
	tracker Tracker

	// Shutdown control
	shutdown chan struct{}

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, sender Sender, tracker Tracker, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		sender:   sender,
		tracker:  tracker,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(queue, sender, tracker, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, worker := range p.workers {
		select {
		case <-worker.done:
			// Worker finished
		case <-time.After(workerShutdownTimeout):
			// Worker timeout
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// First close the queue to stop new notifications
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	// Workers drain the closed queue and exit on their own.
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker pool shutdown timed out: %w", shutdownCtx.Err())
		}
	}

	return nil
}
