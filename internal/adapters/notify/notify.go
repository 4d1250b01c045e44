// Package notify defines the port to the outbound email system.
package notify

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/funnel/internal/domain/model"
	"github.com/okian/funnel/pkg/logger"
)

// ErrUnavailable signals a transient delivery failure worth retrying.
var ErrUnavailable = errors.New("notifier unavailable")

// Notifier sends candidate-facing email. Implementations must tolerate
// repeated sends of the same notification (the dispatcher retries).
type Notifier interface {
	Send(ctx context.Context, n model.Notification) error
}

// Default simulated notifier constants.
const (
	defaultMinLatency = 10 * time.Millisecond
	defaultMaxLatency = 40 * time.Millisecond
)

// Option applies a configuration option to the LogNotifier.
type Option func(*LogNotifier)

// WithLatencyRange sets the simulated SMTP latency range.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(n *LogNotifier) {
		if minLatency > 0 && maxLatency > minLatency {
			n.minLatency = minLatency
			n.maxLatency = maxLatency
		}
	}
}

// WithFailureRate makes a fraction of sends fail with ErrUnavailable,
// for exercising the retry path in drills. rate is clamped to [0, 1].
func WithFailureRate(rate float64) Option {
	return func(n *LogNotifier) {
		if rate < 0 {
			rate = 0
		}
		if rate > 1 {
			rate = 1
		}
		n.failureRate = rate
	}
}

// LogNotifier logs outbound notifications instead of delivering real email.
// It stands in for the SMTP relay in local runs and tests.
type LogNotifier struct {
	minLatency  time.Duration
	maxLatency  time.Duration
	failureRate float64

	mu  sync.Mutex
	rng *rand.Rand
	log logger.Logger
}

// NewLogNotifier creates a logging notifier with configuration options.
func NewLogNotifier(opts ...Option) *LogNotifier {
	n := &LogNotifier{
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // failure simulation, not crypto
		log:        logger.Get().Named("notifier"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Send simulates one delivery attempt.
func (n *LogNotifier) Send(ctx context.Context, notification model.Notification) error {
	n.mu.Lock()
	latency := n.minLatency + time.Duration(n.rng.Int63n(int64(n.maxLatency-n.minLatency)))
	fail := n.failureRate > 0 && n.rng.Float64() < n.failureRate
	n.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	case <-time.After(latency):
	}

	if fail {
		return fmt.Errorf("send %s to %s: %w", notification.Kind, notification.Email, ErrUnavailable)
	}

	n.log.Info(ctx, "notification delivered",
		logger.String("kind", string(notification.Kind)),
		logger.String("candidateID", notification.CandidateID),
		logger.String("email", notification.Email),
		logger.String("link", notification.Link),
	)
	return nil
}
