// Package backoff implements the single retry policy used wherever an
// upstream collaborator can be transiently unavailable.
package backoff

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Default policy constants.
const (
	defaultMaxAttempts = 5
	defaultBaseDelay   = 100 * time.Millisecond
	defaultMaxDelay    = 5 * time.Second
)

// Policy describes bounded exponential backoff with jitter.
type Policy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	onRetry     func(attempt int, err error)
}

// Option applies a configuration option to the Policy.
type Option func(*Policy)

// WithMaxAttempts bounds the total number of attempts (not retries).
func WithMaxAttempts(n int) Option {
	return func(p *Policy) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the delay before the first retry; it doubles per attempt.
func WithBaseDelay(d time.Duration) Option {
	return func(p *Policy) {
		if d > 0 {
			p.baseDelay = d
		}
	}
}

// WithMaxDelay caps the per-retry delay.
func WithMaxDelay(d time.Duration) Option {
	return func(p *Policy) {
		if d > 0 {
			p.maxDelay = d
		}
	}
}

// WithOnRetry installs a hook invoked before each retry, e.g. for metrics.
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(p *Policy) {
		if fn != nil {
			p.onRetry = fn
		}
	}
}

// New builds a Policy with defaults.
func New(opts ...Option) *Policy {
	p := &Policy{
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		maxDelay:    defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Do runs fn until it succeeds, attempts are exhausted, or ctx is done.
// The delay before attempt k is min(base*2^(k-1), max) with +-50% jitter.
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	delay := p.baseDelay
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("backoff aborted: %w", err)
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == p.maxAttempts {
			break
		}
		if p.onRetry != nil {
			p.onRetry(attempt, lastErr)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("backoff aborted: %w", ctx.Err())
		case <-time.After(jitter(delay)):
		}
		delay *= 2
		if delay > p.maxDelay {
			delay = p.maxDelay
		}
	}
	return fmt.Errorf("after %d attempts: %w", p.maxAttempts, lastErr)
}

// jitter spreads d uniformly across [d/2, 3d/2) to avoid retry stampedes.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := int64(d) / 2
	return time.Duration(half + rand.Int63n(int64(d))) //nolint:gosec // jitter, not crypto
}
