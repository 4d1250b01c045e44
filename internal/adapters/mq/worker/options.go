// Package worker defines worker contracts for asynchronous notification delivery.
package worker

import (
	"github.com/okian/funnel/pkg/backoff"
	"github.com/okian/funnel/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithRetryPolicy sets the backoff policy used for delivery retries.
func WithRetryPolicy(p *backoff.Policy) Option {
	return func(w *InMemoryWorker) {
		if p != nil {
			w.retry = p
		}
	}
}
