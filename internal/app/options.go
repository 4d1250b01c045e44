package service

import (
	"time"

	workerpool "github.com/okian/funnel/internal/adapters/mq/worker"
	repository "github.com/okian/funnel/internal/adapters/repository"
	"github.com/okian/funnel/internal/adapters/scores"
	"github.com/okian/funnel/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithATSThreshold sets the shortlist gate threshold.
func WithATSThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold >= 0 && threshold <= 100 {
			s.atsThreshold = threshold
		}
	}
}

// WithExamThreshold sets the exam gate threshold.
func WithExamThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold >= 0 && threshold <= 100 {
			s.examThreshold = threshold
		}
	}
}

// WithTokenTTL sets the interview token validity window.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithInterviewDelay sets the offset from token issuance to the scheduled
// interview time.
func WithInterviewDelay(delay time.Duration) Option {
	return func(s *Service) {
		if delay > 0 {
			s.interviewDelay = delay
		}
	}
}

// WithInterviewBaseURL sets the prefix of generated interview links.
func WithInterviewBaseURL(baseURL string) Option {
	return func(s *Service) {
		if baseURL != "" {
			s.interviewBaseURL = baseURL
		}
	}
}

// WithWorkerCount sets the number of delivery workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the notification queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the idempotency cache capacity.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithShardCount sets the candidate store shard count.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithNotifyRetries sets the maximum delivery attempts and base backoff delay.
func WithNotifyRetries(maxAttempts int, baseDelay time.Duration) Option {
	return func(s *Service) {
		if maxAttempts > 0 {
			s.notifyAttempts = maxAttempts
		}
		if baseDelay > 0 {
			s.notifyBackoff = baseDelay
		}
	}
}

// WithScoreLatencyRange sets the simulated scoring provider latency bounds.
func WithScoreLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *Service) {
		if minLatency > 0 && maxLatency > minLatency {
			s.scoreMinLatency = minLatency
			s.scoreMaxLatency = maxLatency
		}
	}
}

// WithExamTotal sets the question count of the simulated assessment.
func WithExamTotal(total int) Option {
	return func(s *Service) {
		if total > 0 {
			s.examTotal = total
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock injects the time source. Expiry checks and stage timestamps all
// read through it.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithStore injects a prebuilt candidate store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithScoreProvider injects a prebuilt scoring provider.
func WithScoreProvider(provider scores.Provider) Option {
	return func(s *Service) {
		if provider != nil {
			s.provider = provider
		}
	}
}

// WithNotifier injects a prebuilt notification sender.
func WithNotifier(sender workerpool.Sender) Option {
	return func(s *Service) {
		if sender != nil {
			s.notifier = sender
		}
	}
}
