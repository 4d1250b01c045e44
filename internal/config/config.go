// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
	"time"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ATSThreshold is the minimum ATS score to shortlist a candidate.
	ATSThreshold float64 `koanf:"ats_threshold"`

	// ExamThreshold is the minimum exam percentage to pass the exam gate.
	ExamThreshold float64 `koanf:"exam_threshold"`

	// TokenTTL bounds the validity window of interview tokens.
	TokenTTL time.Duration `koanf:"token_ttl"`

	// InterviewDelay is the offset from token issuance to the scheduled
	// interview time.
	InterviewDelay time.Duration `koanf:"interview_delay"`

	// InterviewBaseURL prefixes generated interview links.
	InterviewBaseURL string `koanf:"interview_base_url"`

	// NotifyQueueSize bounds the in-memory notification queue.
	NotifyQueueSize int `koanf:"notify_queue_size"`

	// NotifyWorkers sets the number of delivery workers.
	NotifyWorkers int `koanf:"notify_workers"`

	// NotifyMaxAttempts caps delivery retries per notification.
	NotifyMaxAttempts int `koanf:"notify_max_attempts"`

	// NotifyBackoffMS is the base delay between delivery retries.
	NotifyBackoffMS int `koanf:"notify_backoff_ms"`

	// DedupeSize sets the size of the notification deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ShardCount configures the number of shards in the candidate store.
	ShardCount int `koanf:"shard_count"`

	// ScoreLatencyMinMS and ScoreLatencyMaxMS simulate external scoring
	// provider latency bounds.
	ScoreLatencyMinMS int `koanf:"score_latency_min_ms"`
	ScoreLatencyMaxMS int `koanf:"score_latency_max_ms"`

	// ExamTotalQuestions sets the question count of the simulated exam.
	ExamTotalQuestions int `koanf:"exam_total_questions"`
}

// New creates a Config using provided options. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use (e.g.,
// loading from env/files) and is currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		ATSThreshold:       70.0,
		ExamThreshold:      70.0,
		TokenTTL:           48 * time.Hour,
		InterviewDelay:     72 * time.Hour,
		InterviewBaseURL:   "https://interviews.example.com/session",
		NotifyQueueSize:    10_000,
		NotifyWorkers:      runtime.NumCPU() * 4,
		NotifyMaxAttempts:  5,
		NotifyBackoffMS:    100,
		DedupeSize:         50_000,
		ShardCount:         8,
		ScoreLatencyMinMS:  80,
		ScoreLatencyMaxMS:  150,
		ExamTotalQuestions: 12,
	}
	return c
}
