// Package scores defines the port to the external ATS and assessment-vendor
// scoring systems.
package scores

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"
)

// Default provider configuration constants.
const (
	defaultMinLatency = 20 * time.Millisecond
	defaultMaxLatency = 80 * time.Millisecond
	defaultRandomSeed = 42
	defaultExamTotal  = 12
)

// ExamResult is the raw assessment outcome reported by the vendor.
type ExamResult struct {
	Score          int
	TotalQuestions int
	TimeTaken      time.Duration
}

// Provider exposes the scores the pipeline gates consume. Implementations
// wrap the HR platform / assessment vendor APIs.
type Provider interface {
	// ATSScore returns the resume score for a candidate, honoring ctx.
	ATSScore(ctx context.Context, candidateID string) (float64, error)

	// ExamResult returns the online assessment outcome for a candidate.
	ExamResult(ctx context.Context, candidateID string) (ExamResult, error)
}

// Option applies a configuration option to the SimulatedProvider.
type Option func(*SimulatedProvider)

// WithLatencyRange sets the simulated upstream latency range.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(p *SimulatedProvider) {
		if minLatency > 0 && maxLatency > minLatency {
			p.minLatency = minLatency
			p.maxLatency = maxLatency
		}
	}
}

// WithExamTotal sets the number of questions in the simulated assessment.
func WithExamTotal(total int) Option {
	return func(p *SimulatedProvider) {
		if total > 0 {
			p.examTotal = total
		}
	}
}

// SimulatedProvider implements Provider without the real upstreams. Scores
// are derived deterministically from the candidate id, so a given candidate
// always scores the same while different candidates spread across the range.
type SimulatedProvider struct {
	minLatency time.Duration
	maxLatency time.Duration
	examTotal  int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedProvider creates a provider with configuration options.
func NewSimulatedProvider(opts ...Option) *SimulatedProvider {
	p := &SimulatedProvider{
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
		examTotal:  defaultExamTotal,
		rng:        rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic seed for reproducible testing
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ATSScore returns a deterministic score in [40, 100).
func (p *SimulatedProvider) ATSScore(ctx context.Context, candidateID string) (float64, error) {
	if err := p.simulateLatency(ctx); err != nil {
		return 0, err
	}
	return 40 + float64(hashOf(candidateID+"/ats")%6000)/100, nil
}

// ExamResult returns a deterministic assessment outcome.
func (p *SimulatedProvider) ExamResult(ctx context.Context, candidateID string) (ExamResult, error) {
	if err := p.simulateLatency(ctx); err != nil {
		return ExamResult{}, err
	}
	h := hashOf(candidateID + "/exam")
	return ExamResult{
		Score:          int(h % uint64(p.examTotal+1)),
		TotalQuestions: p.examTotal,
		TimeTaken:      time.Duration(10+h%50) * time.Minute,
	}, nil
}

func (p *SimulatedProvider) simulateLatency(ctx context.Context) error {
	p.mu.Lock()
	latency := p.minLatency + time.Duration(p.rng.Int63n(int64(p.maxLatency-p.minLatency)))
	p.mu.Unlock()
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	case <-time.After(latency):
		return nil
	}
}

func hashOf(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
