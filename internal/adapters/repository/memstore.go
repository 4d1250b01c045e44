package repository

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/okian/funnel/internal/domain/model"
	"github.com/okian/funnel/pkg/metrics"
)

// Sharded, in-memory Store implementation.
//
// Records are partitioned by candidate id across shards, each guarded by its
// own RWMutex. Commits use optimistic concurrency: the mutation runs on a
// private copy outside any lock, then the commit re-checks the record
// version under the shard lock. A lost race is retried with a fresh
// snapshot; once a terminal token state has committed the version stops
// moving, so racing consumers converge after at most one retry.

// Default store configuration constants.
const (
	defaultShardCount = 8
	defaultMaxRetries = 8
)

type shard struct {
	mu      sync.RWMutex
	records map[string]*model.CandidateRecord
}

// MemStore implements Store with sharded in-memory maps.
type MemStore struct {
	shards     []*shard
	shardCount int
	maxRetries int

	tokenMu    sync.RWMutex
	tokenIndex map[string]string // token value -> candidate id, never pruned

	emailMu    sync.Mutex
	emailIndex map[string]string // email -> candidate id
}

// NewMemStore creates a new in-memory store with configuration options.
func NewMemStore(ctx context.Context, opts ...Option) *MemStore {
	s := &MemStore{
		shardCount: defaultShardCount,
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{
			records: make(map[string]*model.CandidateRecord),
		}
	}
	s.tokenIndex = make(map[string]string)
	s.emailIndex = make(map[string]string)

	metrics.UpdateStoreShardCount(s.shardCount)
	metrics.UpdateStoreRecordsTotal(0)
	return s
}

func (s *MemStore) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[int(h.Sum32())%s.shardCount]
}

// Create inserts a new record, enforcing id and email uniqueness.
func (s *MemStore) Create(ctx context.Context, rec *model.CandidateRecord) error {
	sh := s.shardFor(rec.ID)
	sh.mu.Lock()

	if _, ok := sh.records[rec.ID]; ok {
		sh.mu.Unlock()
		return ErrExists
	}
	// Email uniqueness spans shards; a single index serializes the claim.
	s.emailMu.Lock()
	if _, taken := s.emailIndex[rec.Email]; taken {
		s.emailMu.Unlock()
		sh.mu.Unlock()
		return ErrExists
	}
	s.emailIndex[rec.Email] = rec.ID
	s.emailMu.Unlock()

	cp := rec.Clone()
	cp.Version = 1
	sh.records[cp.ID] = cp
	sh.mu.Unlock()

	metrics.UpdateStoreRecordsTotal(s.count())
	return nil
}

// Get returns a snapshot copy of the record.
func (s *MemStore) Get(ctx context.Context, id string) (*model.CandidateRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	rec, ok := sh.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

// AtomicUpdate applies fn with optimistic concurrency.
func (s *MemStore) AtomicUpdate(ctx context.Context, id string, fn MutationFn) (*model.CandidateRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	sh := s.shardFor(id)
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sh.mu.RLock()
		cur, ok := sh.records[id]
		if !ok {
			sh.mu.RUnlock()
			return nil, ErrNotFound
		}
		snapshot := cur.Clone()
		sh.mu.RUnlock()

		// The mutation runs on the private copy, outside any lock, so fn can
		// never extend the critical section.
		if err := fn(snapshot); err != nil {
			if errors.Is(err, ErrUnchanged) {
				return s.Get(ctx, id)
			}
			return nil, err
		}

		sh.mu.Lock()
		cur, ok = sh.records[id]
		if !ok {
			sh.mu.Unlock()
			return nil, ErrNotFound
		}
		if cur.Version != snapshot.Version {
			sh.mu.Unlock()
			metrics.RecordStoreConflict()
			continue // lost the race; retry on a fresh snapshot
		}
		snapshot.Version++
		sh.records[id] = snapshot
		s.indexTokens(snapshot)
		sh.mu.Unlock()
		return snapshot.Clone(), nil
	}
	return nil, ErrConflict
}

// indexTokens records every token value on rec in the lookup index.
// Values are never removed: superseded and consumed tokens must keep
// resolving so validate can answer Invalidated/AlreadyConsumed instead of
// NotFound.
func (s *MemStore) indexTokens(rec *model.CandidateRecord) {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()
	if rec.Token.Value != "" {
		s.tokenIndex[rec.Token.Value] = rec.ID
	}
	for _, t := range rec.TokenHistory {
		if t.Value != "" {
			s.tokenIndex[t.Value] = rec.ID
		}
	}
}

// FindByToken resolves a token value to its owning candidate id.
func (s *MemStore) FindByToken(ctx context.Context, value string) (string, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.tokenMu.RLock()
	defer s.tokenMu.RUnlock()
	id, ok := s.tokenIndex[value]
	if !ok {
		return "", ErrNotFound
	}
	return id, nil
}

// Count returns the number of candidate records.
func (s *MemStore) Count(ctx context.Context) int {
	return s.count()
}

func (s *MemStore) count() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.records)
		sh.mu.RUnlock()
	}
	return total
}

// CountByStage returns record counts grouped by stage.
func (s *MemStore) CountByStage(ctx context.Context) map[model.Stage]int {
	out := make(map[model.Stage]int)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, rec := range sh.records {
			out[rec.Stage]++
		}
		sh.mu.RUnlock()
	}
	return out
}

// ForEach visits snapshot copies of all records.
func (s *MemStore) ForEach(ctx context.Context, visit func(rec *model.CandidateRecord) bool) {
	for _, sh := range s.shards {
		sh.mu.RLock()
		snapshots := make([]*model.CandidateRecord, 0, len(sh.records))
		for _, rec := range sh.records {
			snapshots = append(snapshots, rec.Clone())
		}
		sh.mu.RUnlock()

		for _, rec := range snapshots {
			if !visit(rec) {
				return
			}
		}
	}
}
