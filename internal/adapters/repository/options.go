// Package repository defines the candidate record store interface and errors.
package repository

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithShardCount sets the number of shards records are partitioned across.
func WithShardCount(count int) Option {
	return func(s *MemStore) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithMaxRetries bounds how often a lost optimistic-concurrency race is
// retried before AtomicUpdate gives up with ErrConflict.
func WithMaxRetries(n int) Option {
	return func(s *MemStore) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}
