// Package dedupe provides the idempotency guard for notification dispatch.
//
// Stage transitions are already idempotent at the orchestrator level; this
// guard is the second line of defense, ensuring a retried or racing
// transition cannot enqueue the same candidate/kind notification twice.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen notification keys to ensure at-most-once dispatch.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord removes a key, allowing it to be retried. Used when a
	// notification was marked seen but could not be enqueued (backpressure).
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// inMemoryDeduper implements Deduper with a map plus a FIFO ring for
// eviction. Keys arrive in issuance order, so evicting the oldest entry is
// the right policy when the guard fills up. maxSize <= 0 disables eviction.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	ring    []string
	head    int // next slot to overwrite once the ring is full
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.ring = make([]string, 0, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}

	switch {
	case d.maxSize <= 0:
		// Unbounded: map only.
	case len(d.ring) < d.maxSize:
		d.ring = append(d.ring, key)
	default:
		// Ring full: drop the oldest key and reuse its slot.
		old := d.ring[d.head]
		if old != "" {
			delete(d.seen, old)
			d.size.Add(-1)
		}
		d.ring[d.head] = key
		d.head = (d.head + 1) % d.maxSize
	}

	d.seen[key] = struct{}{}
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(ctx context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; !ok {
		return
	}
	delete(d.seen, key)
	d.size.Add(-1)

	// Blank the ring slot rather than compacting; the slot is reclaimed when
	// the ring wraps around to it.
	for i := range d.ring {
		if d.ring[i] == key {
			d.ring[i] = ""
			break
		}
	}
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
