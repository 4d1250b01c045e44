// Package repository defines the candidate record store interface and errors.
package repository

import (
	"context"

	"github.com/okian/funnel/internal/domain/model"
)

// MutationFn rewrites a candidate record inside an atomic update. It receives
// a private copy of the record and may mutate it freely; returning an error
// aborts the update and leaves the stored record untouched. Returning
// ErrUnchanged abandons the update without failing it. It must be pure
// CPU work: no I/O, the store may invoke it more than once on retry.
type MutationFn func(rec *model.CandidateRecord) error

// Store provides keyed access to candidate records. AtomicUpdate is the sole
// serialization point for per-candidate state: every stage transition and
// every token operation is expressed as one atomic update.
type Store interface {
	// Create inserts a new record. Returns ErrExists if the id or email is
	// already taken.
	Create(ctx context.Context, rec *model.CandidateRecord) error

	// Get returns a snapshot copy of the record, or ErrNotFound.
	Get(ctx context.Context, id string) (*model.CandidateRecord, error)

	// AtomicUpdate applies fn to the record identified by id. The mutation
	// observes a consistent snapshot and commits only if no concurrent update
	// won in between; lost races are retried a bounded number of times before
	// ErrConflict. Returns the committed record.
	AtomicUpdate(ctx context.Context, id string, fn MutationFn) (*model.CandidateRecord, error)

	// FindByToken resolves a token value to the owning candidate id.
	// Every value ever issued stays resolvable; unknown values return
	// ErrNotFound.
	FindByToken(ctx context.Context, value string) (string, error)

	// Count returns the number of candidate records.
	Count(ctx context.Context) int

	// CountByStage returns record counts grouped by pipeline stage.
	CountByStage(ctx context.Context) map[model.Stage]int

	// ForEach visits a snapshot copy of every record. Used for audit queries;
	// visits stop early if visit returns false.
	ForEach(ctx context.Context, visit func(rec *model.CandidateRecord) bool)
}
