package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound = errors.New("candidate not found")
	ErrExists   = errors.New("candidate already exists")
	ErrConflict = errors.New("concurrent update conflict")

	// ErrUnchanged is returned by a MutationFn to abandon the update without
	// failing it: nothing commits, the version stays put, and AtomicUpdate
	// returns the current record with a nil error.
	ErrUnchanged = errors.New("no change")
)
