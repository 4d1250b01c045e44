package service

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrInvalidInput rejects malformed registration or event payloads.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition rejects an event that arrived before its
	// predecessor stage was reached.
	ErrInvalidTransition = errors.New("invalid stage transition")

	// ErrTerminalStage rejects operations on candidates already out of the
	// pipeline.
	ErrTerminalStage = errors.New("candidate is in a terminal stage")

	// ErrTokenNotFound means the value was never issued by this service.
	ErrTokenNotFound = errors.New("token not found")

	// ErrTokenExpired means the token's validity window has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenConsumed means the token was already used once.
	ErrTokenConsumed = errors.New("token already consumed")

	// ErrTokenInvalidated means a newer token superseded this one.
	ErrTokenInvalidated = errors.New("token invalidated")

	// ErrNotStarted is returned when operations run before Start.
	ErrNotStarted = errors.New("service not started")
)
