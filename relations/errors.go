package relations

import "errors"

// Validation errors are surfaced to the caller and never retried.
// ErrUnavailable (and context deadline errors) are retryable.
var (
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrAlreadyExists     = errors.New("relationship already exists")
	ErrBlocked           = errors.New("action blocked by an active block")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotOwner          = errors.New("actor does not own this edge")
	ErrNotFound          = errors.New("relationship not found")
	ErrUnavailable       = errors.New("store unavailable")
)
