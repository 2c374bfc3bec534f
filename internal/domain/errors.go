package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrOutOfRange indicates an index outside the current snapshot.
	// It means the caller computed the index against a stale snapshot.
	ErrOutOfRange = errors.New("index out of range")

	// ErrNoPlayableVariant indicates a record has no variant with a URL
	ErrNoPlayableVariant = errors.New("video unavailable")

	// ErrServerOffline indicates the search server is unreachable
	ErrServerOffline = errors.New("search server is unreachable")

	// ErrAuthFailed indicates authentication failed
	ErrAuthFailed = errors.New("authentication token is invalid")
)

// TransportError wraps a failure reported by the search transport.
// It is recoverable: the session stays resumable.
type TransportError struct {
	Query string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("search %q failed: %v", e.Query, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// OutOfRange builds an ErrOutOfRange for the given index and bound
func OutOfRange(index, count int) error {
	return fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, index, count)
}
