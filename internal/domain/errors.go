package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResult reports that every selected venue returned an empty
	// initial snapshot. It is terminal for the current session until an
	// explicit reconnect.
	ErrEmptyResult = errors.New("all venues returned empty snapshots")

	// ErrNotFound is returned by caches when no data exists for a key.
	ErrNotFound = errors.New("not found")

	// ErrVenueUnknown is returned by the registry for an unregistered venue.
	ErrVenueUnknown = errors.New("unknown venue")

	// ErrSessionClosed is returned for operations on a closed controller.
	ErrSessionClosed = errors.New("session closed")
)

// TransportError is a venue-scoped snapshot-fetch or stream-level failure.
// It surfaces as the controller's error state and is recoverable via an
// explicit reconnect; it never unwinds to callers as a panic or fatal exit.
type TransportError struct {
	Venue VenueID
	Op    string // "snapshot", "stream", "connect"
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("venue %s: %s: %v", e.Venue, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError wraps err as a TransportError for the given venue and
// operation.
func NewTransportError(venue VenueID, op string, err error) *TransportError {
	return &TransportError{Venue: venue, Op: op, Err: err}
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
