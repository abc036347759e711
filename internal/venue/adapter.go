// Package venue defines the adapter contract every trading venue integration
// implements, plus a registry that maps venue IDs to adapter instances. The
// aggregation core only ever talks to this interface; venue-specific wire
// formats live in the sub-packages.
package venue

import (
	"context"

	"github.com/ryanchen0/depthview/internal/domain"
)

// StreamHandle is a live streaming connection to a venue. Closing it stops
// the read loop and releases the underlying connection. Handles never
// reconnect on their own; reconnection is the session controller's decision.
type StreamHandle interface {
	Close() error
}

// EntryHandler receives a batch of normalized entries decoded from one venue
// message.
type EntryHandler func(entries []domain.Entry)

// ErrorHandler receives transport-level stream failures. Decode failures are
// not reported here; a malformed message is dropped and the stream continues.
type ErrorHandler func(err error)

// Adapter normalizes one venue's snapshot and streaming payloads into
// domain.Entry batches.
//
// FetchSnapshot performs a one-shot depth fetch. It returns a TransportError
// on connection failure, a non-2xx response, or a malformed payload; callers
// treat that as an empty result plus a surfaced status, never as fatal.
//
// OpenStream opens a persistent subscription for the symbol and invokes
// onEntries for every decoded batch and onError on transport failures.
// Adapters keep no state across calls beyond the returned handle.
type Adapter interface {
	Venue() domain.VenueID
	FetchSnapshot(ctx context.Context, symbol string, limit int) ([]domain.Entry, error)
	OpenStream(ctx context.Context, symbol string, onEntries EntryHandler, onError ErrorHandler) (StreamHandle, error)
}
