// Package domain defines the core types shared across the depth aggregator:
// normalized order-book entries, the aggregated market-depth view, pressure
// zones, session status, and the error taxonomy.
package domain

// VenueID identifies a trading venue. It is an open string identifier, not a
// closed enum: new venues only require an adapter registered under a new ID.
type VenueID string

// Entry is one normalized price/quantity observation from a venue at a point
// in time. Entries are immutable once created. Quantity is always positive;
// zero-quantity levels (deletions) are dropped by the adapters and never reach
// the aggregation core.
type Entry struct {
	Price     float64 `json:"price"`
	Quantity  float64 `json:"quantity"`
	Venue     VenueID `json:"venue"`
	Timestamp int64   `json:"timestamp"` // unix milliseconds
}
