package domain

// ZoneType labels a pressure zone as sitting on the bid or ask side. The label
// is derived independently of the aggregator's own bid/ask classification and
// is allowed to disagree with it for individual entries.
type ZoneType string

const (
	ZoneBid ZoneType = "bid"
	ZoneAsk ZoneType = "ask"
)

// PressureZone is a contiguous run of integer price buckets whose aggregated
// volume exceeds a detection threshold. Zones are derived data: every
// aggregation pass recomputes them from scratch, they are never mutated
// incrementally.
//
// Invariants: MinPrice <= MaxPrice; TotalVolume is the sum of the quantities
// of Entries; PressureScore = TotalVolume * (MaxPrice - MinPrice + 1).
type PressureZone struct {
	MinPrice      float64  `json:"minPrice"`
	MaxPrice      float64  `json:"maxPrice"`
	TotalVolume   float64  `json:"totalVolume"`
	PressureScore float64  `json:"pressureScore"`
	Type          ZoneType `json:"type"`
	Entries       []Entry  `json:"entries"`
}

// AggregateView is the single externally visible snapshot produced by an
// aggregation pass. A new view replaces the previous one atomically; consumers
// never observe a partially updated view.
//
// Bids are sorted by price descending, asks ascending, zones by score
// descending. An empty pass yields a view with zeroed extrema and MaxQuantity
// of zero; consumers must guard against dividing by MaxQuantity.
type AggregateView struct {
	Bids          []Entry        `json:"bids"`
	Asks          []Entry        `json:"asks"`
	PressureZones []PressureZone `json:"pressureZones"`
	MinPrice      float64        `json:"minPrice"`
	MaxPrice      float64        `json:"maxPrice"`
	MaxQuantity   float64        `json:"maxQuantity"`
	LastUpdated   int64          `json:"lastUpdated"` // unix milliseconds
}

// Empty reports whether the view contains no classified entries.
func (v AggregateView) Empty() bool {
	return len(v.Bids) == 0 && len(v.Asks) == 0
}
