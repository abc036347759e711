// Package book is the aggregation core: it turns a buffer of normalized
// entries from any number of venues into a windowed, classified AggregateView
// and detects pressure zones across price buckets.
package book

import (
	"sort"

	"github.com/ryanchen0/depthview/internal/domain"
)

// zoneThresholdFactor scales the pass's max single-entry quantity into the
// zone seeding threshold.
const zoneThresholdFactor = 0.2

// Aggregate runs one full aggregation pass over entries as observed at now
// (unix ms). It is a pure function: identical inputs produce identical views,
// and it never mutates its input slice.
//
// The pass filters entries to the window (strict cutoff, no decay), classifies
// each entry as bid or ask against its own venue's mean price, sorts both
// sides, computes extrema, and, when detectZones is set, runs pressure-zone
// detection with a threshold of zoneThresholdFactor times the pass's max
// entry quantity.
//
// An empty filtered set yields an empty view with zeroed extrema, never an
// error; consumers must not divide by MaxQuantity without checking it.
func Aggregate(entries []domain.Entry, window domain.Window, now int64, detectZones bool) domain.AggregateView {
	filtered := filterWindow(entries, window, now)

	view := domain.AggregateView{
		Bids:        []domain.Entry{},
		Asks:        []domain.Entry{},
		LastUpdated: now,
	}

	if len(filtered) == 0 {
		return view
	}

	byVenue := groupByVenue(filtered)

	// Per-venue reference prices. This is a mean over the venue's windowed
	// entries, not a true book mid: the stream mixes many price levels with
	// no best-bid/ask marker, and the mean tolerates noisy partial
	// snapshots at the cost of occasional misclassification near the
	// midpoint. That trade-off is intentional. A single-entry group has no
	// usable mid of its own and falls back to the global mean.
	midByVenue := make(map[domain.VenueID]float64, len(byVenue))
	for id, group := range byVenue {
		if len(group) > 1 {
			midByVenue[id] = meanPrice(group)
		}
	}
	globalMean := meanPrice(filtered)

	for _, e := range filtered {
		mid, ok := midByVenue[e.Venue]
		if !ok {
			mid = globalMean
		}
		if e.Price < mid {
			view.Bids = append(view.Bids, e)
		} else {
			view.Asks = append(view.Asks, e)
		}
	}

	// Conventional depth-chart ordering; stable so ties keep first-seen
	// order.
	sort.SliceStable(view.Bids, func(i, j int) bool { return view.Bids[i].Price > view.Bids[j].Price })
	sort.SliceStable(view.Asks, func(i, j int) bool { return view.Asks[i].Price < view.Asks[j].Price })

	first := true
	for _, e := range filtered {
		if first {
			view.MinPrice = e.Price
			view.MaxPrice = e.Price
			first = false
		}
		if e.Price < view.MinPrice {
			view.MinPrice = e.Price
		}
		if e.Price > view.MaxPrice {
			view.MaxPrice = e.Price
		}
		if e.Quantity > view.MaxQuantity {
			view.MaxQuantity = e.Quantity
		}
	}

	if detectZones {
		view.PressureZones = DetectZones(filtered, zoneThresholdFactor*view.MaxQuantity)
	}

	return view
}

// filterWindow keeps only entries inside the window at now. The comparison is
// strict: an entry aged exactly the window length is excluded.
func filterWindow(entries []domain.Entry, window domain.Window, now int64) []domain.Entry {
	out := make([]domain.Entry, 0, len(entries))
	for _, e := range entries {
		if window.Contains(e.Timestamp, now) {
			out = append(out, e)
		}
	}
	return out
}

// groupByVenue partitions entries by venue, preserving order within each
// group.
func groupByVenue(entries []domain.Entry) map[domain.VenueID][]domain.Entry {
	groups := make(map[domain.VenueID][]domain.Entry)
	for _, e := range entries {
		groups[e.Venue] = append(groups[e.Venue], e)
	}
	return groups
}

// meanPrice returns the arithmetic mean price, or 0 for an empty slice.
func meanPrice(entries []domain.Entry) float64 {
	if len(entries) == 0 {
		return 0
	}
	var sum float64
	for _, e := range entries {
		sum += e.Price
	}
	return sum / float64(len(entries))
}
