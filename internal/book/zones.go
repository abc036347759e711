package book

import (
	"math"
	"sort"

	"github.com/ryanchen0/depthview/internal/domain"
)

const (
	// zoneScanRadius is how many price buckets a zone may grow from its
	// seed in each direction.
	zoneScanRadius = 5

	// zoneGrowthFactor is the fraction of the seeding threshold a neighbor
	// bucket must carry for the zone to keep growing into it.
	zoneGrowthFactor = 0.5
)

// DetectZones clusters the entries of each venue into contiguous high-volume
// price-bucket runs and returns all zones across venues, ranked by pressure
// score descending. Clustering never crosses venues; overlapping price ranges
// from different venues stay separate zones.
//
// A bucket seeds a zone only when its summed quantity reaches threshold.
// Callers should not pass a zero threshold unless they intend every nonempty
// bucket to seed. A venue whose buckets all fall short simply contributes no
// zones; that is not an error.
func DetectZones(entries []domain.Entry, threshold float64) []domain.PressureZone {
	if len(entries) == 0 {
		return nil
	}

	// Zone typing uses the mean over everything passed in, independent of
	// the aggregator's own per-venue classification. The two heuristics can
	// disagree on the same entry; they are kept separate on purpose.
	globalMean := meanPrice(entries)

	// Venues are visited in sorted order so equal-score zones rank
	// deterministically across passes.
	byVenue := groupByVenue(entries)
	ids := make([]domain.VenueID, 0, len(byVenue))
	for id := range byVenue {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var zones []domain.PressureZone
	for _, id := range ids {
		zones = append(zones, detectVenueZones(byVenue[id], threshold, globalMean)...)
	}

	sort.SliceStable(zones, func(i, j int) bool {
		return zones[i].PressureScore > zones[j].PressureScore
	})

	return zones
}

// bucket aggregates the entries rounding to one integer price.
type bucket struct {
	entries []domain.Entry
	volume  float64
}

// detectVenueZones runs the clustering for one venue's entries.
func detectVenueZones(entries []domain.Entry, threshold, globalMean float64) []domain.PressureZone {
	buckets := make(map[int64]*bucket)
	for _, e := range entries {
		key := int64(math.Round(e.Price))
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.entries = append(b.entries, e)
		b.volume += e.Quantity
	}

	keys := make([]int64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	claimed := make(map[int64]bool)

	var zones []domain.PressureZone
	for _, seed := range keys {
		if claimed[seed] {
			continue
		}
		if buckets[seed].volume < threshold {
			continue
		}

		// Grow outward from the seed: walk each direction until the
		// first neighbor below the growth threshold, up to the scan
		// radius. Contiguous runs only, no skipping ahead.
		lo, hi := seed, seed
		for d := int64(1); d <= zoneScanRadius; d++ {
			k := seed - d
			b, ok := buckets[k]
			if !ok || claimed[k] || b.volume < zoneGrowthFactor*threshold {
				break
			}
			lo = k
		}
		for d := int64(1); d <= zoneScanRadius; d++ {
			k := seed + d
			b, ok := buckets[k]
			if !ok || claimed[k] || b.volume < zoneGrowthFactor*threshold {
				break
			}
			hi = k
		}

		zone := domain.PressureZone{
			MinPrice: math.Inf(1),
			MaxPrice: math.Inf(-1),
		}
		for k := lo; k <= hi; k++ {
			b, ok := buckets[k]
			if !ok {
				continue
			}
			claimed[k] = true
			for _, e := range b.entries {
				zone.Entries = append(zone.Entries, e)
				zone.TotalVolume += e.Quantity
				if e.Price < zone.MinPrice {
					zone.MinPrice = e.Price
				}
				if e.Price > zone.MaxPrice {
					zone.MaxPrice = e.Price
				}
			}
		}

		zone.Type = domain.ZoneAsk
		if len(zone.Entries) > 0 && zone.Entries[0].Price < globalMean {
			zone.Type = domain.ZoneBid
		}

		// Score rewards both density and breadth; price granularity is
		// fixed at 1.
		zone.PressureScore = zone.TotalVolume * (zone.MaxPrice - zone.MinPrice + 1)

		zones = append(zones, zone)
	}

	return zones
}
