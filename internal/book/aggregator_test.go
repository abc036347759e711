package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanchen0/depthview/internal/domain"
)

const now = int64(1_700_000_000_000)

// fresh returns an entry timestamped just inside any window.
func fresh(price, qty float64, venue domain.VenueID) domain.Entry {
	return domain.Entry{Price: price, Quantity: qty, Venue: venue, Timestamp: now - 1000}
}

func TestAggregateWindowFiltering(t *testing.T) {
	w := domain.Window1m

	entries := []domain.Entry{
		{Price: 100, Quantity: 1, Venue: "binance", Timestamp: now - 1},
		{Price: 101, Quantity: 1, Venue: "binance", Timestamp: now - w.Millis() + 1},
		// Exactly window-aged entries are excluded: cutoff is strict.
		{Price: 102, Quantity: 1, Venue: "binance", Timestamp: now - w.Millis()},
		{Price: 103, Quantity: 1, Venue: "binance", Timestamp: now - w.Millis() - 1},
	}

	view := Aggregate(entries, w, now, false)

	total := len(view.Bids) + len(view.Asks)
	assert.Equal(t, 2, total)
	for _, e := range append(append([]domain.Entry{}, view.Bids...), view.Asks...) {
		assert.True(t, w.Contains(e.Timestamp, now))
		assert.NotEqual(t, 102.0, e.Price)
		assert.NotEqual(t, 103.0, e.Price)
	}
}

func TestAggregateClassification(t *testing.T) {
	entries := []domain.Entry{
		fresh(100, 5, "binance"),
		fresh(101, 3, "binance"),
		// Single-entry venue group: no venue mid, classified against the
		// global mean of 100.
		fresh(99, 8, "okx"),
	}

	view := Aggregate(entries, domain.Window1h, now, false)

	// binance mid is 100.5: 100 is a bid, 101 an ask. okx's 99 < 100.
	require.Len(t, view.Bids, 2)
	require.Len(t, view.Asks, 1)
	assert.Equal(t, 100.0, view.Bids[0].Price) // sorted descending
	assert.Equal(t, 99.0, view.Bids[1].Price)
	assert.Equal(t, 101.0, view.Asks[0].Price)

	assert.Equal(t, 99.0, view.MinPrice)
	assert.Equal(t, 101.0, view.MaxPrice)
	assert.Equal(t, 8.0, view.MaxQuantity)
	assert.Equal(t, now, view.LastUpdated)
}

func TestAggregateSortOrdering(t *testing.T) {
	entries := []domain.Entry{
		fresh(105, 1, "binance"),
		fresh(95, 2, "binance"),
		fresh(103, 1, "binance"),
		fresh(97, 2, "binance"),
		fresh(99, 2, "binance"),
		fresh(101, 1, "binance"),
	}

	view := Aggregate(entries, domain.Window1h, now, false)

	for i := 1; i < len(view.Bids); i++ {
		assert.Greater(t, view.Bids[i-1].Price, view.Bids[i].Price)
	}
	for i := 1; i < len(view.Asks); i++ {
		assert.Less(t, view.Asks[i-1].Price, view.Asks[i].Price)
	}
}

func TestAggregateStableTieBreak(t *testing.T) {
	// Two asks at the same price keep first-seen order.
	a := fresh(101, 1, "binance")
	b := fresh(101, 2, "binance")
	entries := []domain.Entry{fresh(99, 1, "binance"), a, b}

	view := Aggregate(entries, domain.Window1h, now, false)

	require.Len(t, view.Asks, 2)
	assert.Equal(t, 1.0, view.Asks[0].Quantity)
	assert.Equal(t, 2.0, view.Asks[1].Quantity)
}

func TestAggregateEmpty(t *testing.T) {
	view := Aggregate(nil, domain.Window1m, now, true)

	assert.True(t, view.Empty())
	assert.Empty(t, view.Bids)
	assert.Empty(t, view.Asks)
	assert.Empty(t, view.PressureZones)
	assert.Zero(t, view.MinPrice)
	assert.Zero(t, view.MaxPrice)
	assert.Zero(t, view.MaxQuantity)
	assert.Equal(t, now, view.LastUpdated)

	// All entries aged out behaves the same as no entries.
	stale := []domain.Entry{{Price: 100, Quantity: 1, Venue: "binance", Timestamp: now - domain.Window1m.Millis()}}
	view = Aggregate(stale, domain.Window1m, now, true)
	assert.True(t, view.Empty())
	assert.Zero(t, view.MaxQuantity)
}

func TestAggregateIdempotent(t *testing.T) {
	entries := []domain.Entry{
		fresh(100, 5, "binance"),
		fresh(101, 3, "binance"),
		fresh(99, 8, "okx"),
		fresh(99, 2, "bybit"),
		fresh(104, 7, "bybit"),
	}

	first := Aggregate(entries, domain.Window1h, now, true)
	second := Aggregate(entries, domain.Window1h, now, true)

	assert.Equal(t, first, second)
}

func TestAggregateDoesNotMutateInput(t *testing.T) {
	entries := []domain.Entry{
		fresh(105, 1, "binance"),
		fresh(95, 2, "binance"),
		fresh(100, 3, "binance"),
	}
	snapshot := make([]domain.Entry, len(entries))
	copy(snapshot, entries)

	Aggregate(entries, domain.Window1h, now, true)

	assert.Equal(t, snapshot, entries)
}

func TestAggregateZoneThreshold(t *testing.T) {
	// Spec scenario: venue A [{100,5},{101,3}], venue B [{99,8}], window 1h.
	// maxQuantity is 8, so detection runs with threshold 1.6.
	entries := []domain.Entry{
		fresh(100, 5, "venueA"),
		fresh(101, 3, "venueA"),
		fresh(99, 8, "venueB"),
	}

	view := Aggregate(entries, domain.Window1h, now, true)

	require.NotEmpty(t, view.PressureZones)

	var zoneB *domain.PressureZone
	for i := range view.PressureZones {
		z := &view.PressureZones[i]
		if len(z.Entries) > 0 && z.Entries[0].Venue == "venueB" {
			zoneB = z
		}
	}
	require.NotNil(t, zoneB, "expected a zone for venue B around price 99")
	assert.Equal(t, 8.0, zoneB.TotalVolume)
	assert.Equal(t, 99.0, zoneB.MinPrice)
	assert.Equal(t, 99.0, zoneB.MaxPrice)
	assert.Equal(t, 8.0, zoneB.PressureScore) // 8 * (99 - 99 + 1)
}

func TestAggregateZonesDisabled(t *testing.T) {
	entries := []domain.Entry{fresh(100, 5, "binance"), fresh(101, 3, "binance")}

	view := Aggregate(entries, domain.Window1h, now, false)

	assert.Nil(t, view.PressureZones)
}
