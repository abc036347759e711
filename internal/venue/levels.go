package venue

import (
	"strconv"

	"github.com/ryanchen0/depthview/internal/domain"
)

// ParseLevels converts raw [[price, qty], ...] decimal-string pairs, the shape
// shared by every supported venue's depth payloads, into normalized entries
// tagged with the venue ID and timestamp.
//
// Zero-quantity levels signal deletion upstream and carry no information for a
// windowed depth view; they are silently dropped. Malformed pairs are dropped
// the same way so one bad level never poisons the rest of the message.
func ParseLevels(levels [][]string, id domain.VenueID, timestamp int64) []domain.Entry {
	entries := make([]domain.Entry, 0, len(levels))
	for _, lvl := range levels {
		if len(lvl) < 2 {
			continue
		}
		price, err := strconv.ParseFloat(lvl[0], 64)
		if err != nil {
			continue
		}
		qty, err := strconv.ParseFloat(lvl[1], 64)
		if err != nil || qty <= 0 {
			continue
		}
		entries = append(entries, domain.Entry{
			Price:     price,
			Quantity:  qty,
			Venue:     id,
			Timestamp: timestamp,
		})
	}
	return entries
}
