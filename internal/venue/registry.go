package venue

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ryanchen0/depthview/internal/domain"
)

// Registry holds adapters keyed by venue ID for selection by config.
type Registry struct {
	adapters map[domain.VenueID]Adapter
	mu       sync.RWMutex
}

// NewRegistry returns an empty registry. Call Register to add adapters.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[domain.VenueID]Adapter)}
}

// Register adds an adapter under its own venue ID.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Venue()] = a
}

// Get returns the adapter for the given venue, or an error if not registered.
func (r *Registry) Get(id domain.VenueID) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[id]
	if !ok {
		return nil, fmt.Errorf("venue %q: %w", id, domain.ErrVenueUnknown)
	}
	return a, nil
}

// List returns all registered venue IDs, sorted.
func (r *Registry) List() []domain.VenueID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]domain.VenueID, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
