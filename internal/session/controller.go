// Package session owns the aggregation session lifecycle: it fetches initial
// snapshots, opens and tears down venue streams, buffers inbound entries, and
// drives aggregation passes in real-time or batched mode. It is the single
// mutation point between the venue adapters and the published view.
package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ryanchen0/depthview/internal/book"
	"github.com/ryanchen0/depthview/internal/domain"
	"github.com/ryanchen0/depthview/internal/metrics"
	"github.com/ryanchen0/depthview/internal/venue"
)

// drainInterval is the batched-mode processing period. The staging buffer is
// drained and a pass runs on every tick, whether or not anything arrived.
const drainInterval = 1 * time.Second

// Config is the controller's aggregation policy. Venue selection and window
// come validated from the config layer.
type Config struct {
	Venues        []domain.VenueID
	Symbols       map[domain.VenueID]string
	Window        domain.Window
	Realtime      bool
	ZonesEnabled  bool
	SnapshotLimit int
}

// Publisher receives every newly produced view. Used to fan views out to the
// cache/bus layer without the controller knowing about Redis.
type Publisher func(ctx context.Context, view domain.AggregateView)

// Controller is the aggregation session state machine.
//
// State transitions: connecting -> open on a non-empty combined snapshot,
// connecting -> error when every snapshot is empty, open -> error on any
// adapter transport failure. Reconnect and venue-set changes always tear down
// every live handle and re-enter connecting; adapters are never added or
// removed incrementally.
type Controller struct {
	registry *venue.Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics
	publish  Publisher

	mu        sync.Mutex
	cfg       Config
	status    domain.Status
	errMsg    string
	sessionID string
	handles   []venue.StreamHandle
	store     []domain.Entry // entries inside the widest window horizon
	pending   []domain.Entry // batched-mode staging, drained once per tick
	closed    bool

	view atomic.Pointer[domain.AggregateView]

	subMu sync.Mutex
	subs  []chan domain.AggregateView
}

// New creates a Controller. metrics and publish may be nil.
func New(registry *venue.Registry, cfg Config, m *metrics.Metrics, publish Publisher, logger *slog.Logger) *Controller {
	c := &Controller{
		registry: registry,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "session")),
		metrics:  m,
		publish:  publish,
		status:   domain.StatusClosed,
	}
	empty := domain.AggregateView{Bids: []domain.Entry{}, Asks: []domain.Entry{}}
	c.view.Store(&empty)
	return c
}

// Run connects the session and blocks until ctx is cancelled. In batched mode
// it also drives the periodic drain loop. All live handles are closed before
// Run returns; no stream goroutine outlives it.
func (c *Controller) Run(ctx context.Context) error {
	c.connect(ctx)

	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.Close()
			return ctx.Err()
		case <-ticker.C:
			c.drain(ctx)
		}
	}
}

// drain moves the batched staging buffer into the store and runs a pass. It
// runs on every tick regardless of arrival timing, even when nothing arrived.
// No-op in real-time mode or outside the open state.
func (c *Controller) drain(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg.Realtime || c.status != domain.StatusOpen {
		return
	}
	c.store = append(c.store, c.pending...)
	c.pending = nil
	c.runPassLocked(ctx)
}

// Reconnect tears down all live adapter handles, clears status and error, and
// re-enters connecting. It is the only recovery action; there is no automatic
// retry or backoff.
func (c *Controller) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrSessionClosed
	}
	c.teardownLocked()
	c.mu.Unlock()

	c.connect(ctx)
	return nil
}

// SetVenues replaces the selected venue set. Always a full teardown and
// reconnect; handles are never reused across venue-set changes.
func (c *Controller) SetVenues(ctx context.Context, venues []domain.VenueID) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrSessionClosed
	}
	c.teardownLocked()
	c.cfg.Venues = venues
	c.mu.Unlock()

	c.connect(ctx)
	return nil
}

// SetWindow switches the active window and recomputes the view immediately.
// No reconnect is needed: the store keeps entries up to the widest window.
func (c *Controller) SetWindow(ctx context.Context, w domain.Window) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.Window = w
	c.runPassLocked(ctx)
}

// SetRealtime toggles between per-arrival and batched processing.
func (c *Controller) SetRealtime(realtime bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if realtime && len(c.pending) > 0 {
		c.store = append(c.store, c.pending...)
		c.pending = nil
	}
	c.cfg.Realtime = realtime
}

// SetZonesEnabled gates pressure-zone detection and recomputes the view.
func (c *Controller) SetZonesEnabled(ctx context.Context, enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.ZonesEnabled = enabled
	c.runPassLocked(ctx)
}

// View returns the most recently published view. Publication is atomic:
// readers never observe a partially updated view.
func (c *Controller) View() domain.AggregateView {
	return *c.view.Load()
}

// Status returns the connection state and the current error message, empty
// when none.
func (c *Controller) Status() (domain.Status, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.errMsg
}

// SessionID returns the identifier of the current connect cycle.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Config returns a copy of the current aggregation policy.
func (c *Controller) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	cfg := c.cfg
	cfg.Venues = append([]domain.VenueID(nil), c.cfg.Venues...)
	return cfg
}

// Subscribe returns a channel receiving every newly published view. Slow
// subscribers miss intermediate views rather than blocking a pass.
func (c *Controller) Subscribe() <-chan domain.AggregateView {
	ch := make(chan domain.AggregateView, 8)
	c.subMu.Lock()
	c.subs = append(c.subs, ch)
	c.subMu.Unlock()
	return ch
}

// Close tears down every live handle and marks the controller closed. Safe to
// call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.teardownLocked()
	c.closed = true
	c.status = domain.StatusClosed
}

// ---------------------------------------------------------------------------
// Internal
// ---------------------------------------------------------------------------

// connect runs the connecting phase: sequential snapshot fetch for every
// selected venue, one immediate pass when the combined snapshot is non-empty,
// then live streams for every venue.
func (c *Controller) connect(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.status = domain.StatusConnecting
	c.errMsg = ""
	c.sessionID = uuid.NewString()
	c.store = nil
	c.pending = nil

	cfg := c.cfg
	sessionID := c.sessionID
	c.mu.Unlock()

	logger := c.logger.With(slog.String("session_id", sessionID))
	logger.Info("connecting",
		slog.Int("venues", len(cfg.Venues)),
		slog.String("window", cfg.Window.String()),
		slog.Bool("realtime", cfg.Realtime),
	)

	var snapshot []domain.Entry
	for _, id := range cfg.Venues {
		adapter, err := c.registry.Get(id)
		if err != nil {
			logger.Warn("venue not registered", slog.String("venue", string(id)))
			continue
		}

		entries, err := adapter.FetchSnapshot(ctx, cfg.Symbols[id], cfg.SnapshotLimit)
		if err != nil {
			// A failed snapshot surfaces as a status note, not a
			// fatal error: the venue may still deliver via stream.
			logger.Warn("snapshot fetch failed",
				slog.String("venue", string(id)),
				slog.String("error", err.Error()),
			)
			c.metrics.TransportError(string(id))
			continue
		}
		c.metrics.EntriesReceived(string(id), len(entries))
		snapshot = append(snapshot, entries...)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	if len(snapshot) == 0 {
		c.status = domain.StatusError
		c.errMsg = domain.ErrEmptyResult.Error()
		logger.Error("no snapshot data from any venue")
		return
	}

	c.store = snapshot
	c.runPassLocked(ctx)

	for _, id := range cfg.Venues {
		adapter, err := c.registry.Get(id)
		if err != nil {
			continue
		}

		handle, err := adapter.OpenStream(ctx, cfg.Symbols[id],
			c.entryHandler(id),
			c.errorHandler(id),
		)
		if err != nil {
			logger.Error("stream open failed",
				slog.String("venue", string(id)),
				slog.String("error", err.Error()),
			)
			c.metrics.TransportError(string(id))
			c.status = domain.StatusError
			c.errMsg = err.Error()
			continue
		}
		c.handles = append(c.handles, handle)
	}

	if c.status == domain.StatusConnecting {
		c.status = domain.StatusOpen
		logger.Info("session open", slog.Int("streams", len(c.handles)))
	}
}

// entryHandler returns the per-venue callback appending inbound batches. In
// real-time mode every arrival triggers a full pass; redundant recomputation
// is the accepted cost of minimal latency.
func (c *Controller) entryHandler(id domain.VenueID) venue.EntryHandler {
	return func(entries []domain.Entry) {
		c.metrics.EntriesReceived(string(id), len(entries))

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			return
		}

		if c.cfg.Realtime {
			c.store = append(c.store, entries...)
			c.runPassLocked(context.Background())
		} else {
			c.pending = append(c.pending, entries...)
		}
	}
}

// errorHandler returns the per-venue stream failure callback. A transport
// error surfaces as the error state but does not close sibling streams; only
// an explicit reconnect does full teardown.
func (c *Controller) errorHandler(id domain.VenueID) venue.ErrorHandler {
	return func(err error) {
		c.logger.Error("stream error",
			slog.String("venue", string(id)),
			slog.String("error", err.Error()),
		)
		c.metrics.TransportError(string(id))

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			return
		}
		c.status = domain.StatusError
		c.errMsg = err.Error()
	}
}

// runPassLocked copies the store, runs one aggregation pass, publishes the
// view atomically, and prunes aged-out entries. Caller must hold c.mu.
func (c *Controller) runPassLocked(ctx context.Context) {
	started := time.Now()
	now := started.UnixMilli()

	buffer := make([]domain.Entry, len(c.store))
	copy(buffer, c.store)

	view := book.Aggregate(buffer, c.cfg.Window, now, c.cfg.ZonesEnabled)
	c.view.Store(&view)

	// Entries beyond the widest selectable window can never come back into
	// view; drop them so the store stays bounded.
	kept := c.store[:0]
	for _, e := range c.store {
		if domain.MaxWindow.Contains(e.Timestamp, now) {
			kept = append(kept, e)
		}
	}
	c.store = kept

	c.metrics.PassRun(time.Since(started).Seconds())
	c.metrics.BufferSize(len(c.store))

	c.notify(view)

	if c.publish != nil {
		c.publish(ctx, view)
	}
}

// notify fans the view out to subscribers without blocking.
func (c *Controller) notify(view domain.AggregateView) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- view:
		default:
		}
	}
}

// teardownLocked closes every live handle. Caller must hold c.mu.
func (c *Controller) teardownLocked() {
	for _, h := range c.handles {
		if err := h.Close(); err != nil {
			c.logger.Warn("handle close failed", slog.String("error", err.Error()))
		}
	}
	c.handles = nil
	c.status = domain.StatusClosed
	c.errMsg = ""
}
