package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ryanchen0/depthview/internal/domain"
)

// viewTTL caps how long a cached view outlives the session that wrote it.
const viewTTL = 0 // no expiry; the session overwrites on every pass

// ViewCache implements domain.ViewCache and domain.ViewBus on Redis: the
// latest AggregateView is cached as a JSON blob under a per-symbol key, and
// every new view is published on a per-symbol pub/sub channel for live
// consumers.
//
// Key schema:
//
//	view:{symbol}     - JSON-encoded AggregateView (latest)
//	ch:view:{symbol}  - pub/sub channel carrying each new view
type ViewCache struct {
	rdb *redis.Client
}

// NewViewCache creates a ViewCache backed by the given Client.
func NewViewCache(c *Client) *ViewCache {
	return &ViewCache{rdb: c.Underlying()}
}

func viewKey(symbol string) string     { return "view:" + symbol }
func viewChannel(symbol string) string { return "ch:view:" + symbol }

// SetView replaces the cached view for the symbol.
func (vc *ViewCache) SetView(ctx context.Context, symbol string, view domain.AggregateView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("redis: marshal view %s: %w", symbol, err)
	}
	if err := vc.rdb.Set(ctx, viewKey(symbol), data, viewTTL).Err(); err != nil {
		return fmt.Errorf("redis: set view %s: %w", symbol, err)
	}
	return nil
}

// GetView reads the cached view for the symbol. It returns domain.ErrNotFound
// when no view has been cached yet.
func (vc *ViewCache) GetView(ctx context.Context, symbol string) (domain.AggregateView, error) {
	data, err := vc.rdb.Get(ctx, viewKey(symbol)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return domain.AggregateView{}, domain.ErrNotFound
		}
		return domain.AggregateView{}, fmt.Errorf("redis: get view %s: %w", symbol, err)
	}

	var view domain.AggregateView
	if err := json.Unmarshal(data, &view); err != nil {
		return domain.AggregateView{}, fmt.Errorf("redis: decode view %s: %w", symbol, err)
	}
	return view, nil
}

// PublishView sends the view to the symbol's pub/sub channel.
func (vc *ViewCache) PublishView(ctx context.Context, symbol string, view domain.AggregateView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("redis: marshal view %s: %w", symbol, err)
	}
	if err := vc.rdb.Publish(ctx, viewChannel(symbol), data).Err(); err != nil {
		return fmt.Errorf("redis: publish view %s: %w", symbol, err)
	}
	return nil
}

// SubscribeViews creates a pub/sub subscription for the symbol's views and
// returns a read-only channel of raw JSON payloads. The subscription is
// closed when the context is cancelled; the returned channel is closed at
// that point as well.
func (vc *ViewCache) SubscribeViews(ctx context.Context, symbol string) (<-chan []byte, error) {
	pubsub := vc.rdb.Subscribe(ctx, viewChannel(symbol))

	// Verify the subscription is established by receiving the confirmation.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe views %s: %w", symbol, err)
	}

	out := make(chan []byte, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Compile-time interface checks.
var (
	_ domain.ViewCache = (*ViewCache)(nil)
	_ domain.ViewBus   = (*ViewCache)(nil)
)
