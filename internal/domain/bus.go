package domain

import "context"

// ViewCache stores the most recent AggregateView so external consumers can
// read it without going through the controller's HTTP surface.
type ViewCache interface {
	SetView(ctx context.Context, symbol string, view AggregateView) error
	GetView(ctx context.Context, symbol string) (AggregateView, error)
}

// ViewBus publishes each newly produced AggregateView to interested
// subscribers (pub/sub fan-out, not durable delivery).
type ViewBus interface {
	PublishView(ctx context.Context, symbol string, view AggregateView) error
	SubscribeViews(ctx context.Context, symbol string) (<-chan []byte, error)
}
