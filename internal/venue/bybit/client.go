// Package bybit implements the venue adapter for the Bybit exchange: REST
// orderbook snapshots and the v5 public orderbook WebSocket topic, normalized
// into domain entries.
package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ryanchen0/depthview/internal/domain"
	"github.com/ryanchen0/depthview/internal/venue"
)

// Name is the registry key for this adapter.
const Name = domain.VenueID("bybit")

// Config holds the Bybit endpoints.
type Config struct {
	BaseURL string // e.g. "https://api.bybit.com"
	WSURL   string // e.g. "wss://stream.bybit.com/v5/public/spot"
}

// Adapter is the Bybit venue adapter.
type Adapter struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewAdapter creates a Bybit adapter.
func NewAdapter(cfg Config, logger *slog.Logger) *Adapter {
	return &Adapter{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger.With(slog.String("venue", string(Name))),
	}
}

// Venue implements venue.Adapter.
func (a *Adapter) Venue() domain.VenueID { return Name }

// FetchSnapshot fetches the current spot orderbook for the symbol. Entries
// carry the venue-reported timestamp when present, otherwise local receipt
// time.
func (a *Adapter) FetchSnapshot(ctx context.Context, symbol string, limit int) ([]domain.Entry, error) {
	params := url.Values{}
	params.Set("category", "spot")
	params.Set("symbol", symbol)
	params.Set("limit", strconv.Itoa(limit))

	endpoint := a.cfg.BaseURL + "/v5/market/orderbook?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.NewTransportError(Name, "snapshot", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewTransportError(Name, "snapshot", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, domain.NewTransportError(Name, "snapshot",
			fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	var rest restResponse
	if err := json.NewDecoder(resp.Body).Decode(&rest); err != nil {
		return nil, domain.NewTransportError(Name, "snapshot", fmt.Errorf("decode: %w", err))
	}

	if rest.RetCode != 0 {
		return nil, domain.NewTransportError(Name, "snapshot",
			fmt.Errorf("api code %d: %s", rest.RetCode, rest.RetMsg))
	}

	ts := rest.Result.Ts
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}

	entries := venue.ParseLevels(rest.Result.Bids, Name, ts)
	entries = append(entries, venue.ParseLevels(rest.Result.Asks, Name, ts)...)

	a.logger.Debug("snapshot fetched",
		slog.String("symbol", symbol),
		slog.Int("entries", len(entries)),
	)

	return entries, nil
}
