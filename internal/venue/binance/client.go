// Package binance implements the venue adapter for the Binance spot exchange:
// REST depth snapshots and the diff-depth WebSocket stream, normalized into
// domain entries.
package binance

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
const Name = domain.VenueID("binance")

// Config holds the Binance endpoints.
type Config struct {
	BaseURL string // e.g. "https://api.binance.com"
	WSURL   string // e.g. "wss://stream.binance.com:9443/ws"
}

// Adapter is the Binance venue adapter.
type Adapter struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewAdapter creates a Binance adapter.
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

// FetchSnapshot fetches the current depth snapshot for the symbol. Binance
// reports no timestamp on the snapshot payload, so entries carry the local
// receipt time.
func (a *Adapter) FetchSnapshot(ctx context.Context, symbol string, limit int) ([]domain.Entry, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("limit", strconv.Itoa(limit))

	endpoint := a.cfg.BaseURL + "/api/v3/depth?" + params.Encode()

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

	var snap depthSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, domain.NewTransportError(Name, "snapshot", fmt.Errorf("decode: %w", err))
	}

	now := time.Now().UnixMilli()
	entries := venue.ParseLevels(snap.Bids, Name, now)
	entries = append(entries, venue.ParseLevels(snap.Asks, Name, now)...)

	a.logger.Debug("snapshot fetched",
		slog.String("symbol", symbol),
		slog.Int("entries", len(entries)),
	)

	return entries, nil
}
