// Package okx implements the venue adapter for the OKX exchange: REST book
// snapshots and the books WebSocket channel, normalized into domain entries.
package okx

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
const Name = domain.VenueID("okx")

// Config holds the OKX endpoints.
type Config struct {
	BaseURL string // e.g. "https://www.okx.com"
	WSURL   string // e.g. "wss://ws.okx.com:8443/ws/v5/public"
}

// Adapter is the OKX venue adapter.
type Adapter struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewAdapter creates an OKX adapter.
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

// FetchSnapshot fetches the current order book for the instrument. Entries
// carry the venue-reported timestamp when present, otherwise local receipt
// time.
func (a *Adapter) FetchSnapshot(ctx context.Context, symbol string, limit int) ([]domain.Entry, error) {
	params := url.Values{}
	params.Set("instId", symbol)
	params.Set("sz", strconv.Itoa(limit))

	endpoint := a.cfg.BaseURL + "/api/v5/market/books?" + params.Encode()

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

	var books booksResponse
	if err := json.NewDecoder(resp.Body).Decode(&books); err != nil {
		return nil, domain.NewTransportError(Name, "snapshot", fmt.Errorf("decode: %w", err))
	}

	// OKX wraps API-level errors in a 200 response with a non-zero code.
	if books.Code != "" && books.Code != "0" {
		return nil, domain.NewTransportError(Name, "snapshot",
			fmt.Errorf("api code %s: %s", books.Code, books.Msg))
	}

	var entries []domain.Entry
	for _, book := range books.Data {
		ts := parseTs(book.Ts)
		entries = append(entries, venue.ParseLevels(book.Bids, Name, ts)...)
		entries = append(entries, venue.ParseLevels(book.Asks, Name, ts)...)
	}

	a.logger.Debug("snapshot fetched",
		slog.String("symbol", symbol),
		slog.Int("entries", len(entries)),
	)

	return entries, nil
}

// parseTs parses OKX's string-encoded millisecond timestamp, falling back to
// local receipt time when missing or malformed.
func parseTs(ts string) int64 {
	if n, err := strconv.ParseInt(ts, 10, 64); err == nil && n > 0 {
		return n
	}
	return time.Now().UnixMilli()
}
