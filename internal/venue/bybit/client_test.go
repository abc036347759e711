package bybit

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanchen0/depthview/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/market/orderbook", r.URL.Path)
		assert.Equal(t, "spot", r.URL.Query().Get("category"))
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))

		w.Write([]byte(`{
			"retCode":0,"retMsg":"OK",
			"result":{
				"s":"BTCUSDT",
				"b":[["43000.1","1.2"],["42999.9","0"]],
				"a":[["43000.7","0.4"]],
				"ts":1700000000777
			},
			"time":1700000000800
		}`))
	}))
	defer srv.Close()

	a := NewAdapter(Config{BaseURL: srv.URL}, discardLogger())

	entries, err := a.FetchSnapshot(context.Background(), "BTCUSDT", 50)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, domain.Entry{Price: 43000.1, Quantity: 1.2, Venue: Name, Timestamp: 1700000000777}, entries[0])
	assert.Equal(t, domain.Entry{Price: 43000.7, Quantity: 0.4, Venue: Name, Timestamp: 1700000000777}, entries[1])
}

func TestFetchSnapshotAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"retCode":10001,"retMsg":"params error","result":{}}`))
	}))
	defer srv.Close()

	a := NewAdapter(Config{BaseURL: srv.URL}, discardLogger())

	_, err := a.FetchSnapshot(context.Background(), "BTCUSDT", 50)
	require.Error(t, err)
	assert.True(t, domain.IsTransport(err))
	assert.Contains(t, err.Error(), "10001")
}

func TestHandleMessage(t *testing.T) {
	var received []domain.Entry
	s := &stream{
		onEntries: func(entries []domain.Entry) { received = append(received, entries...) },
		logger:    discardLogger(),
	}

	// Non-data frames are ignored (sub ack frames carry no topic).
	s.handleMessage([]byte(`{"success":true,"op":"subscribe","conn_id":"abc"}`))
	s.handleMessage([]byte(`{"topic":"tickers.BTCUSDT","type":"snapshot"}`))
	assert.Empty(t, received)

	// Depth delta produces entries with the frame timestamp.
	s.handleMessage([]byte(`{
		"topic":"orderbook.50.BTCUSDT","type":"delta","ts":1700000002000,
		"data":{"s":"BTCUSDT","b":[["43000","0.9"],["42999","0"]],"a":[["43001","0.2"]]}
	}`))

	require.Len(t, received, 2)
	assert.Equal(t, int64(1700000002000), received[0].Timestamp)
	assert.Equal(t, Name, received[1].Venue)
}
