package okx

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
		assert.Equal(t, "/api/v5/market/books", r.URL.Path)
		assert.Equal(t, "BTC-USDT", r.URL.Query().Get("instId"))
		assert.Equal(t, "50", r.URL.Query().Get("sz"))

		w.Write([]byte(`{
			"code":"0","msg":"",
			"data":[{
				"bids":[["43000.5","0.8","0","4"],["43000.1","0","0","0"]],
				"asks":[["43001.2","1.1","0","2"]],
				"ts":"1700000000555"
			}]
		}`))
	}))
	defer srv.Close()

	a := NewAdapter(Config{BaseURL: srv.URL}, discardLogger())

	entries, err := a.FetchSnapshot(context.Background(), "BTC-USDT", 50)
	require.NoError(t, err)

	// The zero-size bid is a deletion and never becomes an entry.
	require.Len(t, entries, 2)
	assert.Equal(t, domain.Entry{Price: 43000.5, Quantity: 0.8, Venue: Name, Timestamp: 1700000000555}, entries[0])
	assert.Equal(t, domain.Entry{Price: 43001.2, Quantity: 1.1, Venue: Name, Timestamp: 1700000000555}, entries[1])
}

func TestFetchSnapshotAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"51001","msg":"Instrument ID does not exist","data":[]}`))
	}))
	defer srv.Close()

	a := NewAdapter(Config{BaseURL: srv.URL}, discardLogger())

	_, err := a.FetchSnapshot(context.Background(), "NOPE-USDT", 50)
	require.Error(t, err)
	assert.True(t, domain.IsTransport(err))
	assert.Contains(t, err.Error(), "51001")
}

func TestHandleMessage(t *testing.T) {
	var received []domain.Entry
	s := &stream{
		onEntries: func(entries []domain.Entry) { received = append(received, entries...) },
		logger:    discardLogger(),
	}

	// Subscription ack is ignored.
	s.handleMessage([]byte(`{"event":"subscribe","arg":{"channel":"books","instId":"BTC-USDT"}}`))
	assert.Empty(t, received)

	// Malformed frame is dropped.
	s.handleMessage([]byte(`{"action":"update","data":`))
	assert.Empty(t, received)

	// Book update produces entries with the venue timestamp.
	s.handleMessage([]byte(`{
		"arg":{"channel":"books","instId":"BTC-USDT"},
		"action":"update",
		"data":[{"bids":[["42999.9","2"]],"asks":[["43000.3","0.5"]],"ts":"1700000001000"}]
	}`))

	require.Len(t, received, 2)
	assert.Equal(t, int64(1700000001000), received[0].Timestamp)
	assert.Equal(t, Name, received[0].Venue)
}

func TestParseTsFallback(t *testing.T) {
	assert.Equal(t, int64(1700000000555), parseTs("1700000000555"))
	assert.Positive(t, parseTs(""))
	assert.Positive(t, parseTs("not-a-number"))
}
