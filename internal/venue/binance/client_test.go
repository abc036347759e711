package binance

import (
	"context"
	"encoding/json"
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
		assert.Equal(t, "/api/v3/depth", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))

		json.NewEncoder(w).Encode(depthSnapshot{
			LastUpdateID: 42,
			Bids:         [][]string{{"100.5", "2"}, {"100.4", "0"}},
			Asks:         [][]string{{"100.6", "1.5"}},
		})
	}))
	defer srv.Close()

	a := NewAdapter(Config{BaseURL: srv.URL}, discardLogger())

	entries, err := a.FetchSnapshot(context.Background(), "BTCUSDT", 100)
	require.NoError(t, err)

	// The zero-quantity bid is dropped during normalization.
	require.Len(t, entries, 2)
	assert.Equal(t, 100.5, entries[0].Price)
	assert.Equal(t, 2.0, entries[0].Quantity)
	assert.Equal(t, Name, entries[0].Venue)
	assert.Positive(t, entries[0].Timestamp)
	assert.Equal(t, 100.6, entries[1].Price)
}

func TestFetchSnapshotErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-2xx status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
			},
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"bids": "not-an-array"`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			a := NewAdapter(Config{BaseURL: srv.URL}, discardLogger())

			_, err := a.FetchSnapshot(context.Background(), "BTCUSDT", 50)
			require.Error(t, err)
			assert.True(t, domain.IsTransport(err))
		})
	}
}

func TestHandleMessage(t *testing.T) {
	var received []domain.Entry
	s := &stream{
		onEntries: func(entries []domain.Entry) { received = append(received, entries...) },
		logger:    discardLogger(),
	}

	// Subscription acks and unknown events are ignored.
	s.handleMessage([]byte(`{"result":null,"id":1}`))
	s.handleMessage([]byte(`{"e":"trade","E":1700000000000}`))
	assert.Empty(t, received)

	// Malformed JSON is dropped without stopping the stream.
	s.handleMessage([]byte(`{"e":"depthUpdate",`))
	assert.Empty(t, received)

	// A depth update produces entries tagged with the event time; zero-qty
	// deletions never become entries.
	s.handleMessage([]byte(`{
		"e":"depthUpdate","E":1700000000123,"s":"BTCUSDT",
		"b":[["100.1","3"],["99.9","0"]],
		"a":[["100.2","1"]]
	}`))

	require.Len(t, received, 2)
	assert.Equal(t, domain.Entry{Price: 100.1, Quantity: 3, Venue: Name, Timestamp: 1700000000123}, received[0])
	assert.Equal(t, domain.Entry{Price: 100.2, Quantity: 1, Venue: Name, Timestamp: 1700000000123}, received[1])
}

func TestHandleMessageTimestampFallback(t *testing.T) {
	var received []domain.Entry
	s := &stream{
		onEntries: func(entries []domain.Entry) { received = append(received, entries...) },
		logger:    discardLogger(),
	}

	// Event time of zero falls back to local receipt time.
	s.handleMessage([]byte(`{"e":"depthUpdate","E":0,"b":[["100","1"]],"a":[]}`))

	require.Len(t, received, 1)
	assert.Positive(t, received[0].Timestamp)
}
