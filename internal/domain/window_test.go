package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowValid(t *testing.T) {
	for _, w := range []Window{Window1m, Window5m, Window15m, Window1h} {
		assert.True(t, w.Valid(), w.String())
	}
	assert.False(t, Window(30*time.Second).Valid())
	assert.False(t, Window(0).Valid())
}

func TestWindowContains(t *testing.T) {
	now := int64(1_700_000_000_000)

	tests := []struct {
		name string
		ts   int64
		want bool
	}{
		{"fresh entry", now - 1, true},
		{"same instant", now, true},
		{"just inside", now - Window1m.Millis() + 1, true},
		{"exact boundary excluded", now - Window1m.Millis(), false},
		{"well outside", now - Window1m.Millis() - 5000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Window1m.Contains(tt.ts, now))
		})
	}
}

func TestTransportErrorWrapping(t *testing.T) {
	inner := errors.New("connection refused")
	err := NewTransportError("binance", "snapshot", inner)

	assert.True(t, IsTransport(err))
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "binance")
	assert.Contains(t, err.Error(), "snapshot")

	assert.False(t, IsTransport(inner))
}
