package bybit

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ryanchen0/depthview/internal/domain"
	"github.com/ryanchen0/depthview/internal/venue"
)

const (
	writeWait = 10 * time.Second

	// pongWait bounds silence on the connection. Bybit expects a ping at
	// least every 20s and answers with an op-level pong frame.
	pongWait = 60 * time.Second

	pingPeriod = 20 * time.Second

	// depthTopic is the subscribed orderbook depth level.
	depthTopic = "orderbook.50."
)

// stream is a live Bybit orderbook subscription implementing
// venue.StreamHandle.
type stream struct {
	conn      *websocket.Conn
	onEntries venue.EntryHandler
	onError   venue.ErrorHandler
	logger    *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// OpenStream subscribes to the orderbook topic for the symbol.
func (a *Adapter) OpenStream(ctx context.Context, symbol string, onEntries venue.EntryHandler, onError venue.ErrorHandler) (venue.StreamHandle, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, a.cfg.WSURL, nil)
	if err != nil {
		return nil, domain.NewTransportError(Name, "connect", err)
	}

	s := &stream{
		conn:      conn,
		onEntries: onEntries,
		onError:   onError,
		logger:    a.logger,
		done:      make(chan struct{}),
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))

	cmd := wsCommand{
		Op:   "subscribe",
		Args: []string{depthTopic + symbol},
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(cmd); err != nil {
		conn.Close()
		return nil, domain.NewTransportError(Name, "connect", err)
	}

	go s.readLoop()
	go s.pingLoop()

	a.logger.Info("orderbook stream opened", slog.String("symbol", symbol))

	return s, nil
}

// Close shuts down the stream connection. Safe to call more than once.
func (s *stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		err = s.conn.Close()
	})
	return err
}

func (s *stream) readLoop() {
	defer s.conn.Close()

	for {
		select {
		case <-s.done:
			return
		default:
		}

		_, message, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			if s.onError != nil {
				s.onError(domain.NewTransportError(Name, "stream", err))
			}
			return
		}

		s.handleMessage(message)
	}
}

// pingLoop sends op-level ping frames, the keepalive Bybit expects.
func (s *stream) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(wsCommand{Op: "ping"}); err != nil {
				return
			}
		}
	}
}

// handleMessage decodes one frame. Command responses (subscribe acks, pongs)
// are ignored; malformed frames are dropped and the stream continues.
func (s *stream) handleMessage(raw []byte) {
	var msg wsMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.logger.Debug("dropping undecodable frame", slog.String("error", err.Error()))
		return
	}

	if msg.Op != "" {
		if msg.Op == "pong" || msg.Op == "ping" {
			s.conn.SetReadDeadline(time.Now().Add(pongWait))
		}
		if msg.Success != nil && !*msg.Success {
			s.logger.Warn("command rejected", slog.String("op", msg.Op))
		}
		return
	}

	if !strings.HasPrefix(msg.Topic, "orderbook.") {
		return
	}

	ts := msg.Ts
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}

	entries := venue.ParseLevels(msg.Data.Bids, Name, ts)
	entries = append(entries, venue.ParseLevels(msg.Data.Asks, Name, ts)...)

	if len(entries) > 0 && s.onEntries != nil {
		s.onEntries(entries)
	}
}
