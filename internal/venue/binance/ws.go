package binance

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
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed between inbound frames before the
	// connection is considered dead. Binance pings every ~20s.
	pongWait = 60 * time.Second

	// pingPeriod sends client pings at this interval. Must be less than
	// pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// stream is a live Binance depth subscription. It implements
// venue.StreamHandle. The handle never reconnects on its own; a read failure
// is reported once through onError and the loops exit.
type stream struct {
	conn      *websocket.Conn
	onEntries venue.EntryHandler
	onError   venue.ErrorHandler
	logger    *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// OpenStream dials the diff-depth stream for the symbol and starts delivering
// entry batches to onEntries as they are decoded.
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
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	cmd := wsCommand{
		Method: "SUBSCRIBE",
		Params: []string{strings.ToLower(symbol) + "@depth"},
		ID:     1,
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(cmd); err != nil {
		conn.Close()
		return nil, domain.NewTransportError(Name, "connect", err)
	}

	go s.readLoop()
	go s.pingLoop()

	a.logger.Info("depth stream opened", slog.String("symbol", symbol))

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

// readLoop reads frames until the connection fails or the handle is closed.
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

// pingLoop sends periodic pings to keep the connection alive.
func (s *stream) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage decodes one frame. Subscription acknowledgments are ignored;
// malformed frames are dropped so one bad message never takes down the stream.
func (s *stream) handleMessage(raw []byte) {
	var envelope wsEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		s.logger.Debug("dropping undecodable frame", slog.String("error", err.Error()))
		return
	}

	// Subscribe ack: carries an id, no event type.
	if envelope.ID != nil {
		return
	}

	if envelope.Event != "depthUpdate" {
		return
	}

	var update depthUpdate
	if err := json.Unmarshal(raw, &update); err != nil {
		s.logger.Debug("dropping malformed depth update", slog.String("error", err.Error()))
		return
	}

	ts := update.EventTime
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}

	entries := venue.ParseLevels(update.Bids, Name, ts)
	entries = append(entries, venue.ParseLevels(update.Asks, Name, ts)...)

	if len(entries) > 0 && s.onEntries != nil {
		s.onEntries(entries)
	}
}
