package okx

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ryanchen0/depthview/internal/domain"
	"github.com/ryanchen0/depthview/internal/venue"
)

const (
	writeWait = 10 * time.Second

	// pongWait bounds silence on the connection. OKX disconnects idle
	// clients after 30s without traffic.
	pongWait = 40 * time.Second

	pingPeriod = 20 * time.Second
)

// stream is a live OKX books subscription implementing venue.StreamHandle.
type stream struct {
	conn      *websocket.Conn
	onEntries venue.EntryHandler
	onError   venue.ErrorHandler
	logger    *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// OpenStream subscribes to the books channel for the instrument.
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
		Op:   "subscribe",
		Args: []wsArg{{Channel: "books", InstID: symbol}},
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(cmd); err != nil {
		conn.Close()
		return nil, domain.NewTransportError(Name, "connect", err)
	}

	go s.readLoop()
	go s.pingLoop()

	a.logger.Info("books stream opened", slog.String("symbol", symbol))

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

func (s *stream) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			// OKX keepalive is a literal "ping" text frame, answered with
			// "pong".
			if err := s.conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}

// handleMessage decodes one frame. Acks and keepalive pongs are ignored;
// malformed frames are dropped and the stream continues.
func (s *stream) handleMessage(raw []byte) {
	if string(raw) == "pong" {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return
	}

	var msg wsMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.logger.Debug("dropping undecodable frame", slog.String("error", err.Error()))
		return
	}

	// Subscription ack or channel-level error: no book data either way.
	if msg.Event != "" {
		if msg.Event == "error" {
			s.logger.Warn("channel error frame", slog.String("msg", msg.Msg))
		}
		return
	}

	var entries []domain.Entry
	for _, book := range msg.Data {
		ts := parseTs(book.Ts)
		entries = append(entries, venue.ParseLevels(book.Bids, Name, ts)...)
		entries = append(entries, venue.ParseLevels(book.Asks, Name, ts)...)
	}

	if len(entries) > 0 && s.onEntries != nil {
		s.onEntries(entries)
	}
}
