package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arblab/arbcore/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// handshakeTimeout bounds the WebSocket dial.
	handshakeTimeout = 15 * time.Second

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second
)

// quoteMessage is the JSON record published on the quote stream. Prices and
// sizes arrive as decimal strings and are converted to fixed point at this
// edge; nothing past it handles decimal text.
type quoteMessage struct {
	Exchange  string `json:"exchange"`
	Symbol    string `json:"symbol"`
	Side      string `json:"side"`
	Price     string `json:"price"`
	Size      string `json:"size"`
	Seq       uint64 `json:"sequence"`
	Timestamp string `json:"timestamp"`
}

// wsCommand is the control message sent to the stream server.
type wsCommand struct {
	Type    string   `json:"type"`
	Symbols []string `json:"symbols"`
}

// WSFeed holds a WebSocket subscription for the configured symbols and
// offers each parsed record downstream. It reconnects with exponential
// backoff and resubscribes after every reconnect.
type WSFeed struct {
	url      string
	symbols  []string
	priceDec int
	qtyDec   int
	offer    func(domain.QuoteUpdate)
	logger   *slog.Logger
}

// NewWSFeed creates a feed for the given stream endpoint and symbol set.
// offer receives every well-formed record and must not block.
func NewWSFeed(url string, symbols []string, priceDecimals, qtyDecimals int, offer func(domain.QuoteUpdate), logger *slog.Logger) *WSFeed {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSFeed{
		url:      url,
		symbols:  symbols,
		priceDec: priceDecimals,
		qtyDec:   qtyDecimals,
		offer:    offer,
		logger:   logger.With(slog.String("component", "ws_feed")),
	}
}

// Run connects, subscribes, and pumps records until ctx is cancelled.
// Disconnects are retried with exponential backoff; the backoff resets
// after a connection that stayed up past one backoff cap.
func (f *WSFeed) Run(ctx context.Context) error {
	if len(f.symbols) == 0 {
		f.logger.Info("no symbols to subscribe, feed exiting")
		return nil
	}
	delay := reconnectDelay
	for {
		started := time.Now()
		err := f.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Since(started) > maxReconnectDelay {
			delay = reconnectDelay
		}
		f.logger.Warn("quote stream disconnected, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("delay", delay),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if delay *= 2; delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// runConnection owns one WebSocket connection from dial to failure.
func (f *WSFeed) runConnection(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("feed/ws: connect: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		// Unblocks the read loop when ctx is cancelled.
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		_ = conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go pingLoop(ctx, conn)

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(wsCommand{Type: "subscribe", Symbols: f.symbols}); err != nil {
		return fmt.Errorf("feed/ws: subscribe: %w", err)
	}
	f.logger.Info("subscribed to quote stream",
		slog.String("url", f.url),
		slog.Int("symbols", len(f.symbols)),
	)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("feed/ws: read: %v: %w", err, domain.ErrWSDisconnect)
		}
		f.handleMessage(raw)
	}
}

// pingLoop keeps the connection alive. A failed ping is left for the read
// loop to notice via its deadline.
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (f *WSFeed) handleMessage(raw []byte) {
	var msg quoteMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		f.logger.Debug("dropping unparseable stream message",
			slog.String("error", err.Error()),
			slog.Int("payload_len", len(raw)),
		)
		return
	}
	if msg.Symbol == "" {
		// Subscription acks and heartbeats carry no symbol.
		return
	}
	u, err := f.toUpdate(msg)
	if err != nil {
		f.logger.Debug("dropping malformed quote record",
			slog.String("error", err.Error()),
			slog.String("exchange", msg.Exchange),
			slog.String("symbol", msg.Symbol),
		)
		return
	}
	f.offer(u)
}

// toUpdate converts one wire record to the internal fixed-point form.
func (f *WSFeed) toUpdate(msg quoteMessage) (domain.QuoteUpdate, error) {
	side := domain.Side(msg.Side)
	if !side.Valid() {
		return domain.QuoteUpdate{}, fmt.Errorf("side %q: %w", msg.Side, domain.ErrInvalidQuote)
	}
	price, err := domain.ParseFixed(msg.Price, f.priceDec)
	if err != nil {
		return domain.QuoteUpdate{}, fmt.Errorf("price %q: %w", msg.Price, err)
	}
	qty, err := domain.ParseFixed(msg.Size, f.qtyDec)
	if err != nil {
		return domain.QuoteUpdate{}, fmt.Errorf("size %q: %w", msg.Size, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, msg.Timestamp)
	if err != nil {
		ts = time.Now()
	}
	return domain.QuoteUpdate{
		Exchange: msg.Exchange,
		Symbol:   msg.Symbol,
		Side:     side,
		Price:    price,
		Quantity: qty,
		Seq:      msg.Seq,
		Time:     ts,
	}, nil
}
