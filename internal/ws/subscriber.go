// Package ws subscribes to the upstream order event feed so the UI can
// refresh tables and orders without polling.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Backoff cap between reconnect attempts
	maxBackoff = 30 * time.Second
)

// Event is one message from the order feed.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Subscriber maintains a websocket connection to the upstream order feed
// and republishes its events on a channel.
type Subscriber struct {
	endpoint string
	token    func() string
	events   chan Event
}

// NewSubscriber builds a subscriber for one restaurant's order feed. The
// token func is called on every (re)connect so a refreshed upstream token
// is picked up automatically.
func NewSubscriber(baseURL, restaurantID string, token func() string) (*Subscriber, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/restaurants/" + restaurantID + "/orders"

	return &Subscriber{
		endpoint: u.String(),
		token:    token,
		events:   make(chan Event, 64),
	}, nil
}

// Events returns the channel the feed's events arrive on. The channel is
// closed when Run returns.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// Run connects and pumps events until ctx is canceled, reconnecting with
// exponential backoff on drops.
func (s *Subscriber) Run(ctx context.Context) {
	defer close(s.events)

	backoff := time.Second
	for {
		if err := s.pump(ctx); err != nil && ctx.Err() == nil {
			slog.Warn("order feed disconnected", "error", err, "retry_in", backoff)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// pump runs one connection: dial, ping loop, read loop.
func (s *Subscriber) pump(ctx context.Context) error {
	endpoint := s.endpoint + "?token=" + url.QueryEscape(s.token())
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial order feed: %w", err)
	}
	defer conn.Close()
	slog.Info("order feed connected")

	// Ping loop; also tears the connection down on ctx cancel so the read
	// loop unblocks.
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-ctx.Done():
				conn.Close()
				return
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var event Event
		if err := conn.ReadJSON(&event); err != nil {
			return fmt.Errorf("read order feed: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		select {
		case s.events <- event:
		default:
			// Feed consumers fell behind; drop rather than stall the pump.
			slog.Debug("order feed event dropped", "type", event.Type)
		}
	}
}
