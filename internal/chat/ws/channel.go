// Package ws is the gorilla/websocket implementation of the chat
// transport: one socket per conversation, JSON frames in both directions.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/avlasenko/taxikit/internal/api"
	"github.com/avlasenko/taxikit/internal/domain"
)

const writeTimeout = 10 * time.Second

// sendFrame is the only outbound frame shape the backend accepts.
type sendFrame struct {
	Message string `json:"message"`
}

// Channel is one live websocket conversation. Inbound frames are decoded
// and handed to the receive callback in arrival order; the read loop runs
// on a single goroutine so ordering is preserved.
type Channel struct {
	conn *websocket.Conn
	log  *slog.Logger

	writeMu sync.Mutex
	closed  chan struct{}
	once    sync.Once
}

// Dial opens the conversation socket at url.
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Channel, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dialing chat socket: %v", api.ErrNetwork, err)
	}
	return &Channel{
		conn:   conn,
		log:    logger,
		closed: make(chan struct{}),
	}, nil
}

// Send transmits one message frame.
func (c *Channel) Send(ctx context.Context, text string) error {
	data, err := json.Marshal(sendFrame{Message: text})
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("%w: %v", api.ErrNetwork, err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("%w: %v", api.ErrNetwork, err)
	}
	return nil
}

// Listen reads frames until the socket closes, invoking receive for
// every decoded message in arrival order. Undecodable frames are logged
// and skipped. Returns nil on a clean close.
func (c *Channel) Listen(receive func(domain.ChatMessage)) error {
	defer c.markClosed()
	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			select {
			case <-c.closed:
				return nil
			default:
			}
			return fmt.Errorf("%w: reading chat socket: %v", api.ErrNetwork, err)
		}

		msg, err := api.ParseInboundMessage(frame)
		if err != nil {
			c.log.Warn("dropping undecodable chat frame", "err", err)
			continue
		}
		receive(msg)
	}
}

// Close shuts the socket down. Safe to call more than once.
func (c *Channel) Close() error {
	c.markClosed()
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *Channel) markClosed() {
	c.once.Do(func() { close(c.closed) })
}
