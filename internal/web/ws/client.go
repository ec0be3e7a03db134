package ws

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/towerduel/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Send pings at this period; must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size
	maxMessageSize = 8 * 1024

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client is the outbound half of a websocket connection. It is the user's
// Outbox: deliveries are queued and written by a dedicated goroutine.
type Client struct {
	id     model.UserID
	conn   *websocket.Conn
	logger *slog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// Ensure Client implements Outbox
var _ model.Outbox = (*Client)(nil)

func newClient(id model.UserID, conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		id:     id,
		conn:   conn,
		logger: logger.With(slog.String("user_id", string(id))),
		send:   make(chan []byte, sendBufferSize),
	}
}

// ID returns the user id assigned at upgrade
func (c *Client) ID() model.UserID {
	return c.id
}

// Deliver queues payload for writing. It never blocks: a closed client or a
// full buffer fails with model.ErrDeliveryFailed.
func (c *Client) Deliver(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("%w: connection closed", model.ErrDeliveryFailed)
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return fmt.Errorf("%w: send buffer full", model.ErrDeliveryFailed)
	}
}

// Close stops accepting deliveries and lets the write pump finish
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// writePump writes queued frames and keepalive pings until the client is
// closed or a write fails. It owns closing the connection, and a failed write
// closes the client so later deliveries fail at once.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("ws write failed", slog.Any("error", err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("ws ping failed", slog.Any("error", err))
				return
			}
		}
	}
}
