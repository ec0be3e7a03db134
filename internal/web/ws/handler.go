// Package ws upgrades HTTP requests to websocket connections and bridges
// them to the session dispatcher.
package ws

import (
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/towerduel/internal/dependencies/random"
	"github.com/mcoot/towerduel/internal/model"
	"github.com/mcoot/towerduel/internal/protocol"
	"github.com/mcoot/towerduel/internal/services/session"
)

// EventSink accepts events from connections
type EventSink interface {
	Submit(e session.Event)
}

// Config holds websocket handler settings
type Config struct {
	// AllowedOrigins restricts the Origin header on upgrade.
	// If empty, any origin is accepted.
	AllowedOrigins []string
}

// Handler upgrades requests and runs one read loop per connection
type Handler struct {
	events   EventSink
	random   random.Random
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[model.UserID]*Client
}

// NewHandler creates a websocket handler that feeds events into sink
func NewHandler(sink EventSink, random random.Random, logger *slog.Logger, cfg Config) *Handler {
	h := &Handler{
		events:  sink,
		random:  random,
		logger:  logger.With(slog.String("component", "ws")),
		clients: make(map[model.UserID]*Client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(cfg.AllowedOrigins) == 0 {
				return true
			}
			return slices.Contains(cfg.AllowedOrigins, r.Header.Get("Origin"))
		},
	}
	return h
}

// ServeHTTP handles the connection until the peer goes away
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error
		h.logger.Warn("ws upgrade failed", slog.Any("error", err))
		return
	}

	id := model.UserID(h.random.UUID())
	client := newClient(id, conn, h.logger)
	connectedAt := time.Now()
	h.track(client)
	defer h.untrack(id)

	h.events.Submit(session.Connect{User: id, Outbox: client})
	h.logger.Info("ws client connected", slog.String("user_id", string(id)))

	go client.writePump()
	h.readLoop(client)

	h.events.Submit(session.Disconnect{User: id})
	client.Close()
	h.logger.Info("ws client disconnected",
		slog.String("user_id", string(id)),
		slog.Duration("connection_duration", time.Since(connectedAt)))
}

// Connections returns the number of open websocket connections
func (h *Handler) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll sends a close frame to every open connection. Their read loops
// then end and submit the usual disconnect events.
func (h *Handler) CloseAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
	h.logger.Info("closed ws connections", slog.Int("count", len(clients)))
}

func (h *Handler) track(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

func (h *Handler) untrack(id model.UserID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, id)
}

// readLoop decodes inbound frames into events until the connection closes,
// a read fails, or the client asks to disconnect
func (h *Handler) readLoop(client *Client) {
	conn := client.conn
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("ws read failed",
					slog.String("user_id", string(client.id)),
					slog.Any("error", err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		cmd, err := protocol.DecodeCommand(data)
		if err != nil {
			h.logger.Debug("ws frame dropped",
				slog.String("user_id", string(client.id)),
				slog.Any("error", err))
			continue
		}

		event, ok := session.EventFromCommand(client.id, cmd)
		if !ok {
			continue
		}
		if _, leaving := event.(session.Disconnect); leaving {
			return
		}
		h.events.Submit(event)
	}
}
