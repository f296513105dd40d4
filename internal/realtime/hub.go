// Package realtime pushes alert events to connected dashboard websockets.
package realtime

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bhv-platform/bhv-go/internal/errors"
	"github.com/bhv-platform/bhv-go/internal/logger"
	"github.com/bhv-platform/bhv-go/internal/notification"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024

	clientSendBufferSize = 64
)

// ErrHubClosed is returned by Broadcast after Close.
var ErrHubClosed = errors.NewStd("realtime hub closed")

// Hub tracks connected clients and fans messages out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
	log     logger.Logger
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	userID string
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// wants reports whether the client should receive a message addressed to
// recipients. Anonymous dashboard clients receive everything; a user client
// only what names it.
func (c *client) wants(recipients []string) bool {
	return c.userID == "" || slices.Contains(recipients, c.userID)
}

// NewHub creates an empty hub.
func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		log:     log.Module("realtime"),
	}
}

// Broadcast queues msg for every interested client. A client whose buffer is
// full is disconnected. Broadcasting with no clients connected succeeds.
func (h *Hub) Broadcast(_ context.Context, msg notification.BroadcastMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return errors.New(err).
			Component("realtime").
			Category(errors.CategorySystem).
			Build()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}

	delivered := 0
	for c := range h.clients {
		if !c.wants(msg.RecipientIDs) {
			continue
		}
		select {
		case c.send <- data:
			delivered++
		default:
			h.log.Warn("dropping slow realtime client", logger.String("user_id", c.userID))
			delete(h.clients, c)
			c.close()
		}
	}
	h.log.Debug("broadcast queued",
		logger.String("event", msg.Event),
		logger.String("alert_id", msg.AlertID),
		logger.Int("clients", delivered))
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve registers conn and blocks until the connection ends or ctx is done.
// userID limits delivery to messages addressed to that user; an empty
// userID receives every message.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, userID string) {
	c := &client{
		conn:   conn,
		send:   make(chan []byte, clientSendBufferSize),
		userID: userID,
	}
	if !h.register(c) {
		_ = conn.Close()
		return
	}
	h.log.Info("realtime client connected",
		logger.String("user_id", userID),
		logger.Int("clients", h.ClientCount()))

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		h.writePump(c)
	}()

	// Closing the connection unblocks the read loop on shutdown.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	h.readLoop(c)
	h.unregister(c)
	<-writeDone
	_ = conn.Close()

	h.log.Info("realtime client disconnected", logger.String("user_id", userID))
}

// Close disconnects every client and rejects further broadcasts.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	c.close()
}

// readLoop discards client input and keeps the read deadline fresh.
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only writer on the connection.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				_ = c.conn.Close()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				_ = c.conn.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.conn.Close()
				return
			}
		}
	}
}
