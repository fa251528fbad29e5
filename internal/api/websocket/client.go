package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kubedeck/kubedeck-backend/internal/models"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait).
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024
)

// Client is one connected dashboard session.
type Client struct {
	conn *websocket.Conn

	// Buffered channel of outbound frames.
	send chan []byte

	hub *Hub

	ctx    context.Context
	cancel context.CancelFunc

	id     string
	logger *slog.Logger
}

// NewClient wraps an upgraded connection.
func NewClient(ctx context.Context, hub *Hub, conn *websocket.Conn, id string) *Client {
	clientCtx, cancel := context.WithCancel(ctx)
	return &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		hub:    hub,
		ctx:    clientCtx,
		cancel: cancel,
		id:     id,
		logger: hub.logger.With("client", id),
	}
}

// ReadPump reads frames from the peer until the connection drops. The
// only inbound frame the protocol defines is the application-level
// ping, answered with a pong to this client alone.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			_, message, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
					c.logger.Warn("websocket read failed", "error", err)
				}
				return
			}
			c.handleMessage(message)
		}
	}
}

// WritePump writes outbound frames and transport-level pings until the
// hub closes the send channel or the peer goes away.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return

		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close tears the client down.
func (c *Client) Close() {
	c.cancel()
}

func (c *Client) handleMessage(message []byte) {
	var msg models.LiveMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("dropping unparseable client frame", "error", err)
		return
	}
	switch msg.Type {
	case models.MsgPing:
		pong, err := models.LiveMessage{Type: models.MsgPong, Timestamp: time.Now()}.Encode()
		if err != nil {
			return
		}
		select {
		case c.send <- pong:
		default:
		}
	default:
		c.logger.Debug("ignoring client frame", "type", msg.Type)
	}
}
