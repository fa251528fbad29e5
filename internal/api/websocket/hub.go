// Package websocket is the server side of the live update feed: a hub
// fans broadcast messages out to every connected dashboard client.
package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kubedeck/kubedeck-backend/internal/models"
	"github.com/kubedeck/kubedeck-backend/internal/pkg/metrics"
)

// Hub maintains the set of active clients and broadcasts live update
// frames to them.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// NewHub creates a hub. Run must be started for it to do anything.
func NewHub(ctx context.Context, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	hubCtx, cancel := context.WithCancel(ctx)
	return &Hub{
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		ctx:        hubCtx,
		cancel:     cancel,
		logger:     logger,
	}
}

// Run processes register, unregister and broadcast events until the
// hub is stopped.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.WebSocketConnections.Inc()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.WebSocketConnections.Dec()
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client buffer full, drop the connection.
					close(client.send)
					delete(h.clients, client)
					metrics.WebSocketConnections.Dec()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop shuts the hub down and disconnects every client.
func (h *Hub) Stop() {
	h.cancel()
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
		metrics.WebSocketConnections.Dec()
	}
}

// Broadcast sends a live update frame of the given type to every
// connected client. Unsendable frames are logged and dropped.
func (h *Hub) Broadcast(msgType string, data map[string]any) {
	frame, err := models.LiveMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now(),
	}.Encode()
	if err != nil {
		h.logger.Error("failed to encode live update frame", "type", msgType, "error", err)
		return
	}
	select {
	case h.broadcast <- frame:
	case <-h.ctx.Done():
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
