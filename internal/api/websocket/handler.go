package websocket

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is enforced by the HTTP middleware in front of us.
		return true
	},
}

// Handler upgrades HTTP requests to live feed connections.
type Handler struct {
	hub    *Hub
	ctx    context.Context
	logger *slog.Logger
}

// NewHandler creates a Handler bound to the hub.
func NewHandler(ctx context.Context, hub *Hub, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{hub: hub, ctx: ctx, logger: logger}
}

// ServeWS upgrades the request and starts the client pumps.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	clientID := uuid.NewString()
	client := NewClient(h.ctx, h.hub, conn, clientID)

	h.hub.register <- client

	go client.WritePump()
	go client.ReadPump()

	h.logger.Info("live feed client connected", "client", clientID)
}
