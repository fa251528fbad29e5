package models

import (
	"encoding/json"
	"time"
)

// Live update message types carried over the WebSocket feed. Broadcast
// to every connected client; never addressed to a specific session.
const (
	MsgResourceUpdated  = "resource_updated"
	MsgAuditLog         = "audit_log"
	MsgBatchOperation   = "batch_operation"
	MsgCacheInvalidated = "cache_invalidated"
	MsgPing             = "ping"
	MsgPong             = "pong"
)

// LiveMessage is one frame of the live update wire protocol:
// {type, data, timestamp} as JSON text.
type LiveMessage struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Encode renders the message as a wire frame.
func (m LiveMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}
