// Package audit records every mutating dashboard operation: persisted
// append-only, and broadcast to live update clients as it happens.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/kubedeck/kubedeck-backend/internal/models"
	"github.com/kubedeck/kubedeck-backend/internal/repository"
)

// Broadcaster pushes a live update message to all connected clients.
// The websocket hub implements it.
type Broadcaster interface {
	Broadcast(msgType string, data map[string]any)
}

// Recorder writes audit entries and fans them out over the live feed.
type Recorder struct {
	repo      repository.AuditLogRepository
	broadcast Broadcaster
	logger    *slog.Logger
}

// NewRecorder builds a Recorder. repo and broadcast may be nil in
// tests; a nil component is skipped.
func NewRecorder(repo repository.AuditLogRepository, broadcast Broadcaster, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{repo: repo, broadcast: broadcast, logger: logger}
}

// Record appends one audit entry. Failures to persist are logged, not
// propagated: audit must never take down the operation it describes.
func (r *Recorder) Record(ctx context.Context, operation, resource, username string, success bool, details map[string]any) {
	entry := &models.AuditLogEntry{
		Timestamp: time.Now(),
		Operation: operation,
		Resource:  resource,
		Username:  username,
		Success:   success,
	}
	if len(details) > 0 {
		if b, err := json.Marshal(details); err == nil {
			entry.Details = string(b)
		}
	}
	if r.repo != nil {
		if err := r.repo.CreateAuditLog(ctx, entry); err != nil {
			r.logger.Error("failed to persist audit entry", "operation", operation, "error", err)
		}
	}
	if r.broadcast != nil {
		r.broadcast.Broadcast(models.MsgAuditLog, map[string]any{
			"id":        entry.ID,
			"operation": operation,
			"resource":  resource,
			"user":      username,
			"success":   success,
		})
	}
	r.logger.Info("audit", "operation", operation, "resource", resource, "user", username, "success", success)
}
