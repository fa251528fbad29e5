package repository

import (
	"context"

	"github.com/kubedeck/kubedeck-backend/internal/models"
)

// UserRepository defines dashboard user data access.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// AuditLogRepository defines append-only audit log access.
type AuditLogRepository interface {
	CreateAuditLog(ctx context.Context, entry *models.AuditLogEntry) error
	ListAuditLogs(ctx context.Context, filter models.AuditLogFilter) ([]*models.AuditLogEntry, error)
}

// RollbackRepository stores pre-apply snapshots keyed by rollback token.
type RollbackRepository interface {
	SaveRollbackSnapshot(ctx context.Context, snap *models.RollbackSnapshot) error
	GetRollbackSnapshot(ctx context.Context, key string) (*models.RollbackSnapshot, error)
}
