package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubedeck/kubedeck-backend/internal/models"
	"github.com/kubedeck/kubedeck-backend/migrations"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	require.NoError(t, repo.RunMigrations(migrations.FS))
	return repo
}

func TestUserRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user := &models.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hashed",
		Role:         "admin",
		IsActive:     true,
	}
	require.NoError(t, repo.CreateUser(ctx, user))
	assert.NotEmpty(t, user.ID, "ID is assigned on insert")

	byID, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.Equal(t, "admin", byID.Role)
	assert.True(t, byID.IsActive)

	byName, err := repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	_, err = repo.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateUsernameRejected(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := &models.User{Username: "alice", Email: "a@example.com", PasswordHash: "x", Role: "user", IsActive: true}
	require.NoError(t, repo.CreateUser(ctx, first))

	dup := &models.User{Username: "alice", Email: "b@example.com", PasswordHash: "x", Role: "user", IsActive: true}
	assert.Error(t, repo.CreateUser(ctx, dup))
}

func TestAuditLogFiltering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	fail := false
	entries := []*models.AuditLogEntry{
		{Timestamp: base, Operation: "update_config", Resource: "deployment:default:web", Username: "alice", Success: true},
		{Timestamp: base.Add(time.Minute), Operation: "rollback", Resource: "deployment:default:web", Username: "bob", Success: true},
		{Timestamp: base.Add(2 * time.Minute), Operation: "update_config", Resource: "service:default:api", Username: "alice", Success: fail},
	}
	for _, e := range entries {
		require.NoError(t, repo.CreateAuditLog(ctx, e))
	}

	all, err := repo.ListAuditLogs(ctx, models.AuditLogFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "update_config", all[0].Operation, "newest first")
	assert.Equal(t, "service:default:api", all[0].Resource)

	byUser, err := repo.ListAuditLogs(ctx, models.AuditLogFilter{Username: "alice"})
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	byOp, err := repo.ListAuditLogs(ctx, models.AuditLogFilter{Operation: "rollback"})
	require.NoError(t, err)
	assert.Len(t, byOp, 1)

	byResource, err := repo.ListAuditLogs(ctx, models.AuditLogFilter{Resource: "service:"})
	require.NoError(t, err)
	assert.Len(t, byResource, 1)

	failedOnly := false
	byFailure, err := repo.ListAuditLogs(ctx, models.AuditLogFilter{Success: &failedOnly})
	require.NoError(t, err)
	require.Len(t, byFailure, 1)
	assert.Equal(t, "alice", byFailure[0].Username)

	limited, err := repo.ListAuditLogs(ctx, models.AuditLogFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestAuditLogDefaultLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 120; i++ {
		require.NoError(t, repo.CreateAuditLog(ctx, &models.AuditLogEntry{
			Timestamp: time.Now().Add(time.Duration(i) * time.Second),
			Operation: "update_config",
			Resource:  fmt.Sprintf("deployment:default:app-%d", i),
			Username:  "alice",
			Success:   true,
		}))
	}
	entries, err := repo.ListAuditLogs(ctx, models.AuditLogFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 100, "default limit caps unbounded listings")
}

func TestRollbackSnapshotRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	snap := &models.RollbackSnapshot{
		ResourceType: "deployment",
		Namespace:    "default",
		Name:         "web",
		Config:       `{"spec":{"replicas":3}}`,
		Username:     "alice",
	}
	require.NoError(t, repo.SaveRollbackSnapshot(ctx, snap))
	assert.NotEmpty(t, snap.Key)

	got, err := repo.GetRollbackSnapshot(ctx, snap.Key)
	require.NoError(t, err)
	assert.Equal(t, "deployment", got.ResourceType)
	assert.Equal(t, snap.Config, got.Config)

	_, err = repo.GetRollbackSnapshot(ctx, "missing-key")
	assert.ErrorIs(t, err, ErrNotFound)
}
