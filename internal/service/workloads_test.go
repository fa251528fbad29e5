package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubedeck/kubedeck-backend/internal/models"
)

type fakeLister struct {
	mu    sync.Mutex
	calls int
	rows  []models.WorkloadInfo
}

func (f *fakeLister) ListDeployments(ctx context.Context, namespace, labelSelector string) ([]models.WorkloadInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.rows, nil
}

func (f *fakeLister) ListDaemonSets(ctx context.Context, namespace, labelSelector string) ([]models.WorkloadInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.rows, nil
}

func (f *fakeLister) ListNamespaces(ctx context.Context) ([]string, error) {
	return []string{"default", "kube-system"}, nil
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestListDeploymentsCaches(t *testing.T) {
	lister := &fakeLister{rows: []models.WorkloadInfo{{Name: "web", Namespace: "default"}}}
	svc := NewWorkloadService(lister, 16, time.Minute, nil, nil, nil)
	ctx := context.Background()

	first, err := svc.ListDeployments(ctx, "default", "")
	require.NoError(t, err)
	second, err := svc.ListDeployments(ctx, "default", "")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, lister.callCount(), "second call served from cache")

	// Different key misses.
	_, err = svc.ListDeployments(ctx, "other", "")
	require.NoError(t, err)
	assert.Equal(t, 2, lister.callCount())
}

func TestCacheKeySeparatesKindsAndSelectors(t *testing.T) {
	lister := &fakeLister{rows: []models.WorkloadInfo{{Name: "x"}}}
	svc := NewWorkloadService(lister, 16, time.Minute, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.ListDeployments(ctx, "default", "")
	require.NoError(t, err)
	_, err = svc.ListDaemonSets(ctx, "default", "")
	require.NoError(t, err)
	_, err = svc.ListDeployments(ctx, "default", "app=web")
	require.NoError(t, err)
	assert.Equal(t, 3, lister.callCount())
}

func TestInvalidateCacheBroadcasts(t *testing.T) {
	lister := &fakeLister{rows: []models.WorkloadInfo{{Name: "web"}}}
	bc := &fakeBroadcaster{}
	svc := NewWorkloadService(lister, 16, time.Minute, nil, bc, nil)
	ctx := context.Background()

	_, err := svc.ListDeployments(ctx, "default", "")
	require.NoError(t, err)

	svc.InvalidateCache()
	require.Len(t, bc.byType(models.MsgCacheInvalidated), 1)

	_, err = svc.ListDeployments(ctx, "default", "")
	require.NoError(t, err)
	assert.Equal(t, 2, lister.callCount(), "invalidated entries refetch")
}

func TestCacheStatsReportsOccupancy(t *testing.T) {
	lister := &fakeLister{rows: []models.WorkloadInfo{{Name: "web"}}}
	svc := NewWorkloadService(lister, 16, 30*time.Second, nil, nil, nil)
	ctx := context.Background()

	stats := svc.CacheStats()
	assert.Equal(t, 0, stats.Entries)
	assert.Equal(t, 16, stats.Capacity)
	assert.Equal(t, 30, stats.TTLSeconds)

	_, err := svc.ListDeployments(ctx, "default", "")
	require.NoError(t, err)
	assert.Equal(t, 1, svc.CacheStats().Entries)
}

func TestClearCachePattern(t *testing.T) {
	lister := &fakeLister{rows: []models.WorkloadInfo{{Name: "web"}}}
	bc := &fakeBroadcaster{}
	svc := NewWorkloadService(lister, 16, time.Minute, nil, bc, nil)
	ctx := context.Background()

	_, err := svc.ListDeployments(ctx, "default", "")
	require.NoError(t, err)
	_, err = svc.ListDaemonSets(ctx, "default", "")
	require.NoError(t, err)

	cleared := svc.ClearCache(ctx, "daemonset", "root")
	assert.Equal(t, 1, cleared)
	assert.Equal(t, 1, svc.CacheStats().Entries, "deployment entry survives")
	require.Len(t, bc.byType(models.MsgCacheInvalidated), 1)

	cleared = svc.ClearCache(ctx, "", "root")
	assert.Equal(t, 1, cleared)
	assert.Equal(t, 0, svc.CacheStats().Entries)
}

func TestRefreshCacheWarmsLists(t *testing.T) {
	lister := &fakeLister{rows: []models.WorkloadInfo{{Name: "web"}}}
	svc := NewWorkloadService(lister, 16, time.Minute, nil, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.RefreshCache(ctx, "", "default", "root"))
	assert.Equal(t, 2, lister.callCount(), "both kinds fetched fresh")
	assert.Equal(t, 2, svc.CacheStats().Entries)

	// The warmed entries serve subsequent reads.
	_, err := svc.ListDeployments(ctx, "default", "")
	require.NoError(t, err)
	assert.Equal(t, 2, lister.callCount())

	// A targeted refresh refetches even when an entry exists.
	require.NoError(t, svc.RefreshCache(ctx, "deployment", "default", "root"))
	assert.Equal(t, 3, lister.callCount())

	assert.Error(t, svc.RefreshCache(ctx, "service", "default", "root"))
}

func TestStats(t *testing.T) {
	lister := &fakeLister{rows: []models.WorkloadInfo{{Name: "a"}, {Name: "b"}}}
	svc := NewWorkloadService(lister, 16, time.Minute, nil, nil, nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Deployments)
	assert.Equal(t, 2, stats.DaemonSets)
	assert.Equal(t, 2, stats.Namespaces)
	assert.False(t, stats.GeneratedAt.IsZero())
}
