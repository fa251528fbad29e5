// Package service orchestrates cluster access, persistence, the live
// feed and auditing behind the REST handlers.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kubedeck/kubedeck-backend/internal/audit"
	"github.com/kubedeck/kubedeck-backend/internal/models"
	"github.com/kubedeck/kubedeck-backend/internal/pkg/metrics"
)

// WorkloadLister is the cluster surface the workload service needs.
// *k8s.Client satisfies it; tests substitute a fake.
type WorkloadLister interface {
	ListDeployments(ctx context.Context, namespace, labelSelector string) ([]models.WorkloadInfo, error)
	ListDaemonSets(ctx context.Context, namespace, labelSelector string) ([]models.WorkloadInfo, error)
	ListNamespaces(ctx context.Context) ([]string, error)
}

// WorkloadService serves the list views, with a short-TTL cache so
// dashboard refreshes do not hammer the API server.
type WorkloadService struct {
	cluster   WorkloadLister
	cache     *expirable.LRU[string, []models.WorkloadInfo]
	capacity  int
	ttl       time.Duration
	audit     *audit.Recorder
	broadcast audit.Broadcaster
	logger    *slog.Logger
}

// NewWorkloadService builds a WorkloadService. size and ttl configure
// the list cache; ttl <= 0 disables expiry. rec and broadcast may be
// nil; nil collaborators are skipped.
func NewWorkloadService(cluster WorkloadLister, size int, ttl time.Duration, rec *audit.Recorder, broadcast audit.Broadcaster, logger *slog.Logger) *WorkloadService {
	if logger == nil {
		logger = slog.Default()
	}
	if size <= 0 {
		size = 128
	}
	return &WorkloadService{
		cluster:   cluster,
		cache:     expirable.NewLRU[string, []models.WorkloadInfo](size, nil, ttl),
		capacity:  size,
		ttl:       ttl,
		audit:     rec,
		broadcast: broadcast,
		logger:    logger,
	}
}

// ListDeployments returns cached deployment rows for the namespace.
func (s *WorkloadService) ListDeployments(ctx context.Context, namespace, labelSelector string) ([]models.WorkloadInfo, error) {
	return s.listCached(ctx, "deployment", namespace, labelSelector, s.cluster.ListDeployments)
}

// ListDaemonSets returns cached daemonset rows for the namespace.
func (s *WorkloadService) ListDaemonSets(ctx context.Context, namespace, labelSelector string) ([]models.WorkloadInfo, error) {
	return s.listCached(ctx, "daemonset", namespace, labelSelector, s.cluster.ListDaemonSets)
}

func (s *WorkloadService) listCached(ctx context.Context, kind, namespace, labelSelector string, fetch func(context.Context, string, string) ([]models.WorkloadInfo, error)) ([]models.WorkloadInfo, error) {
	key := fmt.Sprintf("%s:%s:%s", kind, namespace, labelSelector)
	if rows, ok := s.cache.Get(key); ok {
		metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
		return rows, nil
	}
	metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()

	rows, err := fetch(ctx, namespace, labelSelector)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, rows)
	return rows, nil
}

// ListNamespaces returns the cluster's namespace names, uncached.
func (s *WorkloadService) ListNamespaces(ctx context.Context) ([]string, error) {
	return s.cluster.ListNamespaces(ctx)
}

// InvalidateCache drops every cached list and tells connected clients
// to refetch.
func (s *WorkloadService) InvalidateCache() {
	s.cache.Purge()
	if s.broadcast != nil {
		s.broadcast.Broadcast(models.MsgCacheInvalidated, map[string]any{
			"scope": "workloads",
		})
	}
}

// CacheStats describes the workload list cache.
type CacheStats struct {
	Entries    int `json:"entries"`
	Capacity   int `json:"capacity"`
	TTLSeconds int `json:"ttl_seconds"`
}

// CacheStats reports the current cache occupancy and its configuration.
func (s *WorkloadService) CacheStats() CacheStats {
	return CacheStats{
		Entries:    s.cache.Len(),
		Capacity:   s.capacity,
		TTLSeconds: int(s.ttl / time.Second),
	}
}

// ClearCache drops cached lists and tells connected clients to refetch.
// A non-empty pattern only drops keys containing it; keys have the form
// kind:namespace:labelSelector.
func (s *WorkloadService) ClearCache(ctx context.Context, pattern, username string) int {
	var cleared int
	if pattern == "" {
		cleared = s.cache.Len()
		s.cache.Purge()
	} else {
		for _, key := range s.cache.Keys() {
			if strings.Contains(key, pattern) && s.cache.Remove(key) {
				cleared++
			}
		}
	}
	if s.broadcast != nil {
		s.broadcast.Broadcast(models.MsgCacheInvalidated, map[string]any{
			"scope": "workloads",
		})
	}
	if s.audit != nil {
		s.audit.Record(ctx, "cache_clear", "cache", username, true, map[string]any{
			"cleared_count": cleared,
			"pattern":       pattern,
		})
	}
	return cleared
}

// RefreshCache fetches fresh list data so the next reads are warm.
// An empty resourceType refreshes every cached kind.
func (s *WorkloadService) RefreshCache(ctx context.Context, resourceType, namespace, username string) error {
	refresh := func(kind string, fetch func(context.Context, string, string) ([]models.WorkloadInfo, error)) error {
		key := fmt.Sprintf("%s:%s:", kind, namespace)
		s.cache.Remove(key)
		_, err := s.listCached(ctx, kind, namespace, "", fetch)
		return err
	}

	var err error
	switch resourceType {
	case "deployment":
		err = refresh("deployment", s.cluster.ListDeployments)
	case "daemonset":
		err = refresh("daemonset", s.cluster.ListDaemonSets)
	case "":
		if err = refresh("deployment", s.cluster.ListDeployments); err == nil {
			err = refresh("daemonset", s.cluster.ListDaemonSets)
		}
	default:
		err = fmt.Errorf("unknown resource type %q", resourceType)
	}

	if s.audit != nil {
		details := map[string]any{"resource_type": resourceType, "namespace": namespace}
		if err != nil {
			details["error"] = err.Error()
		}
		s.audit.Record(ctx, "cache_refresh", "cache", username, err == nil, details)
	}
	return err
}
