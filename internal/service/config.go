package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kubedeck/kubedeck-backend/internal/audit"
	"github.com/kubedeck/kubedeck-backend/internal/document"
	"github.com/kubedeck/kubedeck-backend/internal/document/diff"
	"github.com/kubedeck/kubedeck-backend/internal/document/validation"
	"github.com/kubedeck/kubedeck-backend/internal/models"
	"github.com/kubedeck/kubedeck-backend/internal/pkg/metrics"
	"github.com/kubedeck/kubedeck-backend/internal/repository"
)

// ErrUnsupportedResourceType rejects a ref before any cluster call.
type ErrUnsupportedResourceType struct{ Type string }

func (e *ErrUnsupportedResourceType) Error() string {
	return fmt.Sprintf("unsupported resource type %q", e.Type)
}

// ConfigGateway is the cluster surface for configuration reads and
// writes. *k8s.Client satisfies it.
type ConfigGateway interface {
	GetConfig(ctx context.Context, ref models.ResourceRef) (document.Document, error)
	PutConfig(ctx context.Context, ref models.ResourceRef, doc document.Document, dryRun bool, strategy models.UpdateStrategy) (updated, previous document.Document, resourceVersion string, err error)
}

// CacheInvalidator drops stale list caches after a write.
type CacheInvalidator interface{ InvalidateCache() }

// ConfigService implements the configuration update pipeline: validate,
// apply (dry-run or real), record a rollback snapshot, audit, and fan
// the change out to live clients.
type ConfigService struct {
	cluster    ConfigGateway
	rollbacks  repository.RollbackRepository
	audit      *audit.Recorder
	broadcast  audit.Broadcaster
	invalidate CacheInvalidator
	logger     *slog.Logger
}

// NewConfigService builds a ConfigService. Any collaborator except
// cluster may be nil; nil collaborators are skipped.
func NewConfigService(cluster ConfigGateway, rollbacks repository.RollbackRepository, rec *audit.Recorder, broadcast audit.Broadcaster, invalidate CacheInvalidator, logger *slog.Logger) *ConfigService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigService{
		cluster:    cluster,
		rollbacks:  rollbacks,
		audit:      rec,
		broadcast:  broadcast,
		invalidate: invalidate,
		logger:     logger,
	}
}

// GetConfig fetches the live configuration of one resource.
func (s *ConfigService) GetConfig(ctx context.Context, ref models.ResourceRef) (document.Document, error) {
	if !models.SupportedResourceTypes[ref.Type] {
		return nil, &ErrUnsupportedResourceType{Type: ref.Type}
	}
	return s.cluster.GetConfig(ctx, ref)
}

// Validate runs the structural rules against a configuration without
// touching the cluster.
func (s *ConfigService) Validate(resourceType string, doc document.Document) []validation.Issue {
	return validation.Validate(resourceType, doc)
}

// Diff computes the field-level changes between two configurations.
func (s *ConfigService) Diff(original, updated document.Document) []diff.Change {
	return diff.Diff(original, updated)
}

// UpdateConfig applies a configuration to the cluster. Validation
// issues stop the apply and come back in the result rather than as an
// error. A successful non-dry-run apply stores a rollback snapshot of
// the previous configuration and returns its key.
func (s *ConfigService) UpdateConfig(ctx context.Context, ref models.ResourceRef, doc document.Document, dryRun bool, strategy models.UpdateStrategy, username string) (*models.ApplyResult, error) {
	if !models.SupportedResourceTypes[ref.Type] {
		return nil, &ErrUnsupportedResourceType{Type: ref.Type}
	}
	if strategy == "" {
		strategy = models.StrategyMerge
	}

	result := &models.ApplyResult{
		Timestamp:        time.Now(),
		User:             username,
		DryRun:           dryRun,
		ValidationErrors: []string{},
	}

	if issues := validation.Validate(ref.Type, doc); len(issues) > 0 {
		for _, issue := range issues {
			result.ValidationErrors = append(result.ValidationErrors, issue.String())
		}
		result.Message = "configuration failed validation"
		metrics.ConfigAppliesTotal.WithLabelValues(ref.Type, fmt.Sprint(dryRun), "invalid").Inc()
		return result, nil
	}

	updated, previous, resourceVersion, err := s.cluster.PutConfig(ctx, ref, doc, dryRun, strategy)
	if err != nil {
		if !dryRun {
			s.record(ctx, "update_config", ref, username, false, map[string]any{"error": err.Error()})
		}
		metrics.ConfigAppliesTotal.WithLabelValues(ref.Type, fmt.Sprint(dryRun), "error").Inc()
		return nil, err
	}

	result.Success = true
	result.AppliedChanges = diff.Diff(previous, updated)
	result.ResourceVersion = resourceVersion

	if dryRun {
		result.Message = fmt.Sprintf("dry run for %s succeeded", ref)
		metrics.ConfigAppliesTotal.WithLabelValues(ref.Type, "true", "ok").Inc()
		return result, nil
	}

	result.Message = fmt.Sprintf("configuration applied to %s", ref)
	result.RollbackKey = s.saveSnapshot(ctx, ref, previous, username)
	metrics.ConfigAppliesTotal.WithLabelValues(ref.Type, "false", "ok").Inc()

	s.record(ctx, "update_config", ref, username, true, map[string]any{
		"changes":  len(result.AppliedChanges),
		"strategy": string(strategy),
	})
	s.notifyUpdated(ref, username)
	return result, nil
}

// Scale sets spec.replicas on one workload through a merge apply.
func (s *ConfigService) Scale(ctx context.Context, ref models.ResourceRef, replicas int32, username string) (*models.ApplyResult, error) {
	if !models.ScalableResourceTypes[ref.Type] {
		return nil, fmt.Errorf("%s cannot be scaled", ref.Type)
	}
	doc := document.Document{
		"spec": map[string]any{"replicas": int64(replicas)},
	}
	result, err := s.UpdateConfig(ctx, ref, doc, false, models.StrategyMerge, username)
	if err != nil {
		return nil, err
	}
	if result.Success {
		result.Message = fmt.Sprintf("scaled %s to %d replicas", ref, replicas)
	}
	return result, nil
}

// Rollback restores the configuration captured under key. The restore
// is a replace-strategy apply and itself produces a new snapshot, so
// rollbacks can be rolled back.
func (s *ConfigService) Rollback(ctx context.Context, key, username string) (*models.ApplyResult, error) {
	if s.rollbacks == nil {
		return nil, fmt.Errorf("rollback storage not configured")
	}
	snap, err := s.rollbacks.GetRollbackSnapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	var doc document.Document
	if err := json.Unmarshal([]byte(snap.Config), &doc); err != nil {
		return nil, fmt.Errorf("decode rollback snapshot %s: %w", key, err)
	}
	ref := models.ResourceRef{Type: snap.ResourceType, Namespace: snap.Namespace, Name: snap.Name}

	result, err := s.UpdateConfig(ctx, ref, document.Normalize(doc), false, models.StrategyReplace, username)
	if err != nil {
		return nil, err
	}
	if result.Success {
		result.Message = fmt.Sprintf("rolled back %s to snapshot %s", ref, key)
		s.record(ctx, "rollback", ref, username, true, map[string]any{"key": key})
	}
	return result, nil
}

func (s *ConfigService) saveSnapshot(ctx context.Context, ref models.ResourceRef, previous document.Document, username string) string {
	if s.rollbacks == nil {
		return ""
	}
	blob, err := json.Marshal(previous)
	if err != nil {
		s.logger.Error("failed to encode rollback snapshot", "resource", ref.String(), "error", err)
		return ""
	}
	snap := &models.RollbackSnapshot{
		Key:          uuid.NewString(),
		ResourceType: ref.Type,
		Namespace:    ref.Namespace,
		Name:         ref.Name,
		Config:       string(blob),
		Username:     username,
		CreatedAt:    time.Now(),
	}
	if err := s.rollbacks.SaveRollbackSnapshot(ctx, snap); err != nil {
		s.logger.Error("failed to store rollback snapshot", "resource", ref.String(), "error", err)
		return ""
	}
	return snap.Key
}

func (s *ConfigService) record(ctx context.Context, operation string, ref models.ResourceRef, username string, success bool, details map[string]any) {
	if s.audit != nil {
		s.audit.Record(ctx, operation, ref.String(), username, success, details)
	}
}

func (s *ConfigService) notifyUpdated(ref models.ResourceRef, username string) {
	if s.broadcast != nil {
		s.broadcast.Broadcast(models.MsgResourceUpdated, map[string]any{
			"resource_type": ref.Type,
			"namespace":     ref.Namespace,
			"name":          ref.Name,
			"user":          username,
			"success":       true,
		})
	}
	if s.invalidate != nil {
		s.invalidate.InvalidateCache()
	}
}
