package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kubedeck/kubedeck-backend/internal/document"
	"github.com/kubedeck/kubedeck-backend/internal/models"
)

// RunBatch applies one operation to every resource in the request,
// sequentially and independently: a failed item never stops the rest.
func (s *ConfigService) RunBatch(ctx context.Context, req models.BatchRequest, username string) (*models.BatchResult, error) {
	if len(req.Resources) == 0 {
		return nil, fmt.Errorf("batch request has no resources")
	}
	switch req.Operation {
	case models.BatchOpScale:
		if req.Replicas == nil {
			return nil, fmt.Errorf("scale batch requires replicas")
		}
	case models.BatchOpUpdateConfig:
		if len(req.Config) == 0 {
			return nil, fmt.Errorf("update_config batch requires a configuration")
		}
	default:
		return nil, fmt.Errorf("unknown batch operation %q", req.Operation)
	}

	result := &models.BatchResult{Timestamp: time.Now()}
	for _, ref := range req.Resources {
		item := models.BatchItemResult{Resource: ref}
		if err := s.runBatchItem(ctx, req, ref, username); err != nil {
			item.Message = err.Error()
			result.FailedCount++
		} else {
			item.Success = true
			item.Message = fmt.Sprintf("%s succeeded", req.Operation)
			result.SuccessCount++
		}
		result.Results = append(result.Results, item)
	}
	result.Success = result.FailedCount == 0

	s.record(ctx, "batch_"+req.Operation, models.ResourceRef{Type: "batch"}, username, result.Success, map[string]any{
		"total":   len(req.Resources),
		"failed":  result.FailedCount,
		"success": result.SuccessCount,
	})
	if s.broadcast != nil {
		s.broadcast.Broadcast(models.MsgBatchOperation, map[string]any{
			"operation":     req.Operation,
			"success_count": result.SuccessCount,
			"failed_count":  result.FailedCount,
			"user":          username,
		})
	}
	return result, nil
}

func (s *ConfigService) runBatchItem(ctx context.Context, req models.BatchRequest, ref models.ResourceRef, username string) error {
	var doc document.Document
	switch req.Operation {
	case models.BatchOpScale:
		if !models.ScalableResourceTypes[ref.Type] {
			return fmt.Errorf("%s cannot be scaled", ref.Type)
		}
		doc = document.Document{
			"spec": map[string]any{"replicas": int64(*req.Replicas)},
		}
	case models.BatchOpUpdateConfig:
		doc = req.Config
	}

	applied, err := s.UpdateConfig(ctx, ref, doc, false, models.StrategyMerge, username)
	if err != nil {
		return err
	}
	if !applied.Success {
		return fmt.Errorf("%s: %s", applied.Message, strings.Join(applied.ValidationErrors, "; "))
	}
	return nil
}
