package models

import (
	"time"

	"github.com/kubedeck/kubedeck-backend/internal/document"
)

// Batch operation names.
const (
	BatchOpScale        = "scale"
	BatchOpUpdateConfig = "update_config"
)

// BatchRequest applies one operation to several resources in turn.
type BatchRequest struct {
	Resources []ResourceRef     `json:"resources"`
	Operation string            `json:"operation"`
	Replicas  *int32            `json:"replicas,omitempty"`
	Config    document.Document `json:"configuration,omitempty"`
}

// BatchItemResult is the outcome for one resource of a batch.
type BatchItemResult struct {
	Resource ResourceRef `json:"resource"`
	Success  bool        `json:"success"`
	Message  string      `json:"message"`
}

// BatchResult summarizes a whole batch run. Success means every item
// succeeded.
type BatchResult struct {
	Success      bool              `json:"success"`
	Results      []BatchItemResult `json:"results"`
	SuccessCount int               `json:"success_count"`
	FailedCount  int               `json:"failed_count"`
	Timestamp    time.Time         `json:"timestamp"`
}
