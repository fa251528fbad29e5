package models

import (
	"fmt"
	"time"

	"github.com/kubedeck/kubedeck-backend/internal/document/diff"
)

// ResourceRef identifies one editable resource. It is immutable once an
// editing session starts.
type ResourceRef struct {
	Type      string `json:"resource_type"`
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

func (r ResourceRef) String() string {
	return fmt.Sprintf("%s:%s:%s", r.Type, r.Namespace, r.Name)
}

// SupportedResourceTypes are the resource types the config editor can
// open. Anything else is rejected before reaching the cluster.
var SupportedResourceTypes = map[string]bool{
	"deployment":  true,
	"daemonset":   true,
	"statefulset": true,
	"service":     true,
	"configmap":   true,
	"secret":      true,
}

// ScalableResourceTypes are the kinds with a spec.replicas field.
var ScalableResourceTypes = map[string]bool{
	"deployment":  true,
	"statefulset": true,
}

// UpdateStrategy selects how a PutConfig body is combined with the
// live object.
type UpdateStrategy string

const (
	StrategyMerge   UpdateStrategy = "merge"
	StrategyReplace UpdateStrategy = "replace"
)

// ApplyResult is the outcome of a configuration update (dry-run or
// real). RollbackKey is set only on a successful non-dry-run apply.
type ApplyResult struct {
	Success          bool          `json:"success"`
	Message          string        `json:"message"`
	AppliedChanges   []diff.Change `json:"applied_changes"`
	RollbackKey      string        `json:"rollback_key,omitempty"`
	ValidationErrors []string      `json:"validation_errors"`
	Timestamp        time.Time     `json:"timestamp"`
	User             string        `json:"user,omitempty"`
	ResourceVersion  string        `json:"resource_version,omitempty"`
	DryRun           bool          `json:"dry_run"`
}

// WorkloadInfo is one row in the resource list view.
type WorkloadInfo struct {
	Name        string            `json:"name"`
	Namespace   string            `json:"namespace"`
	Created     time.Time         `json:"created"`
	Status      map[string]int32  `json:"status"`
	Labels      map[string]string `json:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
}
