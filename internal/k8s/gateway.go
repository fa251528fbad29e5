package k8s

import (
	"context"
	"encoding/json"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/kubedeck/kubedeck-backend/internal/document"
	"github.com/kubedeck/kubedeck-backend/internal/models"
)

// gvrFor maps editor resource types onto group/version/resource.
func gvrFor(resourceType string) (schema.GroupVersionResource, error) {
	switch resourceType {
	case "deployment":
		return schema.GroupVersionResource{Group: "apps", Version: "v1", Resource: "deployments"}, nil
	case "daemonset":
		return schema.GroupVersionResource{Group: "apps", Version: "v1", Resource: "daemonsets"}, nil
	case "statefulset":
		return schema.GroupVersionResource{Group: "apps", Version: "v1", Resource: "statefulsets"}, nil
	case "service":
		return schema.GroupVersionResource{Version: "v1", Resource: "services"}, nil
	case "configmap":
		return schema.GroupVersionResource{Version: "v1", Resource: "configmaps"}, nil
	case "secret":
		return schema.GroupVersionResource{Version: "v1", Resource: "secrets"}, nil
	default:
		return schema.GroupVersionResource{}, fmt.Errorf("unsupported resource type %q", resourceType)
	}
}

// readOnlyMetadataFields are stripped before a document is handed to
// the editor or written back; the API server owns them.
var readOnlyMetadataFields = []string{
	"uid", "resourceVersion", "generation", "creationTimestamp",
	"deletionTimestamp", "deletionGracePeriodSeconds", "selfLink",
	"managedFields",
}

// sanitize strips status and read-only metadata from a live object.
func sanitize(obj map[string]any) document.Document {
	doc := document.DeepCopy(document.Document(obj))
	delete(doc, "status")
	if meta, ok := doc["metadata"].(map[string]any); ok {
		for _, f := range readOnlyMetadataFields {
			delete(meta, f)
		}
	}
	return doc
}

// GetConfig returns the sanitized live configuration of the resource.
func (c *Client) GetConfig(ctx context.Context, ref models.ResourceRef) (document.Document, error) {
	gvr, err := gvrFor(ref.Type)
	if err != nil {
		return nil, err
	}
	if err := c.waitRateLimit(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var obj *unstructured.Unstructured
	err = doWithRetry(ctx, defaultRetryAttempts, func() error {
		var getErr error
		obj, getErr = c.Dynamic.Resource(gvr).Namespace(ref.Namespace).Get(ctx, ref.Name, metav1.GetOptions{})
		return getErr
	})
	if err != nil {
		return nil, err
	}
	return sanitize(obj.Object), nil
}

// getLive fetches the raw live object including resourceVersion, for
// building an update body.
func (c *Client) getLive(ctx context.Context, gvr schema.GroupVersionResource, ref models.ResourceRef) (*unstructured.Unstructured, error) {
	var obj *unstructured.Unstructured
	err := doWithRetry(ctx, defaultRetryAttempts, func() error {
		var getErr error
		obj, getErr = c.Dynamic.Resource(gvr).Namespace(ref.Namespace).Get(ctx, ref.Name, metav1.GetOptions{})
		return getErr
	})
	return obj, err
}

// PutConfig writes doc to the resource. Strategy "merge" deep-merges
// the document into the live spec; "replace" swaps the whole object
// body. With dryRun the API server validates and simulates the update
// without persisting it. The returned document is the sanitized
// pre-apply state, which the caller persists as a rollback point for
// real applies.
func (c *Client) PutConfig(ctx context.Context, ref models.ResourceRef, doc document.Document, dryRun bool, strategy models.UpdateStrategy) (updated, previous document.Document, resourceVersion string, err error) {
	gvr, err := gvrFor(ref.Type)
	if err != nil {
		return nil, nil, "", err
	}
	if err := c.waitRateLimit(ctx); err != nil {
		return nil, nil, "", err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	live, err := c.getLive(ctx, gvr, ref)
	if err != nil {
		return nil, nil, "", err
	}
	previous = sanitize(live.Object)

	var desired document.Document
	switch strategy {
	case models.StrategyReplace, "":
		desired = document.DeepCopy(doc)
	case models.StrategyMerge:
		desired = document.DeepMerge(previous, doc)
	default:
		return nil, nil, "", fmt.Errorf("unsupported update strategy %q", strategy)
	}

	body := toUnstructured(desired)
	// The API server needs identity and the current resourceVersion so
	// concurrent modifications surface as conflicts.
	body.SetAPIVersion(live.GetAPIVersion())
	body.SetKind(live.GetKind())
	body.SetName(ref.Name)
	body.SetNamespace(ref.Namespace)
	body.SetResourceVersion(live.GetResourceVersion())

	opts := metav1.UpdateOptions{}
	if dryRun {
		opts.DryRun = []string{metav1.DryRunAll}
	}
	result, err := c.Dynamic.Resource(gvr).Namespace(ref.Namespace).Update(ctx, body, opts)
	if err != nil {
		return nil, nil, "", err
	}
	return sanitize(result.Object), previous, result.GetResourceVersion(), nil
}

func toUnstructured(doc document.Document) *unstructured.Unstructured {
	// Round-trip through JSON so all values are the types the dynamic
	// client expects.
	b, _ := json.Marshal(map[string]any(doc))
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return &unstructured.Unstructured{Object: m}
}

// IsNotFound reports whether err is a Kubernetes 404.
func IsNotFound(err error) bool { return apierrors.IsNotFound(err) }

// IsConflict reports whether err is a Kubernetes 409 (concurrent
// modification).
func IsConflict(err error) bool { return apierrors.IsConflict(err) }

// IsForbidden reports whether err is a Kubernetes 401/403.
func IsForbidden(err error) bool {
	return apierrors.IsForbidden(err) || apierrors.IsUnauthorized(err)
}

// IsValidationRejected reports whether the API server rejected the
// body itself.
func IsValidationRejected(err error) bool {
	return apierrors.IsInvalid(err) || apierrors.IsBadRequest(err)
}
