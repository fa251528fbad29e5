package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kubedeck/kubedeck-backend/internal/models"
)

// ListDeployments handles GET /api/deployments?namespace=&label_selector=.
func (h *Handler) ListDeployments(w http.ResponseWriter, r *http.Request) {
	rows, err := h.workloads.ListDeployments(r.Context(), r.URL.Query().Get("namespace"), r.URL.Query().Get("label_selector"))
	if err != nil {
		respondClusterError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deployments": rows, "count": len(rows)})
}

// ListDaemonSets handles GET /api/daemonsets.
func (h *Handler) ListDaemonSets(w http.ResponseWriter, r *http.Request) {
	rows, err := h.workloads.ListDaemonSets(r.Context(), r.URL.Query().Get("namespace"), r.URL.Query().Get("label_selector"))
	if err != nil {
		respondClusterError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"daemonsets": rows, "count": len(rows)})
}

// ListNamespaces handles GET /api/namespaces.
func (h *Handler) ListNamespaces(w http.ResponseWriter, r *http.Request) {
	names, err := h.workloads.ListNamespaces(r.Context())
	if err != nil {
		respondClusterError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"namespaces": names})
}

// Scale handles PATCH /api/{resourceType}/{namespace}/{name}/scale.
func (h *Handler) Scale(w http.ResponseWriter, r *http.Request) {
	ref, ok := resourceRefFromRequest(w, r)
	if !ok {
		return
	}
	if !models.ScalableResourceTypes[ref.Type] {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, ref.Type+" cannot be scaled")
		return
	}
	var req struct {
		Replicas *int32 `json:"replicas"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Replicas == nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "replicas is required")
		return
	}
	if *req.Replicas < 0 {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "replicas must be non-negative")
		return
	}

	result, err := h.configs.Scale(r.Context(), ref, *req.Replicas, username(r))
	if err != nil {
		respondClusterError(w, r, err)
		return
	}
	h.workloads.InvalidateCache()
	respondJSON(w, http.StatusOK, result)
}

// resourceRefFromRequest extracts and validates the {resourceType},
// {namespace}, {name} path variables.
func resourceRefFromRequest(w http.ResponseWriter, r *http.Request) (models.ResourceRef, bool) {
	vars := mux.Vars(r)
	ref := models.ResourceRef{
		Type:      vars["resourceType"],
		Namespace: vars["namespace"],
		Name:      vars["name"],
	}
	if !models.SupportedResourceTypes[ref.Type] {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "unsupported resource type "+ref.Type)
		return ref, false
	}
	if !validName(ref.Namespace) || !validName(ref.Name) {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid namespace or name")
		return ref, false
	}
	return ref, true
}
