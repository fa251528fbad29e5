package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kubedeck/kubedeck-backend/internal/document"
	"github.com/kubedeck/kubedeck-backend/internal/document/validation"
	"github.com/kubedeck/kubedeck-backend/internal/models"
)

type updateConfigRequest struct {
	Configuration document.Document     `json:"configuration"`
	DryRun        bool                  `json:"dry_run"`
	Strategy      models.UpdateStrategy `json:"strategy"`
}

type validateConfigRequest struct {
	ResourceType  string            `json:"resource_type"`
	Configuration document.Document `json:"config"`
}

type configDiffRequest struct {
	Original document.Document `json:"original_config"`
	Updated  document.Document `json:"updated_config"`
}

// GetConfig handles GET /api/{resourceType}/{namespace}/{name}/config.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	ref, ok := resourceRefFromRequest(w, r)
	if !ok {
		return
	}
	doc, err := h.configs.GetConfig(r.Context(), ref)
	if err != nil {
		respondClusterError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"resource_type": ref.Type,
		"namespace":     ref.Namespace,
		"name":          ref.Name,
		"configuration": doc,
	})
}

// UpdateConfig handles PUT /api/{resourceType}/{namespace}/{name}/config.
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	ref, ok := resourceRefFromRequest(w, r)
	if !ok {
		return
	}
	var req updateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}
	if len(req.Configuration) == 0 {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "configuration is required")
		return
	}
	if req.Strategy != "" && req.Strategy != models.StrategyMerge && req.Strategy != models.StrategyReplace {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "strategy must be merge or replace")
		return
	}

	result, err := h.configs.UpdateConfig(r.Context(), ref, document.Normalize(req.Configuration), req.DryRun, req.Strategy, username(r))
	if err != nil {
		respondClusterError(w, r, err)
		return
	}
	if !result.Success && len(result.ValidationErrors) > 0 {
		respondJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ValidateConfig handles POST /api/validate-config. Validation is
// purely structural; the cluster is never consulted.
func (h *Handler) ValidateConfig(w http.ResponseWriter, r *http.Request) {
	var req validateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}
	issues := h.configs.Validate(req.ResourceType, document.Normalize(req.Configuration))
	if issues == nil {
		issues = []validation.Issue{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"valid":             len(issues) == 0,
		"validation_errors": issues,
	})
}

// ConfigDiff handles POST /api/config-diff.
func (h *Handler) ConfigDiff(w http.ResponseWriter, r *http.Request) {
	var req configDiffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}
	if req.Original == nil || req.Updated == nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "both original_config and updated_config are required")
		return
	}
	changes := h.configs.Diff(document.Normalize(req.Original), document.Normalize(req.Updated))
	respondJSON(w, http.StatusOK, map[string]any{
		"diff":        changes,
		"has_changes": len(changes) > 0,
	})
}

// Rollback handles POST /api/rollback/{key}.
func (h *Handler) Rollback(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if key == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "rollback key is required")
		return
	}
	result, err := h.configs.Rollback(r.Context(), key, username(r))
	if err != nil {
		respondClusterError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
