package rest

import (
	"encoding/json"
	"net/http"

	"github.com/kubedeck/kubedeck-backend/internal/models"
)

// BatchOperations handles POST /api/batch-operations.
func (h *Handler) BatchOperations(w http.ResponseWriter, r *http.Request) {
	var req models.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}
	for _, ref := range req.Resources {
		if !models.SupportedResourceTypes[ref.Type] {
			respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "unsupported resource type "+ref.Type)
			return
		}
		if !validName(ref.Namespace) || !validName(ref.Name) {
			respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid namespace or name in batch")
			return
		}
	}

	result, err := h.configs.RunBatch(r.Context(), req, username(r))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}
