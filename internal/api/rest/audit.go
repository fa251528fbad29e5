package rest

import (
	"net/http"
	"strconv"

	"github.com/kubedeck/kubedeck-backend/internal/auth"
	"github.com/kubedeck/kubedeck-backend/internal/models"
)

// ListAuditLogs handles GET /api/audit-logs. Admins see everything;
// other users only their own entries.
func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.AuditLogFilter{
		Operation: q.Get("operation"),
		Username:  q.Get("user"),
		Resource:  q.Get("resource"),
	}
	if v := q.Get("success"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "success must be true or false")
			return
		}
		filter.Success = &b
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = n
	}

	claims := auth.ClaimsFromContext(r.Context())
	if claims != nil && claims.Role != "admin" {
		filter.Username = claims.Username
	}

	entries, err := h.auditLogs.ListAuditLogs(r.Context(), filter)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"audit_logs": entries,
		"count":      len(entries),
	})
}
