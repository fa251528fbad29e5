package rest

import (
	"net/http"

	"github.com/kubedeck/kubedeck-backend/internal/auth"
)

// requireAdmin rejects the request unless the token carries the admin
// role. Returns false after writing the response.
func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil || claims.Role != "admin" {
		respondError(w, r, http.StatusForbidden, ErrCodeForbidden, "admin access required")
		return false
	}
	return true
}

// CacheStats handles GET /api/admin/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	respondJSON(w, http.StatusOK, h.workloads.CacheStats())
}

// ClearCache handles POST /api/admin/cache/clear?pattern=.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	pattern := r.URL.Query().Get("pattern")
	cleared := h.workloads.ClearCache(r.Context(), pattern, username(r))
	respondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"cleared_count": cleared,
	})
}

// RefreshCache handles POST /api/admin/cache/refresh?resource_type=&namespace=.
func (h *Handler) RefreshCache(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	q := r.URL.Query()
	resourceType := q.Get("resource_type")
	switch resourceType {
	case "", "deployment", "daemonset":
	default:
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, "only deployment and daemonset lists are cached")
		return
	}
	if err := h.workloads.RefreshCache(r.Context(), resourceType, q.Get("namespace"), username(r)); err != nil {
		respondClusterError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "cache refreshed",
	})
}
