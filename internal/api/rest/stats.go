package rest

import "net/http"

// DashboardStats handles GET /api/dashboard/stats.
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.workloads.Stats(r.Context())
	if err != nil {
		respondClusterError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
