// Package rest implements the dashboard HTTP API.
package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/gorilla/mux"

	"github.com/kubedeck/kubedeck-backend/internal/repository"
	"github.com/kubedeck/kubedeck-backend/internal/service"
)

// dnsNameRe matches Kubernetes object and namespace names.
var dnsNameRe = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

// Handler holds the services behind the HTTP API.
type Handler struct {
	configs   *service.ConfigService
	workloads *service.WorkloadService
	users     repository.UserRepository
	auditLogs repository.AuditLogRepository
	jwtSecret string
	logger    *slog.Logger
}

// NewHandler wires the services into an HTTP handler set.
func NewHandler(configs *service.ConfigService, workloads *service.WorkloadService, users repository.UserRepository, auditLogs repository.AuditLogRepository, jwtSecret string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		configs:   configs,
		workloads: workloads,
		users:     users,
		auditLogs: auditLogs,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// SetupRoutes registers the API routes on the router.
func SetupRoutes(router *mux.Router, h *Handler) {
	// Auth
	router.HandleFunc("/api/auth/register", h.Register).Methods("POST")
	router.HandleFunc("/api/auth/login", h.Login).Methods("POST")
	router.HandleFunc("/api/auth/me", h.Me).Methods("GET")

	// Workload list views
	router.HandleFunc("/api/deployments", h.ListDeployments).Methods("GET")
	router.HandleFunc("/api/daemonsets", h.ListDaemonSets).Methods("GET")
	router.HandleFunc("/api/namespaces", h.ListNamespaces).Methods("GET")
	router.HandleFunc("/api/{resourceType}/{namespace}/{name}/scale", h.Scale).Methods("PATCH")

	// Configuration pipeline
	router.HandleFunc("/api/{resourceType}/{namespace}/{name}/config", h.GetConfig).Methods("GET")
	router.HandleFunc("/api/{resourceType}/{namespace}/{name}/config", h.UpdateConfig).Methods("PUT")
	router.HandleFunc("/api/validate-config", h.ValidateConfig).Methods("POST")
	router.HandleFunc("/api/config-diff", h.ConfigDiff).Methods("POST")
	router.HandleFunc("/api/rollback/{key}", h.Rollback).Methods("POST")

	// Batch, audit, stats
	router.HandleFunc("/api/batch-operations", h.BatchOperations).Methods("POST")
	router.HandleFunc("/api/audit-logs", h.ListAuditLogs).Methods("GET")
	router.HandleFunc("/api/dashboard/stats", h.DashboardStats).Methods("GET")

	// Cache administration, admin role only
	router.HandleFunc("/api/admin/cache/stats", h.CacheStats).Methods("GET")
	router.HandleFunc("/api/admin/cache/clear", h.ClearCache).Methods("POST")
	router.HandleFunc("/api/admin/cache/refresh", h.RefreshCache).Methods("POST")

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}).Methods("GET")
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func validName(s string) bool {
	return len(s) <= 253 && dnsNameRe.MatchString(s)
}
