package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kubedeck/kubedeck-backend/internal/k8s"
	"github.com/kubedeck/kubedeck-backend/internal/pkg/logger"
	"github.com/kubedeck/kubedeck-backend/internal/repository"
	"github.com/kubedeck/kubedeck-backend/internal/service"
)

// APIError is the structured error payload every handler returns.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Error codes for common scenarios.
const (
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

type errorEnvelope struct {
	Error APIError `json:"error"`
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: APIError{
		Code:      code,
		Message:   message,
		RequestID: logger.FromContext(r.Context()),
	}})
}

// respondClusterError maps a cluster or service error to the right
// status and code.
func respondClusterError(w http.ResponseWriter, r *http.Request, err error) {
	var unsupported *service.ErrUnsupportedResourceType
	switch {
	case errors.As(err, &unsupported):
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
	case k8s.IsNotFound(err), errors.Is(err, repository.ErrNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case k8s.IsForbidden(err):
		respondError(w, r, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case k8s.IsConflict(err):
		respondError(w, r, http.StatusConflict, ErrCodeConflict, err.Error())
	case k8s.IsValidationRejected(err):
		respondError(w, r, http.StatusUnprocessableEntity, ErrCodeValidationFailed, err.Error())
	default:
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
	}
}
