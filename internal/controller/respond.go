package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appErrors "github.com/tillpoint/messaging-backend/internal/errors"
	"github.com/tillpoint/messaging-backend/internal/logger"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Warn("encode response", zap.Error(err))
	}
}

// writeError maps the error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case appErrors.IsNotFound(err):
		status = http.StatusNotFound
	case appErrors.IsValidation(err):
		status = http.StatusBadRequest
	case appErrors.IsConflict(err):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		logger.L().Error("request failed",
			zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// tenantID pulls the tenant from the URL; every route is tenant-scoped.
func tenantID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "tenantID"))
	if err != nil || id < 1 {
		return 0, appErrors.NewValidation("invalid tenant id")
	}
	return id, nil
}

func urlInt(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id < 1 {
		return 0, appErrors.NewValidation("invalid %s", name)
	}
	return id, nil
}
