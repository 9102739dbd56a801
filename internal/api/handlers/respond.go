package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dom/trivia-night/internal/api/middleware"
	"github.com/dom/trivia-night/internal/domain"
	"github.com/dom/trivia-night/internal/service"
	"github.com/dom/trivia-night/pkg/logger"
)

// maxBodyBytes caps JSON request bodies. Uploads have their own limit.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func callerFrom(w http.ResponseWriter, r *http.Request) (domain.Caller, bool) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
	return caller, ok
}

// statusOf maps a command error onto an HTTP status.
func statusOf(err error) int {
	switch {
	case domain.IsPrecondition(err):
		return http.StatusBadRequest
	case domain.IsInvalidAction(err):
		return http.StatusConflict
	case domain.IsIllegalChoice(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrDisplayNameExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTooManyRetries):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, http.StatusText(status), status)
		return
	}
	http.Error(w, err.Error(), status)
}

// OKResponse acknowledges a command.
type OKResponse struct {
	Success bool `json:"success"`
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, OKResponse{Success: true})
}
