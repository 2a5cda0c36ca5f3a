package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/escuela/internal/auth"
)

// Error taxonomy. Store and handlers wrap these with fmt.Errorf("%w: ...") and fail maps them to a status.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// APIError represents a structured API error response
type APIError struct {
	Code    string `json:"error_code"`
	Message string `json:"error_message"`
}

// writeError writes a structured error response
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIError{
		Code:    code,
		Message: message,
	})
}

// fail answers r with the status that err classifies to. Only validation, conflict and
// not-found messages reach the client; everything else is logged and answered generically.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrConflict):
		writeError(w, http.StatusBadRequest, "CONFLICT", err.Error())
	case errors.Is(err, auth.ErrUnauthorized):
		a.rejectUnauthenticated(w, r, err)
	case errors.Is(err, auth.ErrForbidden):
		a.rejectForbidden(w, r, err)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		a.Log.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "request_id", requestID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func (a *App) rejectUnauthenticated(w http.ResponseWriter, r *http.Request, err error) {
	reason := "missing"
	switch {
	case errors.Is(err, auth.ErrExpired):
		reason = "expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		reason = "invalid_signature"
	case errors.Is(err, auth.ErrMalformed):
		reason = "malformed"
	}
	a.Metrics.guardRejections.WithLabelValues(reason).Inc()
	a.Log.DebugContext(r.Context(), "unauthenticated request", "path", r.URL.Path, "reason", reason, "error", err)
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing credentials")
}

func (a *App) rejectForbidden(w http.ResponseWriter, r *http.Request, err error) {
	a.Metrics.guardRejections.WithLabelValues("forbidden").Inc()
	a.Log.DebugContext(r.Context(), "forbidden request", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusForbidden, "FORBIDDEN", "Access denied for this role")
}
