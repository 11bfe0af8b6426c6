package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kozaktomas/facebank/internal/database"
	"github.com/kozaktomas/facebank/internal/pipeline"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusForError maps pipeline and backend errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrNoImage), errors.Is(err, pipeline.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrDetection),
		errors.Is(err, pipeline.ErrRetrievalUnavailable),
		errors.Is(err, pipeline.ErrDirectoryUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, database.ErrBackendNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
