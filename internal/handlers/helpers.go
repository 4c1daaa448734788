package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/7flash/argilla/internal/policy"
	"github.com/7flash/argilla/internal/services/datasets"
	"github.com/7flash/argilla/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxErrorMessageLength = 500

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage bounds the length of client-facing messages
func sanitizeErrorMessage(message string) string {
	if len(message) > maxErrorMessageLength {
		return message[:maxErrorMessageLength] + "..."
	}
	return message
}

// respondJSONError sends an error JSON response
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondServiceError maps service and policy errors to status codes.
// Anything unrecognised is logged and reported as a 500 without detail.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var svcErr *datasets.Error
	switch {
	case errors.Is(err, policy.ErrForbidden):
		respondJSONError(w, http.StatusForbidden, "Forbidden", "You are not allowed to perform this action")
	case errors.As(err, &svcErr) && errors.Is(err, datasets.ErrNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", svcErr.Message)
	case errors.As(err, &svcErr) && errors.Is(err, datasets.ErrAlreadyExists):
		respondJSONError(w, http.StatusConflict, "Conflict", svcErr.Message)
	case errors.As(err, &svcErr) && errors.Is(err, datasets.ErrInvalid):
		respondJSONError(w, http.StatusUnprocessableEntity, "Unprocessable Entity", svcErr.Message)
	default:
		logger.Error("request_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred")
	}
}

// decodeJSON decodes and validates a request body into dst, writing the
// error response itself when it returns false
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return false
	}

	if err := validation.Validate.Struct(dst); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", validation.Message(err)))
		return false
	}
	return true
}

// pathID parses the {id} path variable
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}
