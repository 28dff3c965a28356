package http

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse represents a standard API error response
type ErrorResponse struct {
	Error    string            `json:"error"`             // Machine-readable error code
	Message  string            `json:"message"`           // Human-readable message
	Details  map[string]string `json:"details,omitempty"` // Field-level validation messages
	Metadata Metadata          `json:"metadata"`
}

// WriteError writes a JSON error response with the given status code
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int, errorCode, message string) {
	WriteErrorWithDetails(w, r, statusCode, errorCode, message, nil)
}

// WriteErrorWithDetails writes a JSON error response with additional details
func WriteErrorWithDetails(w http.ResponseWriter, r *http.Request, statusCode int, errorCode, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := ErrorResponse{
		Error:    errorCode,
		Message:  message,
		Details:  details,
		Metadata: NewMetadata(r),
	}

	_ = json.NewEncoder(w).Encode(resp)
}

// Common error writers for consistency
func WriteBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusBadRequest, "bad_request", message)
}

func WriteValidationError(w http.ResponseWriter, r *http.Request, message string, details map[string]string) {
	WriteErrorWithDetails(w, r, http.StatusBadRequest, "validation_error", message, details)
}

func WriteUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusUnauthorized, "authentication_error", message)
}

func WriteForbidden(w http.ResponseWriter, r *http.Request, errorCode, message string) {
	WriteError(w, r, http.StatusForbidden, errorCode, message)
}

func WriteNotFound(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusNotFound, "not_found", message)
}

func WriteTooManyRequests(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusTooManyRequests, "rate_limit_exceeded", message)
}

func WriteInternalError(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusInternalServerError, "internal_error", message)
}
