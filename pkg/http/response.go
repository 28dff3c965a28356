package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Metadata accompanies every response envelope
type Metadata struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id"`
}

// SuccessResponse is the envelope for successful responses
type SuccessResponse struct {
	Message  string      `json:"message"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
}

// NewMetadata stamps the current time and the request ID assigned by the
// RequestID middleware, or a fresh one when the request has none.
func NewMetadata(r *http.Request) Metadata {
	requestID := ""
	if r != nil {
		requestID = middleware.GetReqID(r.Context())
	}
	if requestID == "" {
		requestID = uuid.New().String()
	}
	return Metadata{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID,
	}
}

// WriteSuccess writes a JSON success envelope
func WriteSuccess(w http.ResponseWriter, r *http.Request, statusCode int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	_ = json.NewEncoder(w).Encode(SuccessResponse{
		Message:  message,
		Data:     data,
		Metadata: NewMetadata(r),
	})
}

// WriteJSON writes a bare JSON body, for endpoints outside the envelope such as health checks
func WriteJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
