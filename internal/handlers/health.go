package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse represents the health check response
// swagger:model HealthResponse
type HealthResponse struct {
	// Service status
	// default: ok
	Status string `json:"status"`

	// Current server time
	Timestamp string `json:"timestamp"`
}

// NewHealthHandler returns an HTTP handler for the health check endpoint.
// @Summary Health check
// @Description Returns service status and current timestamp
// @Tags health
// @Produce json
// @Success 200 {object} handlers.HealthResponse "Service is healthy"
// @Router /health [get]
func NewHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}
