package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse represents the JSON response from the health check endpoint.
type HealthResponse struct {
	Status      string `json:"status"`
	VectorStore string `json:"vector_store"`
	Document    string `json:"document"`
	Timestamp   string `json:"timestamp"`
}

// HealthChecker is the vector backend dependency of the health check.
type HealthChecker interface {
	Health(ctx context.Context) error
	Name() string
}

// ReadyChecker reports whether a document is loaded.
type ReadyChecker interface {
	Ready() bool
}

// NewHealthHandler creates an HTTP handler for the /health endpoint.
// The server is unhealthy only when the vector backend is unreachable; an
// empty session is reported but still healthy.
func NewHealthHandler(store HealthChecker, docs ReadyChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		response := HealthResponse{
			Document:  "empty",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if docs != nil && docs.Ready() {
			response.Document = "loaded"
		}

		w.Header().Set("Content-Type", "application/json")

		if err := store.Health(ctx); err != nil {
			response.Status = "unhealthy"
			response.VectorStore = store.Name() + ": disconnected"
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(response)
			return
		}

		response.Status = "healthy"
		response.VectorStore = store.Name() + ": connected"
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}
