package handler

import (
	"net/http"

	"github.com/capitalize-ai/order-capture/internal/catalog"
	natsclient "github.com/capitalize-ai/order-capture/internal/nats"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	index      *catalog.Index
	natsClient *natsclient.Client
}

// NewHealthHandler creates a new health handler. natsClient is nil when the
// event stream is disabled.
func NewHealthHandler(index *catalog.Index, natsClient *natsclient.Client) *HealthHandler {
	return &HealthHandler{
		index:      index,
		natsClient: natsClient,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.index.Len() == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "catalog not loaded",
		})
		return
	}

	if h.natsClient != nil && !h.natsClient.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
