package handler

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/capitalize-ai/order-capture/internal/service"
	"github.com/capitalize-ai/order-capture/pkg/logger"
)

// CatalogHandler handles catalog endpoints.
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *logger.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalog *service.CatalogService, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		logger:  log,
	}
}

// Items handles GET /api/v1/catalog/items?q=&limit=
func (h *CatalogHandler) Items(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, h.catalog.Items(q, queryInt(r, "limit", 0)))
}

// Refresh handles POST /api/v1/catalog/refresh
func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	resp, err := h.catalog.Refresh(r.Context())
	if err != nil {
		status, msg := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("catalog refresh failed", zap.Error(err))
			msg = "failed to load catalog"
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
