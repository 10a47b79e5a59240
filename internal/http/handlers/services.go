package handlers

import (
	"net/http"

	"github.com/walid-afk/salon-scheduler/internal/catalog"
	"github.com/walid-afk/salon-scheduler/pkg/logging"
)

// ServicesHandler serves the bookable service catalog.
type ServicesHandler struct {
	catalog catalog.API
	logger  *logging.Logger
}

// NewServicesHandler builds the handler.
func NewServicesHandler(api catalog.API, logger *logging.Logger) *ServicesHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ServicesHandler{catalog: api, logger: logger}
}

// List handles GET /api/services.
func (h *ServicesHandler) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.ListServices(r.Context())
	if err != nil {
		h.logger.Error("catalog listing failed", "error", err)
		http.Error(w, "catalog unavailable", http.StatusBadGateway)
		return
	}
	if services == nil {
		services = []catalog.Service{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": services})
}
