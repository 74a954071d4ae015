// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/factory-dashboard/backend/internal/dashboard"
	"github.com/factory-dashboard/backend/internal/store"
)

// HealthHandler reports server liveness and basic counters
type HealthHandler struct {
	version string
	samples *store.SampleStore
	manager *dashboard.Manager
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, samples *store.SampleStore, manager *dashboard.Manager) *HealthHandler {
	return &HealthHandler{version: version, samples: samples, manager: manager}
}

// HandleHealth returns server health status. A failed debounced save
// shows up here as lastSaveError; the in-memory state is still
// authoritative.
func (h *HealthHandler) HandleHealth(c echo.Context) error {
	resp := map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	}
	if h.samples != nil {
		resp["trackedTags"] = h.samples.TrackedTags()
	}
	if h.manager != nil {
		resp["widgets"] = h.manager.WidgetCount()
		if err := h.manager.LastSaveError(); err != nil {
			resp["lastSaveError"] = err.Error()
		}
	}
	return c.JSON(http.StatusOK, resp)
}
