// handlers_dashboards.go - Saved dashboard CRUD and activation
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/factory-dashboard/backend/internal/dashboard"
	"github.com/factory-dashboard/backend/internal/models"
	"github.com/factory-dashboard/backend/internal/persist"
)

// DashboardHandler manages the saved dashboard collection and swaps
// the active one.
type DashboardHandler struct {
	store   persist.Store
	manager *dashboard.Manager
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(store persist.Store, manager *dashboard.Manager) *DashboardHandler {
	return &DashboardHandler{store: store, manager: manager}
}

// HandleListDashboards returns every saved dashboard.
func (h *DashboardHandler) HandleListDashboards(c echo.Context) error {
	states, err := h.store.List(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to list dashboards", err)
	}
	return c.JSON(http.StatusOK, states)
}

// HandleGetDashboardByID returns one saved dashboard.
func (h *DashboardHandler) HandleGetDashboardByID(c echo.Context) error {
	id := c.Param("id")
	state, err := h.store.Get(c.Request().Context(), id)
	if err != nil {
		if persist.IsNotFound(err) {
			return NewNotFoundError("dashboard", id)
		}
		return NewInternalError("failed to load dashboard", err)
	}
	return c.JSON(http.StatusOK, state)
}

// HandleCreateDashboard saves a new dashboard.
func (h *DashboardHandler) HandleCreateDashboard(c echo.Context) error {
	var state models.DashboardState
	if err := c.Bind(&state); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if state.Name == "" {
		return NewValidationError("name")
	}

	created, err := h.store.Create(c.Request().Context(), state)
	if err != nil {
		return NewInternalError("failed to create dashboard", err)
	}
	return c.JSON(http.StatusCreated, created)
}

// HandleUpdateDashboard replaces a saved dashboard.
func (h *DashboardHandler) HandleUpdateDashboard(c echo.Context) error {
	var state models.DashboardState
	if err := c.Bind(&state); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	state.ID = c.Param("id")

	if err := h.store.Update(c.Request().Context(), state); err != nil {
		if persist.IsNotFound(err) {
			return NewNotFoundError("dashboard", state.ID)
		}
		return NewInternalError("failed to update dashboard", err)
	}
	return c.JSON(http.StatusOK, state)
}

// HandleDeleteDashboard removes a saved dashboard.
func (h *DashboardHandler) HandleDeleteDashboard(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.Delete(c.Request().Context(), id); err != nil {
		if persist.IsNotFound(err) {
			return NewNotFoundError("dashboard", id)
		}
		return NewInternalError("failed to delete dashboard", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleActivateDashboard loads a saved dashboard into the live
// manager, replacing the active state.
func (h *DashboardHandler) HandleActivateDashboard(c echo.Context) error {
	id := c.Param("id")
	state, err := h.store.Get(c.Request().Context(), id)
	if err != nil {
		if persist.IsNotFound(err) {
			return NewNotFoundError("dashboard", id)
		}
		return NewInternalError("failed to load dashboard", err)
	}

	h.manager.Load(state)
	return c.JSON(http.StatusOK, h.manager.State())
}
