// handlers_widgets.go - Widget CRUD, layout, and chart data endpoints
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/factory-dashboard/backend/internal/chartdata"
	"github.com/factory-dashboard/backend/internal/dashboard"
	"github.com/factory-dashboard/backend/internal/models"
)

// WidgetHandler mutates the active dashboard through its manager and
// serves per-widget chart data.
type WidgetHandler struct {
	manager *dashboard.Manager
	builder *chartdata.Builder
}

// NewWidgetHandler creates a new widget handler
func NewWidgetHandler(manager *dashboard.Manager, builder *chartdata.Builder) *WidgetHandler {
	return &WidgetHandler{manager: manager, builder: builder}
}

// CreateWidgetResponse pairs the created widget with its placed
// layout item.
type CreateWidgetResponse struct {
	Widget models.Widget     `json:"widget"`
	Layout models.LayoutItem `json:"layout"`
}

// HandleGetDashboard returns the full active dashboard state.
func (h *WidgetHandler) HandleGetDashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, h.manager.State())
}

// RenameRequest carries a dashboard rename.
type RenameRequest struct {
	Name string `json:"name"`
}

// HandleRenameDashboard renames the active dashboard.
func (h *WidgetHandler) HandleRenameDashboard(c echo.Context) error {
	var req RenameRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Name == "" {
		return NewValidationError("name")
	}
	h.manager.Rename(req.Name)
	return c.JSON(http.StatusOK, h.manager.State())
}

// HandleCreateWidget adds a widget and places it below the existing
// layout.
func (h *WidgetHandler) HandleCreateWidget(c echo.Context) error {
	var params dashboard.CreateWidgetParams
	if err := c.Bind(&params); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	widget, layout, err := h.manager.CreateWidget(params)
	if err != nil {
		return mapManagerError(err)
	}
	return c.JSON(http.StatusCreated, CreateWidgetResponse{Widget: widget, Layout: layout})
}

// HandleUpdateWidget replaces a widget's configuration in place.
func (h *WidgetHandler) HandleUpdateWidget(c echo.Context) error {
	var widget models.Widget
	if err := c.Bind(&widget); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	widget.ID = c.Param("id")

	if err := h.manager.UpdateWidget(widget); err != nil {
		if errors.Is(err, dashboard.ErrWidgetMissing) {
			return NewNotFoundError("widget", widget.ID)
		}
		return mapManagerError(err)
	}
	updated, _ := h.manager.Widget(widget.ID)
	return c.JSON(http.StatusOK, updated)
}

// HandleDeleteWidget removes a widget and its layout item.
func (h *WidgetHandler) HandleDeleteWidget(c echo.Context) error {
	id := c.Param("id")
	if err := h.manager.RemoveWidget(id); err != nil {
		if errors.Is(err, dashboard.ErrWidgetMissing) {
			return NewNotFoundError("widget", id)
		}
		return mapManagerError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleClearWidgets removes every widget from the dashboard.
func (h *WidgetHandler) HandleClearWidgets(c echo.Context) error {
	h.manager.ClearAll()
	return c.NoContent(http.StatusNoContent)
}

// HandleUpdateLayout replaces the grid layout after a drag or resize.
func (h *WidgetHandler) HandleUpdateLayout(c echo.Context) error {
	var items []models.LayoutItem
	if err := c.Bind(&items); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	h.manager.UpdateLayout(items)
	return c.JSON(http.StatusOK, h.manager.State().Layouts)
}

// HandleGetChartData returns the render-ready data for one widget.
func (h *WidgetHandler) HandleGetChartData(c echo.Context) error {
	id := c.Param("id")
	widget, ok := h.manager.Widget(id)
	if !ok {
		return NewNotFoundError("widget", id)
	}

	data, err := h.builder.Build(widget)
	if err != nil {
		return NewInternalError("failed to build chart data", err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"widgetId": id,
		"type":     widget.Type,
		"data":     data,
	})
}

// mapManagerError translates manager errors into API errors.
func mapManagerError(err error) *APIError {
	switch {
	case errors.Is(err, dashboard.ErrWidgetMissing):
		return NewNotFoundError("widget", "")
	case errors.Is(err, dashboard.ErrEmptyTitle),
		errors.Is(err, dashboard.ErrNoTags),
		errors.Is(err, dashboard.ErrUnknownType):
		return NewBadRequestError(err.Error(), nil)
	default:
		return NewInternalError("dashboard operation failed", err)
	}
}
