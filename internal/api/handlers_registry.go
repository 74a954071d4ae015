// handlers_registry.go - Tag and PLC catalog endpoints
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RegistryHandler serves the tag/PLC catalog the dashboard builds
// against.
type RegistryHandler struct {
	catalog TagCatalog
}

// NewRegistryHandler creates a new registry handler
func NewRegistryHandler(catalog TagCatalog) *RegistryHandler {
	return &RegistryHandler{catalog: catalog}
}

// HandleGetTags returns every catalogued tag.
func (h *RegistryHandler) HandleGetTags(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog.Tags())
}

// HandleGetPLCs returns every catalogued PLC.
func (h *RegistryHandler) HandleGetPLCs(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog.PLCs())
}
