// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/factory-dashboard/backend/internal/chartdata"
	"github.com/factory-dashboard/backend/internal/dashboard"
	"github.com/factory-dashboard/backend/internal/persist"
	"github.com/factory-dashboard/backend/internal/store"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Samples *store.SampleStore
	Catalog TagCatalog
	Manager *dashboard.Manager
	Builder *chartdata.Builder
	Persist persist.Store
	History HistoryFetcher
	Hub     *Hub
	Version string
}

// Handlers holds all handler instances
type Handlers struct {
	Health     *HealthHandler
	Registry   *RegistryHandler
	Data       *DataHandler
	Widgets    *WidgetHandler
	Dashboards *DashboardHandler
	Hub        *Hub
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:     NewHealthHandler(deps.Version, deps.Samples, deps.Manager),
		Registry:   NewRegistryHandler(deps.Catalog),
		Data:       NewDataHandler(deps.Samples, deps.Catalog, deps.History),
		Widgets:    NewWidgetHandler(deps.Manager, deps.Builder),
		Dashboards: NewDashboardHandler(deps.Persist, deps.Manager),
		Hub:        deps.Hub,
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Health check and metrics
	e.GET("/health", handlers.Health.HandleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Tag/PLC catalog routes
	e.GET("/api/tags", handlers.Registry.HandleGetTags)
	e.GET("/api/plcs", handlers.Registry.HandleGetPLCs)

	// Sample data routes
	dataGroup := e.Group("/api/data")
	dataGroup.GET("/current", handlers.Data.HandleGetCurrentData)
	dataGroup.GET("/current/msgpack", handlers.Data.HandleGetCurrentDataMsgpack)
	dataGroup.GET("/series/:tagId", handlers.Data.HandleGetSeries)
	dataGroup.POST("/historical", handlers.Data.HandleFetchHistorical)

	// Active dashboard routes
	e.GET("/api/dashboard", handlers.Widgets.HandleGetDashboard)
	e.PUT("/api/dashboard/name", handlers.Widgets.HandleRenameDashboard)
	e.PUT("/api/layout", handlers.Widgets.HandleUpdateLayout)

	widgetGroup := e.Group("/api/widgets")
	widgetGroup.POST("", handlers.Widgets.HandleCreateWidget)
	widgetGroup.DELETE("", handlers.Widgets.HandleClearWidgets)
	widgetGroup.PUT("/:id", handlers.Widgets.HandleUpdateWidget)
	widgetGroup.DELETE("/:id", handlers.Widgets.HandleDeleteWidget)
	widgetGroup.GET("/:id/chart-data", handlers.Widgets.HandleGetChartData)

	// Saved dashboard routes
	dashGroup := e.Group("/api/dashboards")
	dashGroup.GET("", handlers.Dashboards.HandleListDashboards)
	dashGroup.POST("", handlers.Dashboards.HandleCreateDashboard)
	dashGroup.GET("/:id", handlers.Dashboards.HandleGetDashboardByID)
	dashGroup.PUT("/:id", handlers.Dashboards.HandleUpdateDashboard)
	dashGroup.DELETE("/:id", handlers.Dashboards.HandleDeleteDashboard)
	dashGroup.POST("/:id/activate", handlers.Dashboards.HandleActivateDashboard)
}

// RegisterWebSocketRoutes registers WebSocket routes
func RegisterWebSocketRoutes(e *echo.Echo, handlers *Handlers) {
	if handlers.Hub != nil {
		e.GET("/api/ws/live", handlers.Hub.HandleWebSocket)
	}
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler
}
