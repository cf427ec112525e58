package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/eventra/eventra_backend/controllers"
	"github.com/eventra/eventra_backend/middleware"
	"github.com/eventra/eventra_backend/models"
)

// RegisterSalesRoutes sets up the sale-completed ingestion endpoint and
// attribution lookups.
func RegisterSalesRoutes(e *echo.Echo, salesController *controllers.SalesController) {
	sales := e.Group("/api/sales")
	sales.Use(middleware.JWTMiddleware())

	// The order subsystem posts completed sales here (at-least-once delivery).
	sales.POST("/completed", salesController.HandleSaleCompleted)

	// Organizer tooling looks attributions up by order id.
	sales.GET("/attributions/:orderId", salesController.GetAttributionByOrder,
		middleware.RequireRole(models.RoleOrganizer))
}
