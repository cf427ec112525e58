package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/eventra/eventra_backend/controllers"
	"github.com/eventra/eventra_backend/middleware"
	"github.com/eventra/eventra_backend/models"
)

// RegisterDisputeRoutes sets up dispute endpoints. Organizer-only.
func RegisterDisputeRoutes(e *echo.Echo, disputeController *controllers.DisputeController) {
	disputes := e.Group("/api/disputes")
	disputes.Use(middleware.JWTMiddleware())
	disputes.Use(middleware.RequireRole(models.RoleOrganizer))

	disputes.POST("", disputeController.OpenDispute)
	disputes.GET("/:id", disputeController.GetDispute)
	disputes.POST("/:id/resolve", disputeController.ResolveDispute)
}
