package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/eventra/eventra_backend/controllers"
	"github.com/eventra/eventra_backend/middleware"
	"github.com/eventra/eventra_backend/models"
)

// RegisterCommissionRoutes sets up commission configuration, override and
// tier endpoints. All organizer-only.
func RegisterCommissionRoutes(e *echo.Echo, commissionController *controllers.CommissionController) {
	commission := e.Group("/api/commission")
	commission.Use(middleware.JWTMiddleware())
	commission.Use(middleware.RequireRole(models.RoleOrganizer))

	commission.GET("/config", commissionController.GetConfig)
	commission.PUT("/config", commissionController.SaveConfig)

	commission.POST("/overrides", commissionController.CreateOverride)
	commission.GET("/overrides/agent/:agentId", commissionController.ListOverrides)
	commission.DELETE("/overrides/:id", commissionController.DeleteOverride)

	commission.GET("/tiers/agent/:agentId", commissionController.GetTierState)
	commission.POST("/tiers/rollover", commissionController.RolloverTiers)
}
