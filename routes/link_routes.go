package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/eventra/eventra_backend/controllers"
	"github.com/eventra/eventra_backend/middleware"
	"github.com/eventra/eventra_backend/models"
)

// RegisterLinkRoutes sets up trackable-link management and the public click
// endpoint.
func RegisterLinkRoutes(e *echo.Echo, linkController *controllers.LinkController) {
	// Public: link clicks come from shared URLs, no auth.
	e.POST("/api/links/:code/click", linkController.RecordClick)

	links := e.Group("/api/links")
	links.Use(middleware.JWTMiddleware())
	links.Use(middleware.RequireRole(models.RoleOrganizer, models.RoleAgent))

	links.POST("", linkController.CreateLink)
	links.GET("/:id", linkController.GetLink)
	links.GET("/:id/qrcode", linkController.GenerateLinkQRCode)
}
