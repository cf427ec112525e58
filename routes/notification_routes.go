package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/eventra/eventra_backend/controllers"
	"github.com/eventra/eventra_backend/middleware"
)

// RegisterNotificationRoutes registers all notification-related routes
func RegisterNotificationRoutes(e *echo.Echo, notificationController *controllers.NotificationController) {
	notifications := e.Group("/api/notifications")
	notifications.Use(middleware.JWTMiddleware())

	notifications.GET("", notificationController.GetNotifications)
	notifications.PUT("/:id/read", notificationController.MarkNotificationRead)
}
