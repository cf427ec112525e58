package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/eventra/eventra_backend/controllers"
	"github.com/eventra/eventra_backend/middleware"
)

// RegisterAuthRoutes sets up authentication routes
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController) {
	// Public authentication routes
	e.POST("/api/auth/login", authController.Login)

	// Authenticated session routes
	auth := e.Group("/api/auth")
	auth.Use(middleware.JWTMiddleware())
	auth.POST("/logout", authController.Logout)
	auth.GET("/me", authController.GetCurrentUser)
	auth.PUT("/fcm-token", authController.UpdateFCMToken)
}
