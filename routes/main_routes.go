package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/eventra/eventra_backend/controllers"
	"github.com/eventra/eventra_backend/middleware"
	"github.com/eventra/eventra_backend/websocket"
)

// Controllers bundles every controller the route registrations need.
type Controllers struct {
	Auth         *controllers.AuthController
	Sales        *controllers.SalesController
	Commission   *controllers.CommissionController
	Links        *controllers.LinkController
	Ledger       *controllers.LedgerController
	Payouts      *controllers.PayoutController
	Disputes     *controllers.DisputeController
	Notification *controllers.NotificationController
}

// SetupRoutes configures all API routes by calling individual route registration functions
func SetupRoutes(e *echo.Echo, db *mongo.Client, hub *websocket.Hub, ctrls *Controllers) {
	RegisterAuthRoutes(e, ctrls.Auth)
	RegisterSalesRoutes(e, ctrls.Sales)
	RegisterCommissionRoutes(e, ctrls.Commission)
	RegisterLinkRoutes(e, ctrls.Links)
	RegisterPayoutRoutes(e, ctrls.Ledger, ctrls.Payouts)
	RegisterDisputeRoutes(e, ctrls.Disputes)
	RegisterNotificationRoutes(e, ctrls.Notification)

	// WebSocket endpoint for live engine notifications
	e.GET("/ws", func(c echo.Context) error {
		userID := primitive.NilObjectID
		if hex := middleware.GetUserIDFromToken(c); hex != "" {
			if id, err := primitive.ObjectIDFromHex(hex); err == nil {
				userID = id
			}
		}
		return websocket.HandleWebSocket(c, hub, userID)
	})
}
