package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/eventra/eventra_backend/controllers"
	"github.com/eventra/eventra_backend/middleware"
	"github.com/eventra/eventra_backend/models"
)

// RegisterPayoutRoutes sets up ledger and payout endpoints. Approvals,
// payouts and cancellations are organizer-only.
func RegisterPayoutRoutes(e *echo.Echo, ledgerController *controllers.LedgerController, payoutController *controllers.PayoutController) {
	records := e.Group("/api/commission/records")
	records.Use(middleware.JWTMiddleware())
	records.Use(middleware.RequireRole(models.RoleOrganizer))

	records.GET("", ledgerController.ListRecords)
	records.GET("/:id", ledgerController.GetRecord)
	records.POST("/:id/approve", ledgerController.ApproveRecord)
	records.POST("/:id/pay", ledgerController.MarkRecordPaid)
	records.POST("/:id/cancel", ledgerController.CancelRecord)

	payouts := e.Group("/api/payouts")
	payouts.Use(middleware.JWTMiddleware())
	payouts.Use(middleware.RequireRole(models.RoleOrganizer))

	payouts.POST("/batches", payoutController.CreateBatch)
	payouts.GET("/batches", payoutController.ListBatches)
	payouts.POST("/batches/:id/process", payoutController.ProcessBatch)
	payouts.GET("/export", payoutController.ExportPaymentHistory)
}
