package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eventra/eventra_backend/models"
	"github.com/eventra/eventra_backend/services"
)

// PayoutController drives batch payouts and payment-history exports.
type PayoutController struct {
	payouts *services.PayoutManager
}

func NewPayoutController(payouts *services.PayoutManager) *PayoutController {
	return &PayoutController{payouts: payouts}
}

type createBatchRequest struct {
	PaymentMethod string   `json:"paymentMethod" validate:"required"`
	RecordIDs     []string `json:"recordIds" validate:"required,min=1"`
}

// CreateBatch groups approved records into one payout batch. Fails whole if
// any record is not approved.
func (pc *PayoutController) CreateBatch(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	organizerID, ok := actorID(c)
	if !ok {
		return nil
	}

	var req createBatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
			Data:    err.Error(),
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "paymentMethod and at least one recordId are required",
		})
	}

	recordIDs := make([]primitive.ObjectID, 0, len(req.RecordIDs))
	for _, hex := range req.RecordIDs {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid record id: " + hex,
			})
		}
		recordIDs = append(recordIDs, id)
	}

	batch, err := pc.payouts.CreateBatch(ctx, organizerID, req.PaymentMethod, recordIDs, organizerID)
	if err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Payout batch created successfully",
		Data:    batch,
	})
}

// ProcessBatch pays every record in a pending batch atomically.
func (pc *PayoutController) ProcessBatch(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	id, ok := objectIDParam(c, "id")
	if !ok {
		return nil
	}
	actor, ok := actorID(c)
	if !ok {
		return nil
	}

	batch, err := pc.payouts.ProcessBatch(ctx, id, actor)
	if err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payout batch processed successfully",
		Data:    batch,
	})
}

// ListBatches returns the organizer's payout batches, newest first.
func (pc *PayoutController) ListBatches(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	organizerID, ok := actorID(c)
	if !ok {
		return nil
	}

	batches, err := pc.payouts.Batches(ctx, organizerID)
	if err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payout batches retrieved successfully",
		Data:    batches,
	})
}

// ExportPaymentHistory streams the organizer's payment history as CSV.
func (pc *PayoutController) ExportPaymentHistory(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	organizerID, ok := actorID(c)
	if !ok {
		return nil
	}

	var from, to *time.Time
	if fromStr := c.QueryParam("from"); fromStr != "" {
		t, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid from timestamp, expected RFC3339",
			})
		}
		from = &t
	}
	if toStr := c.QueryParam("to"); toStr != "" {
		t, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid to timestamp, expected RFC3339",
			})
		}
		to = &t
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="payment_history.csv"`)
	c.Response().WriteHeader(http.StatusOK)

	return pc.payouts.ExportPaymentHistory(ctx, organizerID, from, to, c.Response())
}
