package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventra/eventra_backend/config"
	"github.com/eventra/eventra_backend/models"
	"github.com/eventra/eventra_backend/services"
)

// SalesController receives "sale completed" events from the order subsystem.
type SalesController struct {
	recorder *services.AttributionRecorder
	store    services.AttributionStore
}

func NewSalesController(recorder *services.AttributionRecorder, store services.AttributionStore) *SalesController {
	return &SalesController{recorder: recorder, store: store}
}

// HandleSaleCompleted ingests one sale event. Delivery is at-least-once, so a
// duplicate orderId is answered with 409 plus the existing attribution.
func (sc *SalesController) HandleSaleCompleted(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var evt models.SaleCompletedEvent
	if err := c.Bind(&evt); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
			Data:    err.Error(),
		})
	}
	if err := c.Validate(&evt); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid sale event",
			Data:    err.Error(),
		})
	}

	// Redis fast path for redelivered events. Advisory only; the unique index
	// on orderId is the real guard.
	if config.MarkOrderSeen(ctx, evt.OrderID) {
		if existing, err := sc.store.AttributionByOrder(ctx, evt.OrderID); err == nil {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Order already attributed",
				Data:    existing,
			})
		}
	}

	attribution, err := sc.recorder.Attribute(ctx, &evt)
	if err != nil {
		var dupErr *services.DuplicateAttributionError
		if errors.As(err, &dupErr) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Order already attributed",
				Data:    dupErr.Existing,
			})
		}
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Sale attributed successfully",
		Data:    attribution,
	})
}

// GetAttributionByOrder looks up the attribution for one order id.
func (sc *SalesController) GetAttributionByOrder(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	orderID := c.Param("orderId")
	if orderID == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "orderId is required",
		})
	}

	attribution, err := sc.store.AttributionByOrder(ctx, orderID)
	if err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Attribution retrieved successfully",
		Data:    attribution,
	})
}
