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

// DisputeController lets organizers challenge and resolve commission records.
type DisputeController struct {
	disputes *services.DisputeManager
}

func NewDisputeController(disputes *services.DisputeManager) *DisputeController {
	return &DisputeController{disputes: disputes}
}

type openDisputeRequest struct {
	RecordID       string `json:"recordId" validate:"required"`
	Type           string `json:"type" validate:"required"`
	AmountDisputed int64  `json:"amountDisputed" validate:"required,gt=0"`
	Evidence       string `json:"evidence,omitempty"`
}

// OpenDispute raises a dispute against a pending, approved or paid record.
func (dc *DisputeController) OpenDispute(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actor, ok := actorID(c)
	if !ok {
		return nil
	}

	var req openDisputeRequest
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
			Message: "recordId, type and a positive amountDisputed are required",
		})
	}

	recordID, err := primitive.ObjectIDFromHex(req.RecordID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid recordId format",
		})
	}

	dispute, err := dc.disputes.Open(ctx, recordID, req.Type, req.AmountDisputed, req.Evidence, actor)
	if err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Dispute opened successfully",
		Data:    dispute,
	})
}

type resolveDisputeRequest struct {
	Outcome          string `json:"outcome" validate:"required,oneof=resolved_paid resolved_rejected"`
	ResolutionAmount *int64 `json:"resolutionAmount,omitempty"`
}

// ResolveDispute closes a dispute with an outcome and optional adjusted
// amount.
func (dc *DisputeController) ResolveDispute(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, ok := objectIDParam(c, "id")
	if !ok {
		return nil
	}
	actor, ok := actorID(c)
	if !ok {
		return nil
	}

	var req resolveDisputeRequest
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
			Message: "outcome must be resolved_paid or resolved_rejected",
		})
	}

	dispute, err := dc.disputes.Resolve(ctx, id, req.Outcome, req.ResolutionAmount, actor)
	if err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Dispute resolved successfully",
		Data:    dispute,
	})
}

// GetDispute returns one dispute.
func (dc *DisputeController) GetDispute(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, ok := objectIDParam(c, "id")
	if !ok {
		return nil
	}

	dispute, err := dc.disputes.Get(ctx, id)
	if err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Dispute retrieved successfully",
		Data:    dispute,
	})
}
