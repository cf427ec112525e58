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

// LedgerController exposes the commission ledger to organizer tooling.
type LedgerController struct {
	ledger *services.Ledger
}

func NewLedgerController(ledger *services.Ledger) *LedgerController {
	return &LedgerController{ledger: ledger}
}

// ListRecords returns the organizer's ledger, newest first. Supports agentId,
// status, from and to query filters.
func (lc *LedgerController) ListRecords(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	organizerID, ok := actorID(c)
	if !ok {
		return nil
	}

	filter := services.RecordFilter{OrganizerID: organizerID}
	if agentHex := c.QueryParam("agentId"); agentHex != "" {
		agentID, err := primitive.ObjectIDFromHex(agentHex)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid agentId format",
			})
		}
		filter.AgentID = &agentID
	}
	filter.Status = c.QueryParam("status")
	if fromStr := c.QueryParam("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid from timestamp, expected RFC3339",
			})
		}
		filter.From = &from
	}
	if toStr := c.QueryParam("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid to timestamp, expected RFC3339",
			})
		}
		filter.To = &to
	}

	records, err := lc.ledger.List(ctx, filter)
	if err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission records retrieved successfully",
		Data:    records,
	})
}

// GetRecord returns one ledger entry with its full audit trail.
func (lc *LedgerController) GetRecord(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, ok := objectIDParam(c, "id")
	if !ok {
		return nil
	}

	record, err := lc.ledger.Get(ctx, id)
	if err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission record retrieved successfully",
		Data:    record,
	})
}

// ApproveRecord moves a pending record to approved.
func (lc *LedgerController) ApproveRecord(c echo.Context) error {
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

	record, err := lc.ledger.Approve(ctx, id, actor)
	if err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission record approved",
		Data:    record,
	})
}

// MarkRecordPaid pays a single approved record outside a batch.
func (lc *LedgerController) MarkRecordPaid(c echo.Context) error {
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

	record, err := lc.ledger.MarkPaid(ctx, id, actor)
	if err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission record marked paid",
		Data:    record,
	})
}

type cancelRecordRequest struct {
	Reason string `json:"reason,omitempty"`
}

// CancelRecord voids a record from any non-terminal state.
func (lc *LedgerController) CancelRecord(c echo.Context) error {
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

	var req cancelRecordRequest
	_ = c.Bind(&req)

	record, err := lc.ledger.Cancel(ctx, id, actor, req.Reason)
	if err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission record cancelled",
		Data:    record,
	})
}
