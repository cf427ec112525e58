package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eventra/eventra_backend/middleware"
	"github.com/eventra/eventra_backend/models"
	"github.com/eventra/eventra_backend/services"
)

// respondEngineError maps engine errors onto HTTP statuses:
// duplicate attribution 409, bad event payload 400, organizer
// misconfiguration 422, blocked state transition 409, exhausted transaction
// retries 503, missing documents 404. Everything else is a 500.
func respondEngineError(c echo.Context, err error) error {
	var (
		dupErr      *services.DuplicateAttributionError
		dataErr     *services.InsufficientDataError
		cfgErr      *services.ConfigurationError
		stateErr    *services.InvalidRecordStateError
		conflictErr *services.SerializationConflictError
	)

	switch {
	case errors.As(err, &dupErr):
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: dupErr.Error(),
			Data:    dupErr.Existing,
		})
	case errors.As(err, &dataErr):
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: dataErr.Error(),
		})
	case errors.As(err, &cfgErr):
		return c.JSON(http.StatusUnprocessableEntity, models.Response{
			Status:  http.StatusUnprocessableEntity,
			Message: cfgErr.Error(),
		})
	case errors.As(err, &stateErr):
		resp := models.Response{
			Status:  http.StatusConflict,
			Message: stateErr.Error(),
		}
		if len(stateErr.BlockedRecords) > 0 {
			resp.Data = map[string]interface{}{"blockedRecords": stateErr.BlockedRecords}
		}
		return c.JSON(http.StatusConflict, resp)
	case errors.As(err, &conflictErr):
		return c.JSON(http.StatusServiceUnavailable, models.Response{
			Status:  http.StatusServiceUnavailable,
			Message: "Operation conflicted with concurrent updates, please retry",
		})
	case errors.Is(err, services.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Not found",
		})
	}

	log.Printf("Unhandled engine error: %v", err)
	return c.JSON(http.StatusInternalServerError, models.Response{
		Status:  http.StatusInternalServerError,
		Message: "Internal server error",
	})
}

// objectIDParam parses a hex id path parameter. On failure it writes the 400
// response and returns false.
func objectIDParam(c echo.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		_ = c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid " + name + " format",
		})
		return primitive.NilObjectID, false
	}
	return id, true
}

// actorID pulls the authenticated user id from the JWT claims.
func actorID(c echo.Context) (primitive.ObjectID, bool) {
	userID := middleware.GetUserIDFromToken(c)
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		_ = c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid user ID in token",
		})
		return primitive.NilObjectID, false
	}
	return id, true
}
