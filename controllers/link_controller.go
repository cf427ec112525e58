package controllers

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"os"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eventra/eventra_backend/models"
	"github.com/eventra/eventra_backend/services"
	"github.com/eventra/eventra_backend/utils"
)

// LinkController manages trackable sales links: creation, click counting and
// QR codes agents can put on printed material.
type LinkController struct {
	links       services.LinkStore
	permissions services.PermissionStore
}

func NewLinkController(links services.LinkStore, permissions services.PermissionStore) *LinkController {
	return &LinkController{links: links, permissions: permissions}
}

type createLinkRequest struct {
	AgentPermissionID string `json:"agentPermissionId" validate:"required"`
	EventID           string `json:"eventId,omitempty"`
}

// CreateLink mints a trackable link for an agent permission.
func (lc *LinkController) CreateLink(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req createLinkRequest
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
			Message: "agentPermissionId is required",
		})
	}

	permID, err := primitive.ObjectIDFromHex(req.AgentPermissionID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid agentPermissionId format",
		})
	}

	perm, err := lc.permissions.PermissionByID(ctx, permID)
	if err != nil {
		return respondEngineError(c, err)
	}
	if !perm.Active {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Agent permission is inactive",
		})
	}

	var eventID *primitive.ObjectID
	if req.EventID != "" {
		id, err := primitive.ObjectIDFromHex(req.EventID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid eventId format",
			})
		}
		eventID = &id
	}

	code, err := utils.GenerateTrackableLinkCode()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate link code",
		})
	}

	link := &models.TrackableLink{
		ID:                primitive.NewObjectID(),
		Code:              code,
		AgentPermissionID: perm.ID,
		AgentID:           perm.AgentID,
		OrganizerID:       perm.OrganizerID,
		EventID:           eventID,
		Active:            true,
		CreatedAt:         time.Now(),
	}
	if err := lc.links.InsertLink(ctx, link); err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Trackable link created successfully",
		Data:    link,
	})
}

// GetLink returns one link with its click and conversion counters.
func (lc *LinkController) GetLink(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, ok := objectIDParam(c, "id")
	if !ok {
		return nil
	}

	link, err := lc.links.LinkByID(ctx, id)
	if err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Link retrieved successfully",
		Data:    link,
	})
}

// RecordClick counts a click on a shared link. Public, no auth.
func (lc *LinkController) RecordClick(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	code := c.Param("code")
	link, err := lc.links.LinkByCode(ctx, code)
	if err != nil {
		return respondEngineError(c, err)
	}
	if !link.Active {
		return c.JSON(http.StatusGone, models.Response{
			Status:  http.StatusGone,
			Message: "Link is no longer active",
		})
	}

	if err := lc.links.RecordClick(ctx, link.ID); err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Click recorded",
		Data:    map[string]interface{}{"code": link.Code},
	})
}

// GenerateLinkQRCode renders a link's share URL as a PNG QR code.
func (lc *LinkController) GenerateLinkQRCode(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, ok := objectIDParam(c, "id")
	if !ok {
		return nil
	}

	link, err := lc.links.LinkByID(ctx, id)
	if err != nil {
		return respondEngineError(c, err)
	}

	baseURL := os.Getenv("PUBLIC_BASE_URL")
	if baseURL == "" {
		baseURL = "https://eventra.app"
	}
	content := baseURL + "/l/" + link.Code

	qrCode, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code: " + err.Error(),
		})
	}

	qrCode, err = barcode.Scale(qrCode, 200, 200)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to scale QR code: " + err.Error(),
		})
	}

	buffer := new(bytes.Buffer)
	if err := png.Encode(buffer, qrCode); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to encode QR code as PNG: " + err.Error(),
		})
	}

	return c.Blob(http.StatusOK, "image/png", buffer.Bytes())
}
