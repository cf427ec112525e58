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

// CommissionController manages an organizer's commission configuration:
// default rate, tier table, overrides, and tier progression state.
type CommissionController struct {
	configs      services.ConfigStore
	overrides    services.OverrideStore
	progressions services.ProgressionStore
	tracker      *services.TierTracker
}

func NewCommissionController(configs services.ConfigStore, overrides services.OverrideStore,
	progressions services.ProgressionStore, tracker *services.TierTracker) *CommissionController {
	return &CommissionController{
		configs:      configs,
		overrides:    overrides,
		progressions: progressions,
		tracker:      tracker,
	}
}

// GetConfig returns the calling organizer's commission config.
func (cc *CommissionController) GetConfig(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	organizerID, ok := actorID(c)
	if !ok {
		return nil
	}

	cfg, err := cc.configs.ConfigByOrganizer(ctx, organizerID)
	if err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission config retrieved successfully",
		Data:    cfg,
	})
}

// SaveConfig creates or replaces the organizer's commission config. A tier
// table with gaps or overlaps is rejected before anything is written.
func (cc *CommissionController) SaveConfig(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	organizerID, ok := actorID(c)
	if !ok {
		return nil
	}

	var cfg models.CommissionConfig
	if err := c.Bind(&cfg); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
			Data:    err.Error(),
		})
	}
	cfg.OrganizerID = organizerID

	if cfg.DefaultRate < 0 || cfg.DefaultRate > 100 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "defaultRate must be between 0 and 100",
		})
	}
	if cfg.TiersEnabled {
		if err := services.ValidateTiers(organizerID, cfg.Tiers); err != nil {
			return respondEngineError(c, err)
		}
	}

	if err := cc.configs.SaveConfig(ctx, &cfg); err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission config saved successfully",
		Data:    cfg,
	})
}

// CreateOverride pins an explicit rate for one agent over a date window.
func (cc *CommissionController) CreateOverride(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	organizerID, ok := actorID(c)
	if !ok {
		return nil
	}

	var override models.AgentCommissionOverride
	if err := c.Bind(&override); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
			Data:    err.Error(),
		})
	}

	if override.AgentID.IsZero() {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "agentId is required",
		})
	}
	if override.Rate < 0 || override.Rate > 100 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "rate must be between 0 and 100",
		})
	}
	if !override.EndDate.After(override.StartDate) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "endDate must be after startDate",
		})
	}

	override.ID = primitive.NewObjectID()
	override.OrganizerID = organizerID
	override.CreatedBy = organizerID
	override.CreatedAt = time.Now()

	if err := cc.overrides.InsertOverride(ctx, &override); err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Override created successfully",
		Data:    override,
	})
}

// ListOverrides returns the overrides for one agent.
func (cc *CommissionController) ListOverrides(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	organizerID, ok := actorID(c)
	if !ok {
		return nil
	}
	agentID, ok := objectIDParam(c, "agentId")
	if !ok {
		return nil
	}

	overrides, err := cc.overrides.OverridesForAgent(ctx, agentID, organizerID)
	if err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Overrides retrieved successfully",
		Data:    overrides,
	})
}

// DeleteOverride removes an override. Already-recorded commissions keep the
// rate they were resolved with.
func (cc *CommissionController) DeleteOverride(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, ok := objectIDParam(c, "id")
	if !ok {
		return nil
	}

	if err := cc.overrides.DeleteOverride(ctx, id); err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Override deleted successfully",
	})
}

// GetTierState returns an agent's current tier, rolling volume and history.
func (cc *CommissionController) GetTierState(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	organizerID, ok := actorID(c)
	if !ok {
		return nil
	}
	agentID, ok := objectIDParam(c, "agentId")
	if !ok {
		return nil
	}

	tier, err := cc.tracker.CurrentTier(ctx, agentID, organizerID, time.Now())
	if err != nil {
		return respondEngineError(c, err)
	}

	data := map[string]interface{}{"currentTier": tier}
	if prog, err := cc.progressions.Progression(ctx, agentID, organizerID); err == nil {
		data["periodKey"] = prog.PeriodKey
		data["rollingSalesVolume"] = prog.RollingSalesVolume
		data["tierHistory"] = prog.TierHistory
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Tier state retrieved successfully",
		Data:    data,
	})
}

// RolloverTiers resets stale progressions to the current period, demoting
// agents whose fresh volume no longer supports their tier. Idempotent.
func (cc *CommissionController) RolloverTiers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	organizerID, ok := actorID(c)
	if !ok {
		return nil
	}

	rolled, err := cc.tracker.Rollover(ctx, organizerID, time.Now())
	if err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Tier rollover completed",
		Data:    map[string]interface{}{"rolledOver": rolled},
	})
}
