package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eventra/eventra_backend/models"
)

type trackerFixture struct {
	configs      *fakeConfigStore
	progressions *fakeProgressionStore
	tracker      *TierTracker
	organizerID  primitive.ObjectID
	agentID      primitive.ObjectID
}

func newTrackerFixture(t *testing.T, tiers []models.CommissionTier) *trackerFixture {
	t.Helper()
	f := &trackerFixture{
		configs:      newFakeConfigStore(),
		progressions: newFakeProgressionStore(),
		organizerID:  primitive.NewObjectID(),
		agentID:      primitive.NewObjectID(),
	}
	cfg := &models.CommissionConfig{
		OrganizerID:  f.organizerID,
		DefaultRate:  4,
		TiersEnabled: true,
		Tiers:        tiers,
	}
	require.NoError(t, f.configs.SaveConfig(context.Background(), cfg))
	f.tracker = NewTierTracker(f.configs, f.progressions)
	return f
}

func TestValidateTiers(t *testing.T) {
	org := primitive.NewObjectID()

	assert.NoError(t, ValidateTiers(org, testTiers()))

	var cfgErr *ConfigurationError

	// Empty table.
	assert.ErrorAs(t, ValidateTiers(org, nil), &cfgErr)

	// Lowest tier does not start at zero.
	bad := []models.CommissionTier{
		{Name: "Bronze", MinSalesVolume: 100, MaxSalesVolume: nil, CommissionRate: 5},
	}
	assert.ErrorAs(t, ValidateTiers(org, bad), &cfgErr)

	// Gap between tiers.
	bad = []models.CommissionTier{
		{Name: "Bronze", MinSalesVolume: 0, MaxSalesVolume: int64Ptr(100000), CommissionRate: 5},
		{Name: "Silver", MinSalesVolume: 150000, MaxSalesVolume: nil, CommissionRate: 6},
	}
	assert.ErrorAs(t, ValidateTiers(org, bad), &cfgErr)

	// Highest tier bounded.
	bad = []models.CommissionTier{
		{Name: "Bronze", MinSalesVolume: 0, MaxSalesVolume: int64Ptr(100000), CommissionRate: 5},
		{Name: "Silver", MinSalesVolume: 100000, MaxSalesVolume: int64Ptr(200000), CommissionRate: 6},
	}
	assert.ErrorAs(t, ValidateTiers(org, bad), &cfgErr)
}

func TestRecordSalePromotesImmediately(t *testing.T) {
	f := newTrackerFixture(t, testTiers())
	ctx := context.Background()
	now := time.Now()

	// $2,400 keeps the agent in Bronze.
	prog, promoted, err := f.tracker.RecordSale(ctx, f.agentID, f.organizerID, 240000, now)
	require.NoError(t, err)
	assert.False(t, promoted)
	assert.Equal(t, "Bronze", prog.CurrentTier)
	assert.Equal(t, int64(240000), prog.RollingSalesVolume)

	// A $200 sale crosses the $2,500 boundary: immediate promotion.
	prog, promoted, err = f.tracker.RecordSale(ctx, f.agentID, f.organizerID, 20000, now)
	require.NoError(t, err)
	assert.True(t, promoted)
	assert.Equal(t, "Silver", prog.CurrentTier)
	assert.Equal(t, int64(260000), prog.RollingSalesVolume)

	require.Len(t, prog.TierHistory, 1)
	assert.Equal(t, "Silver", prog.TierHistory[0].TierName)
	assert.Equal(t, int64(260000), prog.TierHistory[0].SalesVolumeAtPromotion)
}

func TestCurrentTierDoesNotDemoteMidPeriod(t *testing.T) {
	f := newTrackerFixture(t, testTiers())
	ctx := context.Background()
	now := time.Now()

	_, _, err := f.tracker.RecordSale(ctx, f.agentID, f.organizerID, 300000, now)
	require.NoError(t, err)

	// Stale period: the read path still reports the held tier.
	tier, err := f.tracker.CurrentTier(ctx, f.agentID, f.organizerID, now.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, "Silver", tier.Name)
}

func TestLazyRolloverDemotesOnFirstSaleOfNewPeriod(t *testing.T) {
	f := newTrackerFixture(t, testTiers())
	ctx := context.Background()
	now := time.Now()

	_, promoted, err := f.tracker.RecordSale(ctx, f.agentID, f.organizerID, 300000, now)
	require.NoError(t, err)
	assert.True(t, promoted)

	// First sale of the next month resets the volume and demotes first.
	nextMonth := now.AddDate(0, 1, 0)
	prog, promoted, err := f.tracker.RecordSale(ctx, f.agentID, f.organizerID, 10000, nextMonth)
	require.NoError(t, err)
	assert.False(t, promoted)
	assert.Equal(t, "Bronze", prog.CurrentTier)
	assert.Equal(t, int64(10000), prog.RollingSalesVolume)
	assert.Equal(t, models.PeriodKeyFor(nextMonth), prog.PeriodKey)

	// Promotion then demotion both appear on the trail.
	require.Len(t, prog.TierHistory, 2)
	assert.Equal(t, "Silver", prog.TierHistory[0].TierName)
	assert.Equal(t, "Bronze", prog.TierHistory[1].TierName)
}

func TestRolloverIsIdempotent(t *testing.T) {
	f := newTrackerFixture(t, testTiers())
	ctx := context.Background()
	now := time.Now()

	_, _, err := f.tracker.RecordSale(ctx, f.agentID, f.organizerID, 300000, now)
	require.NoError(t, err)

	nextMonth := now.AddDate(0, 1, 0)
	rolled, err := f.tracker.Rollover(ctx, f.organizerID, nextMonth)
	require.NoError(t, err)
	assert.Equal(t, 1, rolled)

	prog, err := f.progressions.Progression(ctx, f.agentID, f.organizerID)
	require.NoError(t, err)
	assert.Equal(t, "Bronze", prog.CurrentTier)
	assert.Zero(t, prog.RollingSalesVolume)
	historyLen := len(prog.TierHistory)

	// Second run in the same period touches nothing.
	rolled, err = f.tracker.Rollover(ctx, f.organizerID, nextMonth)
	require.NoError(t, err)
	assert.Zero(t, rolled)

	prog, err = f.progressions.Progression(ctx, f.agentID, f.organizerID)
	require.NoError(t, err)
	assert.Len(t, prog.TierHistory, historyLen)
}

func TestRecordSaleTiersDisabledIsNoop(t *testing.T) {
	f := newTrackerFixture(t, testTiers())
	ctx := context.Background()

	cfg, err := f.configs.ConfigByOrganizer(ctx, f.organizerID)
	require.NoError(t, err)
	cfg.TiersEnabled = false
	require.NoError(t, f.configs.SaveConfig(ctx, cfg))

	prog, promoted, err := f.tracker.RecordSale(ctx, f.agentID, f.organizerID, 500000, time.Now())
	require.NoError(t, err)
	assert.Nil(t, prog)
	assert.False(t, promoted)
}

func TestRecordSaleGapInTiersSurfaces(t *testing.T) {
	gappy := []models.CommissionTier{
		{Name: "Bronze", MinSalesVolume: 0, MaxSalesVolume: int64Ptr(100000), CommissionRate: 5},
		{Name: "Silver", MinSalesVolume: 150000, MaxSalesVolume: nil, CommissionRate: 6},
	}
	f := newTrackerFixture(t, gappy)

	_, _, err := f.tracker.RecordSale(context.Background(), f.agentID, f.organizerID, 50000, time.Now())
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}
