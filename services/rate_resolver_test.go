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

func int64Ptr(v int64) *int64 { return &v }

// Bronze up to $2,500 at 5%, Silver beyond at 6.5% with a 0.5% bonus.
func testTiers() []models.CommissionTier {
	return []models.CommissionTier{
		{Name: "Bronze", MinSalesVolume: 0, MaxSalesVolume: int64Ptr(250000), CommissionRate: 5},
		{Name: "Silver", MinSalesVolume: 250000, MaxSalesVolume: nil, CommissionRate: 6.5, BonusPercentage: 0.5},
	}
}

type resolverFixture struct {
	configs      *fakeConfigStore
	overrides    *fakeOverrideStore
	progressions *fakeProgressionStore
	resolver     *RateResolver
	organizerID  primitive.ObjectID
	agentID      primitive.ObjectID
}

func newResolverFixture(t *testing.T, cfg *models.CommissionConfig) *resolverFixture {
	t.Helper()
	f := &resolverFixture{
		configs:      newFakeConfigStore(),
		overrides:    &fakeOverrideStore{},
		progressions: newFakeProgressionStore(),
		organizerID:  primitive.NewObjectID(),
		agentID:      primitive.NewObjectID(),
	}
	if cfg != nil {
		cfg.OrganizerID = f.organizerID
		require.NoError(t, f.configs.SaveConfig(context.Background(), cfg))
	}
	tracker := NewTierTracker(f.configs, f.progressions)
	f.resolver = NewRateResolver(f.configs, f.overrides, tracker)
	return f
}

func (f *resolverFixture) permission(commissionType string, rate float64) *models.AgentPermission {
	return &models.AgentPermission{
		ID:             primitive.NewObjectID(),
		AgentID:        f.agentID,
		OrganizerID:    f.organizerID,
		CommissionType: commissionType,
		CommissionRate: rate,
		Active:         true,
	}
}

func TestResolveFixedAmountBypassesRates(t *testing.T) {
	f := newResolverFixture(t, nil)
	perm := f.permission(models.CommissionTypeFixedAmount, 0)
	perm.CommissionFixedAmount = 500

	result, err := f.resolver.Resolve(context.Background(), perm, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, RateSourceFixed, result.Source)

	gross, bonus := result.CommissionFor(999999)
	assert.Equal(t, int64(500), gross)
	assert.Zero(t, bonus)
}

func TestResolveMissingConfigIsConfigurationError(t *testing.T) {
	f := newResolverFixture(t, nil)
	perm := f.permission(models.CommissionTypePercentage, 5)

	_, err := f.resolver.Resolve(context.Background(), perm, nil, time.Now())
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestResolveDefaultRate(t *testing.T) {
	f := newResolverFixture(t, &models.CommissionConfig{DefaultRate: 4})

	// Permission rate wins over the organizer default.
	perm := f.permission(models.CommissionTypePercentage, 7)
	result, err := f.resolver.Resolve(context.Background(), perm, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, RateSourceDefault, result.Source)
	assert.Equal(t, 7.0, result.Rate)

	// No permission rate falls back to the organizer default.
	perm = f.permission(models.CommissionTypePercentage, 0)
	result, err = f.resolver.Resolve(context.Background(), perm, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 4.0, result.Rate)
}

func TestResolveOverrideBeatsTier(t *testing.T) {
	f := newResolverFixture(t, &models.CommissionConfig{
		DefaultRate:      4,
		TiersEnabled:     true,
		OverridesEnabled: true,
		Tiers:            testTiers(),
	})
	perm := f.permission(models.CommissionTypePercentage, 0)

	now := time.Now()
	f.overrides.overrides = append(f.overrides.overrides, models.AgentCommissionOverride{
		ID:          primitive.NewObjectID(),
		AgentID:     f.agentID,
		OrganizerID: f.organizerID,
		Rate:        10,
		StartDate:   now.Add(-time.Hour),
		EndDate:     now.Add(time.Hour),
		CreatedAt:   now.Add(-time.Hour),
	})

	result, err := f.resolver.Resolve(context.Background(), perm, nil, now)
	require.NoError(t, err)
	assert.Equal(t, RateSourceOverride, result.Source)
	assert.Equal(t, 10.0, result.Rate)
}

func TestResolveEventScopedOverrideBeatsGeneral(t *testing.T) {
	f := newResolverFixture(t, &models.CommissionConfig{DefaultRate: 4, OverridesEnabled: true})
	perm := f.permission(models.CommissionTypePercentage, 0)

	now := time.Now()
	eventID := primitive.NewObjectID()
	f.overrides.overrides = append(f.overrides.overrides,
		models.AgentCommissionOverride{
			ID: primitive.NewObjectID(), AgentID: f.agentID, OrganizerID: f.organizerID,
			Rate: 8, StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour),
			CreatedAt: now, // newer, but general
		},
		models.AgentCommissionOverride{
			ID: primitive.NewObjectID(), AgentID: f.agentID, OrganizerID: f.organizerID,
			EventID: &eventID,
			Rate:    12, StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour),
			CreatedAt: now.Add(-30 * time.Minute),
		},
	)

	result, err := f.resolver.Resolve(context.Background(), perm, &eventID, now)
	require.NoError(t, err)
	assert.Equal(t, 12.0, result.Rate)

	// Without the event the general override applies.
	result, err = f.resolver.Resolve(context.Background(), perm, nil, now)
	require.NoError(t, err)
	assert.Equal(t, 8.0, result.Rate)
}

func TestResolveNewestOverrideWinsTies(t *testing.T) {
	f := newResolverFixture(t, &models.CommissionConfig{DefaultRate: 4, OverridesEnabled: true})
	perm := f.permission(models.CommissionTypePercentage, 0)

	now := time.Now()
	f.overrides.overrides = append(f.overrides.overrides,
		models.AgentCommissionOverride{
			ID: primitive.NewObjectID(), AgentID: f.agentID, OrganizerID: f.organizerID,
			Rate: 8, StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour),
			CreatedAt: now.Add(-2 * time.Hour),
		},
		models.AgentCommissionOverride{
			ID: primitive.NewObjectID(), AgentID: f.agentID, OrganizerID: f.organizerID,
			Rate: 9, StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour),
			CreatedAt: now.Add(-time.Hour),
		},
	)

	result, err := f.resolver.Resolve(context.Background(), perm, nil, now)
	require.NoError(t, err)
	assert.Equal(t, 9.0, result.Rate)
}

func TestResolveExpiredOverrideIgnored(t *testing.T) {
	f := newResolverFixture(t, &models.CommissionConfig{DefaultRate: 4, OverridesEnabled: true})
	perm := f.permission(models.CommissionTypePercentage, 0)

	now := time.Now()
	f.overrides.overrides = append(f.overrides.overrides, models.AgentCommissionOverride{
		ID: primitive.NewObjectID(), AgentID: f.agentID, OrganizerID: f.organizerID,
		Rate: 10, StartDate: now.Add(-2 * time.Hour), EndDate: now.Add(-time.Hour),
		CreatedAt: now.Add(-2 * time.Hour),
	})

	result, err := f.resolver.Resolve(context.Background(), perm, nil, now)
	require.NoError(t, err)
	assert.Equal(t, RateSourceDefault, result.Source)
	assert.Equal(t, 4.0, result.Rate)
}

func TestResolveOverridesDisabledFallThrough(t *testing.T) {
	f := newResolverFixture(t, &models.CommissionConfig{DefaultRate: 4, OverridesEnabled: false})
	perm := f.permission(models.CommissionTypePercentage, 0)

	now := time.Now()
	f.overrides.overrides = append(f.overrides.overrides, models.AgentCommissionOverride{
		ID: primitive.NewObjectID(), AgentID: f.agentID, OrganizerID: f.organizerID,
		Rate: 10, StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour),
		CreatedAt: now,
	})

	result, err := f.resolver.Resolve(context.Background(), perm, nil, now)
	require.NoError(t, err)
	assert.Equal(t, RateSourceDefault, result.Source)
}

func TestResolveTierRateForNewAgent(t *testing.T) {
	f := newResolverFixture(t, &models.CommissionConfig{
		DefaultRate:  4,
		TiersEnabled: true,
		Tiers:        testTiers(),
	})
	perm := f.permission(models.CommissionTypeTiered, 0)

	result, err := f.resolver.Resolve(context.Background(), perm, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, RateSourceTier, result.Source)
	assert.Equal(t, 5.0, result.Rate)
	require.NotNil(t, result.Tier)
	assert.Equal(t, "Bronze", result.Tier.Name)
}

func TestCommissionForAppliesBonusSeparately(t *testing.T) {
	silver := testTiers()[1]
	result := &RateResult{Rate: 6.5, Source: RateSourceTier, Tier: &silver}

	// $200 sale in Silver: 6.5% = $13.00 commission, 0.5% = $1.00 bonus.
	gross, bonus := result.CommissionFor(20000)
	assert.Equal(t, int64(1300), gross)
	assert.Equal(t, int64(100), bonus)
}
