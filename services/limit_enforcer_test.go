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

func seedRecord(t *testing.T, store *fakeRecordStore, agentID, organizerID primitive.ObjectID, gross int64, status string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, store.InsertRecord(context.Background(), &models.CommissionRecord{
		ID:          primitive.NewObjectID(),
		AgentID:     agentID,
		OrganizerID: organizerID,
		GrossAmount: gross,
		NetAmount:   gross,
		Status:      status,
		CreatedAt:   createdAt,
	}))
}

func TestEnforceDailyClamp(t *testing.T) {
	store := newFakeRecordStore()
	enforcer := NewLimitEnforcer(store)
	agentID, organizerID := primitive.NewObjectID(), primitive.NewObjectID()
	now := time.Now().UTC()

	perm := &models.AgentPermission{
		AgentID:       agentID,
		OrganizerID:   organizerID,
		MaxDailySales: 10000, // $100/day
	}

	// $80 already earned today; a $30 proposal only has $20 of headroom.
	seedRecord(t, store, agentID, organizerID, 8000, models.RecordStatusPending, now)

	result, err := enforcer.Enforce(context.Background(), perm, 3000, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), result.FinalAmount)
	assert.True(t, result.WasClamped)
	assert.Equal(t, LimitTypeDaily, result.LimitType)
}

func TestEnforceNoCapsMeansUnlimited(t *testing.T) {
	store := newFakeRecordStore()
	enforcer := NewLimitEnforcer(store)
	perm := &models.AgentPermission{
		AgentID:     primitive.NewObjectID(),
		OrganizerID: primitive.NewObjectID(),
	}

	result, err := enforcer.Enforce(context.Background(), perm, 9999999, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(9999999), result.FinalAmount)
	assert.False(t, result.WasClamped)
}

func TestEnforceSmallerHeadroomGoverns(t *testing.T) {
	store := newFakeRecordStore()
	enforcer := NewLimitEnforcer(store)
	agentID, organizerID := primitive.NewObjectID(), primitive.NewObjectID()
	now := time.Now().UTC()

	perm := &models.AgentPermission{
		AgentID:         agentID,
		OrganizerID:     organizerID,
		MaxDailySales:   10000,
		MaxMonthlySales: 12000,
	}

	// Earlier in the month (not today): eats monthly headroom only. Use a
	// mid-month anchor so the subtraction stays inside the same month.
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	saleTime := monthStart.AddDate(0, 0, 14)
	seedRecord(t, store, agentID, organizerID, 9000, models.RecordStatusApproved, monthStart.AddDate(0, 0, 2))

	// Daily headroom is $100, monthly only $30. The monthly cap wins.
	result, err := enforcer.Enforce(context.Background(), perm, 5000, saleTime)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), result.FinalAmount)
	assert.True(t, result.WasClamped)
	assert.Equal(t, LimitTypeMonthly, result.LimitType)
}

func TestEnforceExhaustedCapClampsToZero(t *testing.T) {
	store := newFakeRecordStore()
	enforcer := NewLimitEnforcer(store)
	agentID, organizerID := primitive.NewObjectID(), primitive.NewObjectID()
	now := time.Now().UTC()

	perm := &models.AgentPermission{
		AgentID:       agentID,
		OrganizerID:   organizerID,
		MaxDailySales: 5000,
	}
	seedRecord(t, store, agentID, organizerID, 6000, models.RecordStatusPending, now)

	// Cap already exceeded: the sale still goes through at zero commission.
	result, err := enforcer.Enforce(context.Background(), perm, 1000, now)
	require.NoError(t, err)
	assert.Zero(t, result.FinalAmount)
	assert.True(t, result.WasClamped)
}

func TestEnforceIgnoresCancelledRecords(t *testing.T) {
	store := newFakeRecordStore()
	enforcer := NewLimitEnforcer(store)
	agentID, organizerID := primitive.NewObjectID(), primitive.NewObjectID()
	now := time.Now().UTC()

	perm := &models.AgentPermission{
		AgentID:       agentID,
		OrganizerID:   organizerID,
		MaxDailySales: 10000,
	}
	seedRecord(t, store, agentID, organizerID, 8000, models.RecordStatusCancelled, now)

	result, err := enforcer.Enforce(context.Background(), perm, 3000, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), result.FinalAmount)
	assert.False(t, result.WasClamped)
}
