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

type disputeFixture struct {
	records     *fakeRecordStore
	disputes    *fakeDisputeStore
	manager     *DisputeManager
	organizerID primitive.ObjectID
	agentID     primitive.ObjectID
	actorID     primitive.ObjectID
}

func newDisputeFixture(t *testing.T) *disputeFixture {
	t.Helper()
	f := &disputeFixture{
		records:     newFakeRecordStore(),
		disputes:    newFakeDisputeStore(),
		organizerID: primitive.NewObjectID(),
		agentID:     primitive.NewObjectID(),
		actorID:     primitive.NewObjectID(),
	}
	tx := &fakeTx{}
	f.manager = NewDisputeManager(tx, f.records, f.disputes, NewLedger(tx, f.records), nil)
	return f
}

func (f *disputeFixture) record(t *testing.T, status string, net int64) *models.CommissionRecord {
	t.Helper()
	rec := &models.CommissionRecord{
		ID:          primitive.NewObjectID(),
		OrganizerID: f.organizerID,
		AgentID:     f.agentID,
		OrderID:     primitive.NewObjectID().Hex(),
		GrossAmount: net,
		NetAmount:   net,
		Currency:    "USD",
		RateUsed:    5,
		RateSource:  RateSourceDefault,
		Status:      status,
		CreatedAt:   time.Now(),
	}
	if status == models.RecordStatusPaid {
		now := time.Now()
		rec.PaidAt = &now
		batchID := primitive.NewObjectID()
		rec.PayoutBatchID = &batchID
	}
	require.NoError(t, f.records.InsertRecord(context.Background(), rec))
	return rec
}

func TestOpenDisputeMovesUnpaidRecordToDisputed(t *testing.T) {
	f := newDisputeFixture(t)
	ctx := context.Background()
	rec := f.record(t, models.RecordStatusApproved, 5000)

	dispute, err := f.manager.Open(ctx, rec.ID, "refund", 5000, "bank chargeback ref 123", f.actorID)
	require.NoError(t, err)
	assert.Equal(t, models.DisputeStatusOpen, dispute.Status)
	assert.Equal(t, rec.ID, dispute.RecordID)

	got, err := f.records.RecordByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusDisputed, got.Status)
}

func TestOpenDisputeOnPaidRecordKeepsItPaid(t *testing.T) {
	f := newDisputeFixture(t)
	ctx := context.Background()
	rec := f.record(t, models.RecordStatusPaid, 5000)

	_, err := f.manager.Open(ctx, rec.ID, "amount", 1500, "", f.actorID)
	require.NoError(t, err)

	got, err := f.records.RecordByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusPaid, got.Status)
	last := got.StatusHistory[len(got.StatusHistory)-1]
	assert.Equal(t, "dispute_opened", last.Action)
}

func TestOpenDisputeOnCancelledRecordRejected(t *testing.T) {
	f := newDisputeFixture(t)
	rec := f.record(t, models.RecordStatusCancelled, 5000)

	_, err := f.manager.Open(context.Background(), rec.ID, "refund", 5000, "", f.actorID)
	var stateErr *InvalidRecordStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, models.RecordStatusCancelled, stateErr.CurrentStatus)
}

func TestResolvePaidRecordSettlesDeltaInAdjustment(t *testing.T) {
	f := newDisputeFixture(t)
	ctx := context.Background()

	// $50 approved, then paid out in a real batch; the dispute resolves it
	// down to $35 afterwards.
	rec := f.record(t, models.RecordStatusApproved, 5000)
	batches := newFakeBatchStore()
	payouts := NewPayoutManager(&fakeTx{}, f.records, batches, newFakeUserStore(), nil)
	batch, err := payouts.CreateBatch(ctx, f.organizerID, "bank_transfer",
		[]primitive.ObjectID{rec.ID}, f.actorID)
	require.NoError(t, err)
	_, err = payouts.ProcessBatch(ctx, batch.ID, f.actorID)
	require.NoError(t, err)

	dispute, err := f.manager.Open(ctx, rec.ID, "amount", 1500, "", f.actorID)
	require.NoError(t, err)

	resolved, err := f.manager.Resolve(ctx, dispute.ID, models.DisputeOutcomeResolvedPaid, int64Ptr(3500), f.actorID)
	require.NoError(t, err)
	assert.Equal(t, models.DisputeStatusResolved, resolved.Status)
	require.NotNil(t, resolved.AdjustmentRecordID)

	// The delta lives in a new approved record pointing back at the original,
	// outside any batch.
	adjustment, err := f.records.RecordByID(ctx, *resolved.AdjustmentRecordID)
	require.NoError(t, err)
	assert.Equal(t, int64(-1500), adjustment.NetAmount)
	assert.Equal(t, models.RecordStatusApproved, adjustment.Status)
	require.NotNil(t, adjustment.AdjustmentOf)
	assert.Equal(t, rec.ID, *adjustment.AdjustmentOf)
	assert.Nil(t, adjustment.PayoutBatchID)

	// The original record and its batch membership are untouched.
	got, err := f.records.RecordByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusPaid, got.Status)
	assert.Equal(t, int64(5000), got.NetAmount)
	require.NotNil(t, got.PayoutBatchID)
	assert.Equal(t, batch.ID, *got.PayoutBatchID)

	// The settled batch itself is not rewritten by the resolution.
	gotBatch, err := batches.BatchByID(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), gotBatch.TotalAmount)
	assert.Equal(t, models.BatchStatusCompleted, gotBatch.Status)
}

func TestResolvePaidRecordAtOriginalAmountNoAdjustment(t *testing.T) {
	f := newDisputeFixture(t)
	ctx := context.Background()
	rec := f.record(t, models.RecordStatusPaid, 5000)

	dispute, err := f.manager.Open(ctx, rec.ID, "amount", 5000, "", f.actorID)
	require.NoError(t, err)

	resolved, err := f.manager.Resolve(ctx, dispute.ID, models.DisputeOutcomeResolvedPaid, int64Ptr(5000), f.actorID)
	require.NoError(t, err)
	assert.Nil(t, resolved.AdjustmentRecordID)
}

func TestResolveUnpaidDisputeRewritesNetAmount(t *testing.T) {
	f := newDisputeFixture(t)
	ctx := context.Background()
	rec := f.record(t, models.RecordStatusPending, 5000)

	dispute, err := f.manager.Open(ctx, rec.ID, "amount", 2000, "", f.actorID)
	require.NoError(t, err)

	resolved, err := f.manager.Resolve(ctx, dispute.ID, models.DisputeOutcomeResolvedPaid, int64Ptr(3000), f.actorID)
	require.NoError(t, err)
	assert.Equal(t, models.DisputeOutcomeResolvedPaid, resolved.Outcome)

	got, err := f.records.RecordByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DisputeOutcomeResolvedPaid, got.Status)
	assert.Equal(t, int64(3000), got.NetAmount)
}

func TestResolveRejectedOutcome(t *testing.T) {
	f := newDisputeFixture(t)
	ctx := context.Background()
	rec := f.record(t, models.RecordStatusApproved, 5000)

	dispute, err := f.manager.Open(ctx, rec.ID, "refund", 5000, "", f.actorID)
	require.NoError(t, err)

	_, err = f.manager.Resolve(ctx, dispute.ID, models.DisputeOutcomeResolvedRejected, nil, f.actorID)
	require.NoError(t, err)

	got, err := f.records.RecordByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DisputeOutcomeResolvedRejected, got.Status)
}

func TestResolveTwiceRejected(t *testing.T) {
	f := newDisputeFixture(t)
	ctx := context.Background()
	rec := f.record(t, models.RecordStatusApproved, 5000)

	dispute, err := f.manager.Open(ctx, rec.ID, "refund", 5000, "", f.actorID)
	require.NoError(t, err)
	_, err = f.manager.Resolve(ctx, dispute.ID, models.DisputeOutcomeResolvedRejected, nil, f.actorID)
	require.NoError(t, err)

	_, err = f.manager.Resolve(ctx, dispute.ID, models.DisputeOutcomeResolvedPaid, int64Ptr(100), f.actorID)
	var stateErr *InvalidRecordStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, models.DisputeStatusResolved, stateErr.CurrentStatus)
}

func TestResolveUnknownOutcomeRejected(t *testing.T) {
	f := newDisputeFixture(t)

	_, err := f.manager.Resolve(context.Background(), primitive.NewObjectID(), "settled", nil, f.actorID)
	var dataErr *InsufficientDataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, "outcome", dataErr.Field)
}
