package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eventra/eventra_backend/models"
)

// Ledger owns the commission record state machine. Every transition attempt,
// accepted or rejected, lands in the record's append-only audit trail.
// Disputed state is entered and left only through the DisputeManager.
type Ledger struct {
	tx      TxRunner
	records RecordStore
}

func NewLedger(tx TxRunner, records RecordStore) *Ledger {
	return &Ledger{tx: tx, records: records}
}

// Approve moves a pending record to approved. Organizer-role only; the role
// check happens at the route guard, the actor id lands in the audit trail.
func (l *Ledger) Approve(ctx context.Context, recordID, actorID primitive.ObjectID) (*models.CommissionRecord, error) {
	return l.transition(ctx, recordID, actorID, models.RecordStatusApproved, "approved by organizer")
}

// MarkPaid marks a single approved record paid outside a batch (manual
// payout). The status change and the paidAt stamp commit together. Batched
// payouts go through the PayoutManager instead.
func (l *Ledger) MarkPaid(ctx context.Context, recordID, actorID primitive.ObjectID) (*models.CommissionRecord, error) {
	var rec *models.CommissionRecord
	err := l.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		rec, err = l.transition(ctx, recordID, actorID, models.RecordStatusPaid, "marked paid manually")
		if err != nil {
			return err
		}
		now := time.Now()
		if err := l.records.SetRecordPaid(ctx, recordID, now); err != nil {
			return err
		}
		rec.PaidAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Cancel voids a record from any non-terminal state.
func (l *Ledger) Cancel(ctx context.Context, recordID, actorID primitive.ObjectID, reason string) (*models.CommissionRecord, error) {
	details := "cancelled"
	if reason != "" {
		details = "cancelled: " + reason
	}
	return l.transition(ctx, recordID, actorID, models.RecordStatusCancelled, details)
}

// markDisputed and resolveDispute are internal: only the DisputeManager may
// enter or exit the disputed state.
func (l *Ledger) markDisputed(ctx context.Context, recordID, actorID primitive.ObjectID, disputeID primitive.ObjectID) (*models.CommissionRecord, error) {
	return l.transition(ctx, recordID, actorID, models.RecordStatusDisputed, "dispute opened "+disputeID.Hex())
}

func (l *Ledger) resolveDispute(ctx context.Context, recordID, actorID primitive.ObjectID, outcome string, disputeID primitive.ObjectID) (*models.CommissionRecord, error) {
	return l.transition(ctx, recordID, actorID, outcome, "dispute "+disputeID.Hex()+" "+outcome)
}

// List exposes ledger records to organizer tooling.
func (l *Ledger) List(ctx context.Context, f RecordFilter) ([]models.CommissionRecord, error) {
	return l.records.ListRecords(ctx, f)
}

// Get returns one record.
func (l *Ledger) Get(ctx context.Context, id primitive.ObjectID) (*models.CommissionRecord, error) {
	return l.records.RecordByID(ctx, id)
}

// transition performs an atomic compare-and-set into the target status. The
// set of legal source statuses comes from the model's transition table.
func (l *Ledger) transition(ctx context.Context, recordID, actorID primitive.ObjectID, to string, details string) (*models.CommissionRecord, error) {
	audit := models.CommissionAudit{
		Action:      to,
		PerformedBy: actorID,
		PerformedAt: time.Now(),
		Details:     details,
	}

	rec, err := l.records.TransitionRecord(ctx, recordID, models.RecordStatusesAllowing(to), to, audit)
	if err == nil {
		return rec, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	// Not in an allowed state - log the rejected attempt on the trail and
	// report the actual state.
	current, lookupErr := l.records.RecordByID(ctx, recordID)
	if lookupErr != nil {
		return nil, lookupErr
	}
	rejectedDetails := "attempted " + current.Status + " -> " + to
	if models.IsTerminalRecordStatus(current.Status) {
		rejectedDetails += " (terminal state)"
	}
	rejected := models.CommissionAudit{
		Action:      "transition_rejected",
		PerformedBy: actorID,
		PerformedAt: time.Now(),
		Details:     rejectedDetails,
	}
	if auditErr := l.records.AppendAudit(ctx, recordID, rejected); auditErr != nil {
		log.Printf("Failed to append rejected-transition audit for record %s: %v", recordID.Hex(), auditErr)
	}
	return nil, &InvalidRecordStateError{
		RecordID:       recordID.Hex(),
		CurrentStatus:  current.Status,
		AttemptedState: to,
	}
}
