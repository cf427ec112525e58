package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eventra/eventra_backend/models"
)

// DisputeManager lets a pending, approved or paid commission be challenged
// and resolved. Paid records are never mutated: a resolution for a different
// amount settles the delta in a new adjustment record, keeping every closed
// payout batch total intact.
type DisputeManager struct {
	tx       TxRunner
	records  RecordStore
	disputes DisputeStore
	ledger   *Ledger
	notifier *Notifier
}

func NewDisputeManager(tx TxRunner, records RecordStore, disputes DisputeStore, ledger *Ledger, notifier *Notifier) *DisputeManager {
	return &DisputeManager{tx: tx, records: records, disputes: disputes, ledger: ledger, notifier: notifier}
}

// Open raises a dispute against a record. Allowed only while the record is
// pending, approved or paid. Pending/approved records move to disputed; a
// paid record keeps its state and the dispute is tracked alongside it.
func (d *DisputeManager) Open(ctx context.Context, recordID primitive.ObjectID, disputeType string, amountDisputed int64, evidence string, actorID primitive.ObjectID) (*models.PaymentDispute, error) {
	var dispute *models.PaymentDispute
	err := d.tx.WithTransaction(ctx, func(ctx context.Context) error {
		rec, err := d.records.RecordByID(ctx, recordID)
		if err != nil {
			return err
		}

		switch rec.Status {
		case models.RecordStatusPending, models.RecordStatusApproved, models.RecordStatusPaid:
		default:
			return &InvalidRecordStateError{
				RecordID:       recordID.Hex(),
				CurrentStatus:  rec.Status,
				AttemptedState: models.RecordStatusDisputed,
			}
		}

		dispute = &models.PaymentDispute{
			ID:             primitive.NewObjectID(),
			RecordID:       recordID,
			OrganizerID:    rec.OrganizerID,
			AgentID:        rec.AgentID,
			Type:           disputeType,
			AmountDisputed: amountDisputed,
			Evidence:       evidence,
			Status:         models.DisputeStatusOpen,
			OpenedBy:       actorID,
			OpenedAt:       time.Now(),
		}
		if err := d.disputes.InsertDispute(ctx, dispute); err != nil {
			return err
		}

		if rec.Status == models.RecordStatusPaid {
			// Paid records stay paid; the open dispute rides along.
			return d.records.AppendAudit(ctx, recordID, models.CommissionAudit{
				Action:      "dispute_opened",
				PerformedBy: actorID,
				PerformedAt: time.Now(),
				Details:     "dispute " + dispute.ID.Hex() + " opened on paid record",
			})
		}

		_, err = d.ledger.markDisputed(ctx, recordID, actorID, dispute.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dispute, nil
}

// Resolve closes a dispute. resolved_paid with an amount differing from the
// original on a paid record creates a delta adjustment record; on an unpaid
// record it rewrites the payable amount directly.
func (d *DisputeManager) Resolve(ctx context.Context, disputeID primitive.ObjectID, outcome string, resolutionAmount *int64, actorID primitive.ObjectID) (*models.PaymentDispute, error) {
	if outcome != models.DisputeOutcomeResolvedPaid && outcome != models.DisputeOutcomeResolvedRejected {
		return nil, &InsufficientDataError{Field: "outcome", Reason: "must be resolved_paid or resolved_rejected"}
	}

	var dispute *models.PaymentDispute
	err := d.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		dispute, err = d.disputes.DisputeByID(ctx, disputeID)
		if err != nil {
			return err
		}
		if dispute.Status != models.DisputeStatusOpen {
			return &InvalidRecordStateError{
				RecordID:       disputeID.Hex(),
				CurrentStatus:  dispute.Status,
				AttemptedState: models.DisputeStatusResolved,
			}
		}

		rec, err := d.records.RecordByID(ctx, dispute.RecordID)
		if err != nil {
			return err
		}

		now := time.Now()

		if rec.Status == models.RecordStatusDisputed {
			// Unpaid record: the state machine finishes the dispute.
			if _, err := d.ledger.resolveDispute(ctx, rec.ID, actorID, outcome, disputeID); err != nil {
				return err
			}
			if outcome == models.DisputeOutcomeResolvedPaid && resolutionAmount != nil && *resolutionAmount != rec.NetAmount {
				if err := d.records.SetRecordNetAmount(ctx, rec.ID, *resolutionAmount); err != nil {
					return err
				}
			}
		} else if rec.Status == models.RecordStatusPaid && outcome == models.DisputeOutcomeResolvedPaid &&
			resolutionAmount != nil && *resolutionAmount != rec.NetAmount {
			// Paid record: settle the delta in a new adjustment entry. The
			// original record and its batch total stay untouched.
			delta := *resolutionAmount - rec.NetAmount
			adjustment := &models.CommissionRecord{
				ID:                primitive.NewObjectID(),
				OrganizerID:       rec.OrganizerID,
				AgentID:           rec.AgentID,
				AgentPermissionID: rec.AgentPermissionID,
				OrderID:           rec.OrderID,
				GrossAmount:       delta,
				NetAmount:         delta,
				Currency:          rec.Currency,
				RateUsed:          rec.RateUsed,
				RateSource:        rec.RateSource,
				Status:            models.RecordStatusApproved,
				AdjustmentOf:      &rec.ID,
				StatusHistory: []models.CommissionAudit{{
					Action:      "created",
					PerformedBy: actorID,
					PerformedAt: now,
					Details:     "adjustment from dispute " + disputeID.Hex(),
				}},
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := d.records.InsertRecord(ctx, adjustment); err != nil {
				return err
			}
			dispute.AdjustmentRecordID = &adjustment.ID
			if err := d.records.AppendAudit(ctx, rec.ID, models.CommissionAudit{
				Action:      "dispute_resolved",
				PerformedBy: actorID,
				PerformedAt: now,
				Details:     "adjustment record " + adjustment.ID.Hex(),
			}); err != nil {
				return err
			}
		} else if rec.Status == models.RecordStatusPaid {
			// Rejected, or resolved at the original amount: nothing to pay.
			if err := d.records.AppendAudit(ctx, rec.ID, models.CommissionAudit{
				Action:      "dispute_resolved",
				PerformedBy: actorID,
				PerformedAt: now,
				Details:     "dispute " + disputeID.Hex() + " " + outcome,
			}); err != nil {
				return err
			}
		} else {
			return &InvalidRecordStateError{
				RecordID:       rec.ID.Hex(),
				CurrentStatus:  rec.Status,
				AttemptedState: outcome,
			}
		}

		dispute.Status = models.DisputeStatusResolved
		dispute.Outcome = outcome
		dispute.ResolutionAmount = resolutionAmount
		dispute.ResolvedBy = &actorID
		dispute.ResolvedAt = &now
		return d.disputes.UpdateDispute(ctx, dispute)
	})
	if err != nil {
		return nil, err
	}

	if d.notifier != nil {
		d.notifier.DisputeResolved(dispute)
	}
	return dispute, nil
}

// Get returns one dispute.
func (d *DisputeManager) Get(ctx context.Context, id primitive.ObjectID) (*models.PaymentDispute, error) {
	return d.disputes.DisputeByID(ctx, id)
}
