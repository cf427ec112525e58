package services

import (
	"context"
	"encoding/csv"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eventra/eventra_backend/models"
	"github.com/eventra/eventra_backend/utils"
)

// PayoutManager groups approved ledger entries into batches and pays them.
// A batch total is computed once at creation and never mutated; dispute
// adjustments settle in new ledger entries instead.
type PayoutManager struct {
	tx       TxRunner
	records  RecordStore
	batches  BatchStore
	users    UserStore
	notifier *Notifier
}

func NewPayoutManager(tx TxRunner, records RecordStore, batches BatchStore, users UserStore, notifier *Notifier) *PayoutManager {
	return &PayoutManager{tx: tx, records: records, batches: batches, users: users, notifier: notifier}
}

// CreateBatch builds a payout batch from approved records. Any record that is
// not currently approved fails the whole call.
func (p *PayoutManager) CreateBatch(ctx context.Context, organizerID primitive.ObjectID, paymentMethod string, recordIDs []primitive.ObjectID, actorID primitive.ObjectID) (*models.PayoutBatch, error) {
	if len(recordIDs) == 0 {
		return nil, &InvalidRecordStateError{AttemptedState: models.BatchStatusPending, BlockedRecords: []string{"no records supplied"}}
	}

	var batch *models.PayoutBatch
	err := p.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var (
			total    int64
			currency string
			blocked  []string
			earliest, latest time.Time
		)
		for _, id := range recordIDs {
			rec, err := p.records.RecordByID(ctx, id)
			if err != nil {
				if err == ErrNotFound {
					blocked = append(blocked, id.Hex()+" (not found)")
					continue
				}
				return err
			}
			if rec.OrganizerID != organizerID {
				blocked = append(blocked, id.Hex()+" (wrong organizer)")
				continue
			}
			if rec.Status != models.RecordStatusApproved {
				blocked = append(blocked, id.Hex()+" ("+rec.Status+")")
				continue
			}
			total += rec.NetAmount
			if currency == "" {
				currency = rec.Currency
			}
			if earliest.IsZero() || rec.CreatedAt.Before(earliest) {
				earliest = rec.CreatedAt
			}
			if rec.CreatedAt.After(latest) {
				latest = rec.CreatedAt
			}
		}
		if len(blocked) > 0 {
			return &InvalidRecordStateError{AttemptedState: "batched", BlockedRecords: blocked}
		}

		now := time.Now()
		batch = &models.PayoutBatch{
			ID:            primitive.NewObjectID(),
			Reference:     uuid.New().String(),
			OrganizerID:   organizerID,
			PaymentMethod: paymentMethod,
			PeriodStart:   earliest,
			PeriodEnd:     latest,
			RecordIDs:     recordIDs,
			TotalAmount:   total,
			Currency:      currency,
			Status:        models.BatchStatusPending,
			CreatedBy:     actorID,
			CreatedAt:     now,
		}
		if err := p.batches.InsertBatch(ctx, batch); err != nil {
			return err
		}
		return p.records.SetRecordBatch(ctx, recordIDs, batch.ID)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Created payout batch %s: %d records, total %d cents", batch.Reference, len(batch.RecordIDs), batch.TotalAmount)
	return batch, nil
}

// ProcessBatch pays every member record in a single transaction. One blocked
// record (e.g. disputed mid-batch) fails the whole batch; there are no
// partially-paid batches.
func (p *PayoutManager) ProcessBatch(ctx context.Context, batchID, actorID primitive.ObjectID) (*models.PayoutBatch, error) {
	var batch *models.PayoutBatch
	err := p.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		batch, err = p.batches.BatchByID(ctx, batchID)
		if err != nil {
			return err
		}
		if batch.Status != models.BatchStatusPending {
			return &InvalidRecordStateError{
				RecordID:       batchID.Hex(),
				CurrentStatus:  batch.Status,
				AttemptedState: models.BatchStatusCompleted,
			}
		}

		// Verify every member is still payable before touching any of them.
		var blocked []string
		for _, id := range batch.RecordIDs {
			rec, err := p.records.RecordByID(ctx, id)
			if err != nil {
				return err
			}
			if rec.Status != models.RecordStatusApproved {
				blocked = append(blocked, id.Hex()+" ("+rec.Status+")")
			}
		}
		if len(blocked) > 0 {
			return &InvalidRecordStateError{AttemptedState: models.RecordStatusPaid, BlockedRecords: blocked}
		}

		now := time.Now()
		audit := models.CommissionAudit{
			Action:      models.RecordStatusPaid,
			PerformedBy: actorID,
			PerformedAt: now,
			Details:     "paid in batch " + batch.Reference,
		}
		for _, id := range batch.RecordIDs {
			if _, err := p.records.TransitionRecord(ctx, id, []string{models.RecordStatusApproved}, models.RecordStatusPaid, audit); err != nil {
				return err
			}
			if err := p.records.SetRecordPaid(ctx, id, now); err != nil {
				return err
			}
		}

		batch.Status = models.BatchStatusCompleted
		batch.ProcessedAt = &now
		return p.batches.UpdateBatchStatus(ctx, batchID, models.BatchStatusCompleted, &now)
	})
	if err != nil {
		// A blocked member leaves the batch untouched but the failure is
		// recorded so the organizer sees it needs rebuilding.
		if stateErr, ok := err.(*InvalidRecordStateError); ok && len(stateErr.BlockedRecords) > 0 {
			if markErr := p.batches.UpdateBatchStatus(ctx, batchID, models.BatchStatusFailed, nil); markErr != nil {
				log.Printf("Failed to mark batch %s failed: %v", batchID.Hex(), markErr)
			}
		}
		return nil, err
	}

	if p.notifier != nil {
		p.notifier.PayoutCompleted(batch)
	}
	return batch, nil
}

// Batches lists an organizer's payout batches.
func (p *PayoutManager) Batches(ctx context.Context, organizerID primitive.ObjectID) ([]models.PayoutBatch, error) {
	return p.batches.ListBatches(ctx, organizerID)
}

// ExportPaymentHistory streams the organizer's payment history as CSV for
// accounting: agent, period, sales, commission, net amount, status, payment
// method, paid date.
func (p *PayoutManager) ExportPaymentHistory(ctx context.Context, organizerID primitive.ObjectID, from, to *time.Time, w io.Writer) error {
	recs, err := p.records.ListRecords(ctx, RecordFilter{OrganizerID: organizerID, From: from, To: to})
	if err != nil {
		return err
	}

	// One pass over batches to resolve payment methods without N+1 lookups.
	batches, err := p.batches.ListBatches(ctx, organizerID)
	if err != nil {
		return err
	}
	methodByBatch := make(map[primitive.ObjectID]string, len(batches))
	for _, b := range batches {
		methodByBatch[b.ID] = b.PaymentMethod
	}

	agentNames := make(map[primitive.ObjectID]string)
	agentName := func(id primitive.ObjectID) string {
		if name, ok := agentNames[id]; ok {
			return name
		}
		name := id.Hex()
		if user, err := p.users.UserByID(ctx, id); err == nil {
			name = user.FullName
		}
		agentNames[id] = name
		return name
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"agent", "period", "sales", "commission", "net_amount", "status", "payment_method", "paid_date"}); err != nil {
		return err
	}
	for _, rec := range recs {
		method := ""
		if rec.PayoutBatchID != nil {
			method = methodByBatch[*rec.PayoutBatchID]
		}
		paidDate := ""
		if rec.PaidAt != nil {
			paidDate = rec.PaidAt.UTC().Format("2006-01-02")
		}
		row := []string{
			agentName(rec.AgentID),
			rec.CreatedAt.UTC().Format("2006-01"),
			utils.FormatCents(rec.SaleAmount),
			utils.FormatCents(rec.GrossAmount),
			utils.FormatCents(rec.NetAmount),
			rec.Status,
			method,
			paidDate,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
