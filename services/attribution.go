package services

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eventra/eventra_backend/models"
)

// AttributionRecorder is the entry point for "sale completed" events. It
// records which agent caused a sale exactly once per order, resolves the
// commission, enforces caps and writes the pending ledger entry - all in one
// transaction.
type AttributionRecorder struct {
	tx           TxRunner
	permissions  PermissionStore
	attributions AttributionStore
	links        LinkStore
	records      RecordStore
	resolver     *RateResolver
	tracker      *TierTracker
	limits       *LimitEnforcer
	notifier     *Notifier
}

func NewAttributionRecorder(tx TxRunner, permissions PermissionStore, attributions AttributionStore,
	links LinkStore, records RecordStore, resolver *RateResolver, tracker *TierTracker,
	limits *LimitEnforcer, notifier *Notifier) *AttributionRecorder {
	return &AttributionRecorder{
		tx:           tx,
		permissions:  permissions,
		attributions: attributions,
		links:        links,
		records:      records,
		resolver:     resolver,
		tracker:      tracker,
		limits:       limits,
		notifier:     notifier,
	}
}

// Attribute processes one sale event. Safe under at-least-once delivery: a
// redelivered order returns DuplicateAttributionError carrying the existing
// attribution, and no counter moves twice.
func (a *AttributionRecorder) Attribute(ctx context.Context, evt *models.SaleCompletedEvent) (*models.SalesAttribution, error) {
	if err := validateSaleEvent(evt); err != nil {
		return nil, err
	}

	permID, err := primitive.ObjectIDFromHex(evt.AgentPermissionID)
	if err != nil {
		return nil, &InsufficientDataError{Field: "agentPermissionId", Reason: "not a valid id"}
	}

	var eventID *primitive.ObjectID
	if evt.EventID != "" {
		id, err := primitive.ObjectIDFromHex(evt.EventID)
		if err != nil {
			return nil, &InsufficientDataError{Field: "eventId", Reason: "not a valid id"}
		}
		eventID = &id
	}

	var linkID *primitive.ObjectID
	if evt.LinkID != "" {
		id, err := primitive.ObjectIDFromHex(evt.LinkID)
		if err != nil {
			return nil, &InsufficientDataError{Field: "linkId", Reason: "not a valid id"}
		}
		linkID = &id
	}

	// Fast path for redeliveries; the unique index inside the transaction
	// remains the authoritative guard.
	if existing, err := a.attributions.AttributionByOrder(ctx, evt.OrderID); err == nil && existing != nil {
		return existing, &DuplicateAttributionError{OrderID: evt.OrderID, Existing: existing}
	} else if err != nil && err != ErrNotFound {
		return nil, err
	}

	perm, err := a.permissions.PermissionByID(ctx, permID)
	if err != nil {
		if err == ErrNotFound {
			return nil, &InsufficientDataError{Field: "agentPermissionId", Reason: "permission not found"}
		}
		return nil, err
	}
	if !perm.Active {
		return nil, &InsufficientDataError{Field: "agentPermissionId", Reason: "permission is inactive"}
	}

	var (
		attribution *models.SalesAttribution
		promoted    bool
		prog        *models.TierProgression
	)

	txErr := a.tx.WithTransaction(ctx, func(ctx context.Context) error {
		// Fold the sale into the rolling volume first: a sale that crosses a
		// tier boundary earns the new tier's rate (promotion is immediate).
		var err error
		prog, promoted, err = a.tracker.RecordSale(ctx, perm.AgentID, perm.OrganizerID, evt.SaleAmount, evt.OccurredAt)
		if err != nil {
			return err
		}

		rate, err := a.resolver.Resolve(ctx, perm, eventID, evt.OccurredAt)
		if err != nil {
			return err
		}
		gross, bonus := rate.CommissionFor(evt.SaleAmount)

		limit, err := a.limits.Enforce(ctx, perm, gross, evt.OccurredAt)
		if err != nil {
			return err
		}

		now := time.Now()
		attribution = &models.SalesAttribution{
			ID:                 primitive.NewObjectID(),
			OrderID:            evt.OrderID,
			AgentPermissionID:  perm.ID,
			AgentID:            perm.AgentID,
			OrganizerID:        perm.OrganizerID,
			EventID:            eventID,
			SaleAmount:         evt.SaleAmount,
			Currency:           evt.Currency,
			Method:             evt.AttributionMethod,
			LinkID:             linkID,
			ReferrerData:       evt.ReferrerData,
			CommissionAmount:   limit.FinalAmount,
			BonusAmount:        bonus,
			CommissionRateUsed: rate.Rate,
			RateSource:         rate.Source,
			OccurredAt:         evt.OccurredAt,
			CreatedAt:          now,
		}
		if err := a.attributions.InsertAttribution(ctx, attribution); err != nil {
			return err
		}

		record := &models.CommissionRecord{
			ID:                primitive.NewObjectID(),
			OrganizerID:       perm.OrganizerID,
			AgentID:           perm.AgentID,
			AgentPermissionID: perm.ID,
			OrderID:           evt.OrderID,
			AttributionID:     &attribution.ID,
			SaleAmount:        evt.SaleAmount,
			GrossAmount:       limit.FinalAmount,
			BonusAmount:       bonus,
			NetAmount:         limit.FinalAmount + bonus,
			Currency:          evt.Currency,
			RateUsed:          rate.Rate,
			RateSource:        rate.Source,
			WasClamped:        limit.WasClamped,
			LimitType:         limit.LimitType,
			Status:            models.RecordStatusPending,
			StatusHistory: []models.CommissionAudit{{
				Action:      "created",
				PerformedAt: now,
				Details:     "attributed sale " + evt.OrderID,
			}},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := a.records.InsertRecord(ctx, record); err != nil {
			return err
		}

		// Link counters move in the same transaction as the attribution.
		if linkID != nil {
			if err := a.links.ApplyConversion(ctx, *linkID, evt.SaleAmount, limit.FinalAmount+bonus); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, ErrDuplicateKey) {
			// Lost the race against a concurrent delivery of the same order.
			existing, ferr := a.attributions.AttributionByOrder(ctx, evt.OrderID)
			if ferr != nil {
				return nil, &DuplicateAttributionError{OrderID: evt.OrderID}
			}
			return existing, &DuplicateAttributionError{OrderID: evt.OrderID, Existing: existing}
		}
		return nil, txErr
	}

	if promoted && a.notifier != nil {
		a.notifier.TierPromoted(perm.AgentID, perm.OrganizerID, prog.CurrentTier, prog.RollingSalesVolume)
	}
	log.Printf("Attributed order %s to agent %s: commission %d cents (%s)",
		evt.OrderID, perm.AgentID.Hex(), attribution.CommissionAmount, attribution.RateSource)

	return attribution, nil
}

func validateSaleEvent(evt *models.SaleCompletedEvent) error {
	switch {
	case evt.OrderID == "":
		return &InsufficientDataError{Field: "orderId", Reason: "required"}
	case evt.AgentPermissionID == "":
		return &InsufficientDataError{Field: "agentPermissionId", Reason: "required"}
	case evt.SaleAmount <= 0:
		return &InsufficientDataError{Field: "saleAmount", Reason: "must be positive"}
	case len(evt.Currency) != 3:
		return &InsufficientDataError{Field: "currency", Reason: "must be a 3-letter code"}
	case evt.OccurredAt.IsZero():
		return &InsufficientDataError{Field: "occurredAt", Reason: "required"}
	}
	switch evt.AttributionMethod {
	case models.AttributionMethodTrackableLink, models.AttributionMethodPromoCode, models.AttributionMethodManual:
	default:
		return &InsufficientDataError{Field: "attributionMethod", Reason: "unknown method"}
	}
	if evt.AttributionMethod == models.AttributionMethodTrackableLink && evt.LinkID == "" {
		return &InsufficientDataError{Field: "linkId", Reason: "required for trackable_link attribution"}
	}
	return nil
}
