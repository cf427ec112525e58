package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Commission record lifecycle states.
//
//	pending -> approved -> paid
//	pending|approved -> disputed -> resolved_paid | resolved_rejected
//	any non-terminal -> cancelled
//
// Terminal: paid, resolved_rejected, cancelled. resolved_paid behaves like
// paid for batching.
const (
	RecordStatusPending          = "pending"
	RecordStatusApproved         = "approved"
	RecordStatusPaid             = "paid"
	RecordStatusDisputed         = "disputed"
	RecordStatusResolvedPaid     = "resolved_paid"
	RecordStatusResolvedRejected = "resolved_rejected"
	RecordStatusCancelled        = "cancelled"
)

var recordTransitions = map[string][]string{
	RecordStatusPending:  {RecordStatusApproved, RecordStatusDisputed, RecordStatusCancelled},
	RecordStatusApproved: {RecordStatusPaid, RecordStatusDisputed, RecordStatusCancelled},
	RecordStatusDisputed: {RecordStatusResolvedPaid, RecordStatusResolvedRejected, RecordStatusCancelled},
}

// CanTransitionRecord reports whether a status change is allowed by the
// ledger state machine.
func CanTransitionRecord(from, to string) bool {
	for _, next := range recordTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RecordStatusesAllowing returns every status a record may currently be in
// for a move into the given status to be legal.
func RecordStatusesAllowing(to string) []string {
	var from []string
	for _, status := range []string{
		RecordStatusPending, RecordStatusApproved, RecordStatusPaid,
		RecordStatusDisputed, RecordStatusResolvedPaid,
		RecordStatusResolvedRejected, RecordStatusCancelled,
	} {
		if CanTransitionRecord(status, to) {
			from = append(from, status)
		}
	}
	return from
}

// IsTerminalRecordStatus reports whether a record can no longer move
// (disputes on paid records settle through adjustment records instead).
func IsTerminalRecordStatus(status string) bool {
	switch status {
	case RecordStatusPaid, RecordStatusResolvedPaid, RecordStatusResolvedRejected, RecordStatusCancelled:
		return true
	}
	return false
}

// CommissionAudit is one append-only audit-trail entry. The trail is never
// edited or deleted.
type CommissionAudit struct {
	Action      string             `bson:"action" json:"action"`
	PerformedBy primitive.ObjectID `bson:"performedBy,omitempty" json:"performedBy,omitempty"`
	PerformedAt time.Time          `bson:"performedAt" json:"performedAt"`
	Details     string             `bson:"details,omitempty" json:"details,omitempty"`
}

// CommissionRecord is the payable ledger entry. Amounts in cents.
type CommissionRecord struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrganizerID       primitive.ObjectID  `bson:"organizerId" json:"organizerId"`
	AgentID           primitive.ObjectID  `bson:"agentId" json:"agentId"`
	AgentPermissionID primitive.ObjectID  `bson:"agentPermissionId" json:"agentPermissionId"`
	OrderID           string              `bson:"orderId,omitempty" json:"orderId,omitempty"`
	AttributionID     *primitive.ObjectID `bson:"attributionId,omitempty" json:"attributionId,omitempty"`
	SaleAmount        int64               `bson:"saleAmount,omitempty" json:"saleAmount,omitempty"`
	GrossAmount       int64               `bson:"grossAmount" json:"grossAmount"`
	BonusAmount       int64               `bson:"bonusAmount,omitempty" json:"bonusAmount,omitempty"`
	NetAmount         int64               `bson:"netAmount" json:"netAmount"`
	Currency          string              `bson:"currency" json:"currency"`
	RateUsed          float64             `bson:"rateUsed" json:"rateUsed"`
	RateSource        string              `bson:"rateSource" json:"rateSource"`
	WasClamped        bool                `bson:"wasClamped,omitempty" json:"wasClamped,omitempty"`
	LimitType         string              `bson:"limitType,omitempty" json:"limitType,omitempty"`
	Status            string              `bson:"status" json:"status"`
	StatusHistory     []CommissionAudit   `bson:"statusHistory" json:"statusHistory"`
	PayoutBatchID     *primitive.ObjectID `bson:"payoutBatchId,omitempty" json:"payoutBatchId,omitempty"`
	PaidAt            *time.Time          `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	AdjustmentOf      *primitive.ObjectID `bson:"adjustmentOf,omitempty" json:"adjustmentOf,omitempty"`
	CreatedAt         time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updatedAt" json:"updatedAt"`
}
