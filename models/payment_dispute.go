package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Dispute lifecycle
const (
	DisputeStatusOpen     = "open"
	DisputeStatusResolved = "resolved"

	DisputeOutcomeResolvedPaid     = "resolved_paid"
	DisputeOutcomeResolvedRejected = "resolved_rejected"
)

// PaymentDispute challenges one commission record. Resolution may adjust the
// payable amount, but a closed payout batch is never reopened: the delta
// lands in a new adjustment record.
type PaymentDispute struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	RecordID           primitive.ObjectID  `bson:"recordId" json:"recordId"`
	OrganizerID        primitive.ObjectID  `bson:"organizerId" json:"organizerId"`
	AgentID            primitive.ObjectID  `bson:"agentId" json:"agentId"`
	Type               string              `bson:"type" json:"type"` // e.g. "amount", "attribution", "refund"
	AmountDisputed     int64               `bson:"amountDisputed" json:"amountDisputed"`
	Evidence           string              `bson:"evidence,omitempty" json:"evidence,omitempty"`
	Status             string              `bson:"status" json:"status"`
	Outcome            string              `bson:"outcome,omitempty" json:"outcome,omitempty"`
	ResolutionAmount   *int64              `bson:"resolutionAmount,omitempty" json:"resolutionAmount,omitempty"`
	AdjustmentRecordID *primitive.ObjectID `bson:"adjustmentRecordId,omitempty" json:"adjustmentRecordId,omitempty"`
	OpenedBy           primitive.ObjectID  `bson:"openedBy,omitempty" json:"openedBy,omitempty"`
	ResolvedBy         *primitive.ObjectID `bson:"resolvedBy,omitempty" json:"resolvedBy,omitempty"`
	OpenedAt           time.Time           `bson:"openedAt" json:"openedAt"`
	ResolvedAt         *time.Time          `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
}
