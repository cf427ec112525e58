package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payout batch states
const (
	BatchStatusPending   = "pending"
	BatchStatusCompleted = "completed"
	BatchStatusFailed    = "failed"
)

// PayoutBatch groups approved commission records for one payment run.
// TotalAmount is fixed at creation; later disputes on member records settle
// through adjustment records, never through batch mutation.
type PayoutBatch struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Reference     string               `bson:"reference" json:"reference"` // external payout reference (uuid)
	OrganizerID   primitive.ObjectID   `bson:"organizerId" json:"organizerId"`
	PaymentMethod string               `bson:"paymentMethod" json:"paymentMethod"`
	PeriodStart   time.Time            `bson:"periodStart" json:"periodStart"`
	PeriodEnd     time.Time            `bson:"periodEnd" json:"periodEnd"`
	RecordIDs     []primitive.ObjectID `bson:"recordIds" json:"recordIds"`
	TotalAmount   int64                `bson:"totalAmount" json:"totalAmount"` // cents
	Currency      string               `bson:"currency" json:"currency"`
	Status        string               `bson:"status" json:"status"`
	ProcessedAt   *time.Time           `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
	CreatedBy     primitive.ObjectID   `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
}
