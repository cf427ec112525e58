package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attribution methods
const (
	AttributionMethodTrackableLink = "trackable_link"
	AttributionMethodPromoCode     = "promo_code"
	AttributionMethodManual        = "manual"
)

// SaleCompletedEvent is the payload delivered by the order/checkout
// subsystem. Delivery is at-least-once; OrderID is the idempotency key.
type SaleCompletedEvent struct {
	OrderID           string            `json:"orderId" validate:"required"`
	AgentPermissionID string            `json:"agentPermissionId" validate:"required"`
	SaleAmount        int64             `json:"saleAmount" validate:"required,gt=0"` // cents
	Currency          string            `json:"currency" validate:"required,len=3"`
	EventID           string            `json:"eventId,omitempty"`
	AttributionMethod string            `json:"attributionMethod" validate:"required,oneof=trackable_link promo_code manual"`
	LinkID            string            `json:"linkId,omitempty"`
	ReferrerData      map[string]string `json:"referrerData,omitempty"`
	OccurredAt        time.Time         `json:"occurredAt" validate:"required"`
}

// SalesAttribution links one order to exactly one agent permission.
// Immutable once written; at most one per OrderID (unique index).
type SalesAttribution struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrderID            string              `bson:"orderId" json:"orderId"`
	AgentPermissionID  primitive.ObjectID  `bson:"agentPermissionId" json:"agentPermissionId"`
	AgentID            primitive.ObjectID  `bson:"agentId" json:"agentId"`
	OrganizerID        primitive.ObjectID  `bson:"organizerId" json:"organizerId"`
	EventID            *primitive.ObjectID `bson:"eventId,omitempty" json:"eventId,omitempty"`
	SaleAmount         int64               `bson:"saleAmount" json:"saleAmount"` // cents
	Currency           string              `bson:"currency" json:"currency"`
	Method             string              `bson:"method" json:"method"`
	LinkID             *primitive.ObjectID `bson:"linkId,omitempty" json:"linkId,omitempty"`
	ReferrerData       map[string]string   `bson:"referrerData,omitempty" json:"referrerData,omitempty"`
	CommissionAmount   int64               `bson:"commissionAmount" json:"commissionAmount"` // cents, after clamping
	BonusAmount        int64               `bson:"bonusAmount,omitempty" json:"bonusAmount,omitempty"`
	CommissionRateUsed float64             `bson:"commissionRateUsed" json:"commissionRateUsed"`
	RateSource         string              `bson:"rateSource" json:"rateSource"` // "override" | "tier" | "default" | "fixed"
	OccurredAt         time.Time           `bson:"occurredAt" json:"occurredAt"`
	CreatedAt          time.Time           `bson:"createdAt" json:"createdAt"`
}
