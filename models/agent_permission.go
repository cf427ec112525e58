package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Commission type variants. Resolution branches on this tag; there is no
// ad-hoc field sniffing.
const (
	CommissionTypePercentage  = "percentage"
	CommissionTypeFixedAmount = "fixed_amount"
	CommissionTypeTiered      = "tiered"
)

// AgentPermission authorizes an agent to sell on an organizer's behalf.
// It is produced by agent-permission management and consumed read-only here.
// All money fields are in minor units (cents).
type AgentPermission struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AgentID               primitive.ObjectID `bson:"agentId" json:"agentId"`
	OrganizerID           primitive.ObjectID `bson:"organizerId" json:"organizerId"`
	CommissionType        string             `bson:"commissionType" json:"commissionType"`
	CommissionRate        float64            `bson:"commissionRate" json:"commissionRate"` // percent, e.g. 6.5
	CommissionFixedAmount int64              `bson:"commissionFixedAmount,omitempty" json:"commissionFixedAmount,omitempty"`
	MaxDailySales         int64              `bson:"maxDailySales,omitempty" json:"maxDailySales,omitempty"`     // daily commission cap, 0 = unlimited
	MaxMonthlySales       int64              `bson:"maxMonthlySales,omitempty" json:"maxMonthlySales,omitempty"` // monthly commission cap, 0 = unlimited
	Active                bool               `bson:"active" json:"active"`
	CreatedAt             time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time          `bson:"updatedAt" json:"updatedAt"`
}
