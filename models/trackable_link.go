package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrackableLink is a shareable sales link owned by one agent permission.
// Conversion counters are updated atomically with the attribution insert.
type TrackableLink struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Code              string              `bson:"code" json:"code"`
	AgentPermissionID primitive.ObjectID  `bson:"agentPermissionId" json:"agentPermissionId"`
	AgentID           primitive.ObjectID  `bson:"agentId" json:"agentId"`
	OrganizerID       primitive.ObjectID  `bson:"organizerId" json:"organizerId"`
	EventID           *primitive.ObjectID `bson:"eventId,omitempty" json:"eventId,omitempty"`
	ClickCount        int64               `bson:"clickCount" json:"clickCount"`
	ConversionCount   int64               `bson:"conversionCount" json:"conversionCount"`
	RevenueGenerated  int64               `bson:"revenueGenerated" json:"revenueGenerated"` // cents
	CommissionEarned  int64               `bson:"commissionEarned" json:"commissionEarned"` // cents
	Active            bool                `bson:"active" json:"active"`
	CreatedAt         time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updatedAt" json:"updatedAt"`
}
