package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommissionConfig holds an organizer's commission setup. One per organizer.
// Never deleted while active agent permissions reference it.
type CommissionConfig struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizerID      primitive.ObjectID `bson:"organizerId" json:"organizerId"`
	DefaultRate      float64            `bson:"defaultRate" json:"defaultRate"` // percent
	TiersEnabled     bool               `bson:"tiersEnabled" json:"tiersEnabled"`
	OverridesEnabled bool               `bson:"overridesEnabled" json:"overridesEnabled"`
	Tiers            []CommissionTier   `bson:"tiers,omitempty" json:"tiers,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CommissionTier is a sales-volume band [MinSalesVolume, MaxSalesVolume).
// MaxSalesVolume nil means unbounded (the highest tier). Volumes are cents
// of attributed sales; rates are percentages.
type CommissionTier struct {
	Name            string  `bson:"name" json:"name"`
	MinSalesVolume  int64   `bson:"minSalesVolume" json:"minSalesVolume"`
	MaxSalesVolume  *int64  `bson:"maxSalesVolume,omitempty" json:"maxSalesVolume,omitempty"`
	CommissionRate  float64 `bson:"commissionRate" json:"commissionRate"`
	BonusPercentage float64 `bson:"bonusPercentage,omitempty" json:"bonusPercentage,omitempty"`
}
