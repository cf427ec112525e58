package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TierHistoryEntry records one tier assignment. Appended on every promotion
// and on period-rollover demotion; never rewritten.
type TierHistoryEntry struct {
	TierName               string    `bson:"tierName" json:"tierName"`
	PromotedAt             time.Time `bson:"promotedAt" json:"promotedAt"`
	SalesVolumeAtPromotion int64     `bson:"salesVolumeAtPromotion" json:"salesVolumeAtPromotion"`
	PriorTierDurationDays  int       `bson:"priorTierDurationDays" json:"priorTierDurationDays"`
}

// TierProgression is the per (agent, organizer) tier state. RollingSalesVolume
// is the sum of attributed sale amounts (cents) in the active period.
// Promotions happen immediately; demotions only at period rollover.
type TierProgression struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AgentID            primitive.ObjectID `bson:"agentId" json:"agentId"`
	OrganizerID        primitive.ObjectID `bson:"organizerId" json:"organizerId"`
	CurrentTier        string             `bson:"currentTier" json:"currentTier"`
	PeriodKey          string             `bson:"periodKey" json:"periodKey"` // "2026-08", UTC calendar month
	RollingSalesVolume int64              `bson:"rollingSalesVolume" json:"rollingSalesVolume"`
	TierHistory        []TierHistoryEntry `bson:"tierHistory" json:"tierHistory"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PeriodKeyFor returns the rolling-period key for a sale instant.
func PeriodKeyFor(t time.Time) string {
	return t.UTC().Format("2006-01")
}
