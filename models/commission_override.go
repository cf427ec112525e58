package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AgentCommissionOverride pins an explicit rate for one agent, optionally
// scoped to a single event, valid over [StartDate, EndDate). When several
// overrides match a sale instant the event-scoped one wins; ties go to the
// most recently created.
type AgentCommissionOverride struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	AgentID     primitive.ObjectID  `bson:"agentId" json:"agentId"`
	OrganizerID primitive.ObjectID  `bson:"organizerId" json:"organizerId"`
	EventID     *primitive.ObjectID `bson:"eventId,omitempty" json:"eventId,omitempty"`
	Rate        float64             `bson:"rate" json:"rate"` // percent
	StartDate   time.Time           `bson:"startDate" json:"startDate"`
	EndDate     time.Time           `bson:"endDate" json:"endDate"`
	CreatedBy   primitive.ObjectID  `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}

// Covers reports whether the override window contains the sale instant and,
// when the override is event-scoped, whether the event matches.
func (o *AgentCommissionOverride) Covers(at time.Time, eventID *primitive.ObjectID) bool {
	if at.Before(o.StartDate) || !at.Before(o.EndDate) {
		return false
	}
	if o.EventID == nil {
		return true
	}
	return eventID != nil && *o.EventID == *eventID
}
