package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eventra/eventra_backend/config"
	"github.com/eventra/eventra_backend/models"
)

// ProgressionRepository stores per (agent, organizer) tier state. The compound
// unique index keeps one progression document per pair.
type ProgressionRepository struct {
	collection *mongo.Collection
}

func NewProgressionRepository(db *mongo.Client) *ProgressionRepository {
	return &ProgressionRepository{
		collection: db.Database(config.DatabaseName()).Collection("tier_progressions"),
	}
}

func (r *ProgressionRepository) Progression(ctx context.Context, agentID, organizerID primitive.ObjectID) (*models.TierProgression, error) {
	var prog models.TierProgression
	err := r.collection.FindOne(ctx, bson.M{"agentId": agentID, "organizerId": organizerID}).Decode(&prog)
	if err != nil {
		return nil, mapErr(err)
	}
	return &prog, nil
}

func (r *ProgressionRepository) SaveProgression(ctx context.Context, p *models.TierProgression) error {
	p.UpdatedAt = time.Now()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
		p.CreatedAt = p.UpdatedAt
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"agentId": p.AgentID, "organizerId": p.OrganizerID}, p, opts)
	return mapErr(err)
}

func (r *ProgressionRepository) ProgressionsForOrganizer(ctx context.Context, organizerID primitive.ObjectID) ([]models.TierProgression, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"organizerId": organizerID})
	if err != nil {
		return nil, mapErr(err)
	}
	defer cursor.Close(ctx)

	var progressions []models.TierProgression
	if err := cursor.All(ctx, &progressions); err != nil {
		return nil, mapErr(err)
	}
	return progressions, nil
}
