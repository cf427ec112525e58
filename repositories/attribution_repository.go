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

// AttributionRepository stores sales attributions. The unique index on
// orderId makes InsertAttribution an atomic check-and-insert.
type AttributionRepository struct {
	collection *mongo.Collection
}

func NewAttributionRepository(db *mongo.Client) *AttributionRepository {
	return &AttributionRepository{
		collection: db.Database(config.DatabaseName()).Collection("sales_attributions"),
	}
}

func (r *AttributionRepository) InsertAttribution(ctx context.Context, a *models.SalesAttribution) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, a)
	return mapErr(err)
}

func (r *AttributionRepository) AttributionByOrder(ctx context.Context, orderID string) (*models.SalesAttribution, error) {
	var attribution models.SalesAttribution
	err := r.collection.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&attribution)
	if err != nil {
		return nil, mapErr(err)
	}
	return &attribution, nil
}

func (r *AttributionRepository) AttributionsForAgent(ctx context.Context, agentID primitive.ObjectID, limit int64) ([]models.SalesAttribution, error) {
	opts := optionsFindNewestFirst(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"agentId": agentID}, opts)
	if err != nil {
		return nil, mapErr(err)
	}
	defer cursor.Close(ctx)

	var attributions []models.SalesAttribution
	if err := cursor.All(ctx, &attributions); err != nil {
		return nil, mapErr(err)
	}
	return attributions, nil
}

// LinkRepository stores trackable links and their counters.
type LinkRepository struct {
	collection *mongo.Collection
}

func NewLinkRepository(db *mongo.Client) *LinkRepository {
	return &LinkRepository{
		collection: db.Database(config.DatabaseName()).Collection("trackable_links"),
	}
}

func (r *LinkRepository) InsertLink(ctx context.Context, l *models.TrackableLink) error {
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, l)
	return mapErr(err)
}

func (r *LinkRepository) LinkByID(ctx context.Context, id primitive.ObjectID) (*models.TrackableLink, error) {
	var link models.TrackableLink
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&link)
	if err != nil {
		return nil, mapErr(err)
	}
	return &link, nil
}

func (r *LinkRepository) LinkByCode(ctx context.Context, code string) (*models.TrackableLink, error) {
	var link models.TrackableLink
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&link)
	if err != nil {
		return nil, mapErr(err)
	}
	return &link, nil
}

func (r *LinkRepository) RecordClick(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"clickCount": 1},
	})
	return mapErr(err)
}

// ApplyConversion moves all three counters in one update so a conversion is
// never half-applied.
func (r *LinkRepository) ApplyConversion(ctx context.Context, id primitive.ObjectID, revenueCents, commissionCents int64) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{
			"conversionCount":  1,
			"revenueGenerated": revenueCents,
			"commissionEarned": commissionCents,
		},
	})
	return mapErr(err)
}

func optionsFindNewestFirst(limit int64) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return opts
}

func (r *LinkRepository) LinksForAgent(ctx context.Context, agentID primitive.ObjectID) ([]models.TrackableLink, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"agentId": agentID})
	if err != nil {
		return nil, mapErr(err)
	}
	defer cursor.Close(ctx)

	var links []models.TrackableLink
	if err := cursor.All(ctx, &links); err != nil {
		return nil, mapErr(err)
	}
	return links, nil
}
