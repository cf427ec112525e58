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

// ConfigRepository stores per-organizer commission configuration.
type ConfigRepository struct {
	collection *mongo.Collection
}

func NewConfigRepository(db *mongo.Client) *ConfigRepository {
	return &ConfigRepository{
		collection: db.Database(config.DatabaseName()).Collection("commission_configs"),
	}
}

func (r *ConfigRepository) ConfigByOrganizer(ctx context.Context, organizerID primitive.ObjectID) (*models.CommissionConfig, error) {
	var cfg models.CommissionConfig
	err := r.collection.FindOne(ctx, bson.M{"organizerId": organizerID}).Decode(&cfg)
	if err != nil {
		return nil, mapErr(err)
	}
	return &cfg, nil
}

func (r *ConfigRepository) SaveConfig(ctx context.Context, cfg *models.CommissionConfig) error {
	cfg.UpdatedAt = time.Now()
	if cfg.ID.IsZero() {
		cfg.ID = primitive.NewObjectID()
		cfg.CreatedAt = cfg.UpdatedAt
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"organizerId": cfg.OrganizerID}, cfg, opts)
	return mapErr(err)
}

// OverrideRepository stores per-agent commission rate overrides.
type OverrideRepository struct {
	collection *mongo.Collection
}

func NewOverrideRepository(db *mongo.Client) *OverrideRepository {
	return &OverrideRepository{
		collection: db.Database(config.DatabaseName()).Collection("commission_overrides"),
	}
}

func (r *OverrideRepository) OverridesForAgent(ctx context.Context, agentID, organizerID primitive.ObjectID) ([]models.AgentCommissionOverride, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"agentId": agentID, "organizerId": organizerID})
	if err != nil {
		return nil, mapErr(err)
	}
	defer cursor.Close(ctx)

	var overrides []models.AgentCommissionOverride
	if err := cursor.All(ctx, &overrides); err != nil {
		return nil, mapErr(err)
	}
	return overrides, nil
}

func (r *OverrideRepository) InsertOverride(ctx context.Context, o *models.AgentCommissionOverride) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, o)
	return mapErr(err)
}

func (r *OverrideRepository) DeleteOverride(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapErr(err)
	}
	if res.DeletedCount == 0 {
		return mapErr(mongo.ErrNoDocuments)
	}
	return nil
}

// PermissionRepository reads agent permissions. Permission management owns the
// writes; the engine only consumes them.
type PermissionRepository struct {
	collection *mongo.Collection
}

func NewPermissionRepository(db *mongo.Client) *PermissionRepository {
	return &PermissionRepository{
		collection: db.Database(config.DatabaseName()).Collection("agent_permissions"),
	}
}

func (r *PermissionRepository) PermissionByID(ctx context.Context, id primitive.ObjectID) (*models.AgentPermission, error) {
	var perm models.AgentPermission
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&perm)
	if err != nil {
		return nil, mapErr(err)
	}
	return &perm, nil
}

func (r *PermissionRepository) InsertPermission(ctx context.Context, perm *models.AgentPermission) error {
	if perm.ID.IsZero() {
		perm.ID = primitive.NewObjectID()
	}
	now := time.Now()
	perm.CreatedAt = now
	perm.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, perm)
	return mapErr(err)
}

func (r *PermissionRepository) PermissionsForOrganizer(ctx context.Context, organizerID primitive.ObjectID) ([]models.AgentPermission, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"organizerId": organizerID})
	if err != nil {
		return nil, mapErr(err)
	}
	defer cursor.Close(ctx)

	var perms []models.AgentPermission
	if err := cursor.All(ctx, &perms); err != nil {
		return nil, mapErr(err)
	}
	return perms, nil
}
