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
	"github.com/eventra/eventra_backend/services"
)

// RecordRepository stores commission ledger entries. Status changes go through
// a single compare-and-set update so concurrent transitions cannot both win.
type RecordRepository struct {
	collection *mongo.Collection
}

func NewRecordRepository(db *mongo.Client) *RecordRepository {
	return &RecordRepository{
		collection: db.Database(config.DatabaseName()).Collection("commission_records"),
	}
}

func (r *RecordRepository) InsertRecord(ctx context.Context, rec *models.CommissionRecord) error {
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, rec)
	return mapErr(err)
}

func (r *RecordRepository) RecordByID(ctx context.Context, id primitive.ObjectID) (*models.CommissionRecord, error) {
	var rec models.CommissionRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		return nil, mapErr(err)
	}
	return &rec, nil
}

func (r *RecordRepository) ListRecords(ctx context.Context, f services.RecordFilter) ([]models.CommissionRecord, error) {
	filter := bson.M{"organizerId": f.OrganizerID}
	if f.AgentID != nil {
		filter["agentId"] = *f.AgentID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.From != nil || f.To != nil {
		window := bson.M{}
		if f.From != nil {
			window["$gte"] = *f.From
		}
		if f.To != nil {
			window["$lt"] = *f.To
		}
		filter["createdAt"] = window
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, mapErr(err)
	}
	defer cursor.Close(ctx)

	var records []models.CommissionRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, mapErr(err)
	}
	return records, nil
}

func (r *RecordRepository) SumCommissionInWindow(ctx context.Context, agentID, organizerID primitive.ObjectID, from, to time.Time) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"agentId":     agentID,
			"organizerId": organizerID,
			"status":      bson.M{"$ne": models.RecordStatusCancelled},
			"createdAt":   bson.M{"$gte": from, "$lt": to},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$grossAmount"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, mapErr(err)
	}
	defer cursor.Close(ctx)

	var result []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, mapErr(err)
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Total, nil
}

func (r *RecordRepository) TransitionRecord(ctx context.Context, id primitive.ObjectID, fromStatuses []string, toStatus string, audit models.CommissionAudit) (*models.CommissionRecord, error) {
	filter := bson.M{"_id": id, "status": bson.M{"$in": fromStatuses}}
	update := bson.M{
		"$set":  bson.M{"status": toStatus, "updatedAt": time.Now()},
		"$push": bson.M{"statusHistory": audit},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec models.CommissionRecord
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec)
	if err != nil {
		return nil, mapErr(err)
	}
	return &rec, nil
}

func (r *RecordRepository) AppendAudit(ctx context.Context, id primitive.ObjectID, audit models.CommissionAudit) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"statusHistory": audit},
	})
	return mapErr(err)
}

func (r *RecordRepository) SetRecordBatch(ctx context.Context, ids []primitive.ObjectID, batchID primitive.ObjectID) error {
	_, err := r.collection.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, bson.M{
		"$set": bson.M{"payoutBatchId": batchID, "updatedAt": time.Now()},
	})
	return mapErr(err)
}

func (r *RecordRepository) SetRecordPaid(ctx context.Context, id primitive.ObjectID, paidAt time.Time) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"paidAt": paidAt, "updatedAt": time.Now()},
	})
	return mapErr(err)
}

func (r *RecordRepository) SetRecordNetAmount(ctx context.Context, id primitive.ObjectID, netAmount int64) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"netAmount": netAmount, "updatedAt": time.Now()},
	})
	return mapErr(err)
}

// BatchRepository stores payout batches.
type BatchRepository struct {
	collection *mongo.Collection
}

func NewBatchRepository(db *mongo.Client) *BatchRepository {
	return &BatchRepository{
		collection: db.Database(config.DatabaseName()).Collection("payout_batches"),
	}
}

func (r *BatchRepository) InsertBatch(ctx context.Context, b *models.PayoutBatch) error {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, b)
	return mapErr(err)
}

func (r *BatchRepository) BatchByID(ctx context.Context, id primitive.ObjectID) (*models.PayoutBatch, error) {
	var batch models.PayoutBatch
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&batch)
	if err != nil {
		return nil, mapErr(err)
	}
	return &batch, nil
}

func (r *BatchRepository) ListBatches(ctx context.Context, organizerID primitive.ObjectID) ([]models.PayoutBatch, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"organizerId": organizerID}, opts)
	if err != nil {
		return nil, mapErr(err)
	}
	defer cursor.Close(ctx)

	var batches []models.PayoutBatch
	if err := cursor.All(ctx, &batches); err != nil {
		return nil, mapErr(err)
	}
	return batches, nil
}

func (r *BatchRepository) UpdateBatchStatus(ctx context.Context, id primitive.ObjectID, status string, processedAt *time.Time) error {
	set := bson.M{"status": status}
	if processedAt != nil {
		set["processedAt"] = *processedAt
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return mapErr(err)
}

// DisputeRepository stores payment disputes.
type DisputeRepository struct {
	collection *mongo.Collection
}

func NewDisputeRepository(db *mongo.Client) *DisputeRepository {
	return &DisputeRepository{
		collection: db.Database(config.DatabaseName()).Collection("payment_disputes"),
	}
}

func (r *DisputeRepository) InsertDispute(ctx context.Context, d *models.PaymentDispute) error {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, d)
	return mapErr(err)
}

func (r *DisputeRepository) DisputeByID(ctx context.Context, id primitive.ObjectID) (*models.PaymentDispute, error) {
	var dispute models.PaymentDispute
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&dispute)
	if err != nil {
		return nil, mapErr(err)
	}
	return &dispute, nil
}

func (r *DisputeRepository) UpdateDispute(ctx context.Context, d *models.PaymentDispute) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": d.ID}, d)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return mapErr(mongo.ErrNoDocuments)
	}
	return nil
}
