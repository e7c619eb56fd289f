package risk

import (
	"context"

	"kademe-kys/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RiskRepository interface {
	Create(ctx context.Context, entry *RiskEntry) error
	FindByID(ctx context.Context, id string) (*RiskEntry, error)
	List(ctx context.Context, filter map[string]interface{}, limit, offset int64) ([]RiskEntry, int64, error)
	Update(ctx context.Context, id string, entry *RiskEntry) error
	Delete(ctx context.Context, id string) error
}

type RiskRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewRiskRepository(mongodb *database.MongodbDB) RiskRepository {
	return &RiskRepositoryImpl{
		Collection: mongodb.DB.Collection("risks"),
	}
}

func (r *RiskRepositoryImpl) Create(ctx context.Context, entry *RiskEntry) error {
	_, err := r.Collection.InsertOne(ctx, entry)
	return err
}

func (r *RiskRepositoryImpl) FindByID(ctx context.Context, id string) (*RiskEntry, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var entry RiskEntry
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *RiskRepositoryImpl) List(ctx context.Context, filter map[string]interface{}, limit, offset int64) ([]RiskEntry, int64, error) {
	query := bson.M{}
	for k, v := range filter {
		query[k] = v
	}

	total, err := r.Collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	// highest scored risks first
	opts := options.Find().SetLimit(limit).SetSkip(offset).SetSort(bson.D{{Key: "score", Value: -1}})
	cursor, err := r.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var entries []RiskEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *RiskRepositoryImpl) Update(ctx context.Context, id string, entry *RiskEntry) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"title":       entry.Title,
		"description": entry.Description,
		"category":    entry.Category,
		"unit":        entry.Unit,
		"severity":    entry.Severity,
		"likelihood":  entry.Likelihood,
		"score":       entry.Score,
		"mitigation":  entry.Mitigation,
		"owner":       entry.Owner,
		"status":      entry.Status,
		"workflow_id": entry.WorkflowID,
		"updated_at":  entry.UpdatedAt,
	}}
	_, err = r.Collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	return err
}

func (r *RiskRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
