package qualitycost

import (
	"context"

	"kademe-kys/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CostRepository interface {
	Create(ctx context.Context, entry *CostEntry) error
	CreateMany(ctx context.Context, entries []CostEntry) (int, error)
	FindByID(ctx context.Context, id string) (*CostEntry, error)
	List(ctx context.Context, filter map[string]interface{}, limit, offset int64) ([]CostEntry, int64, error)
	SummarizeByUnit(ctx context.Context, filter map[string]interface{}) ([]UnitSummary, error)
	Update(ctx context.Context, id string, entry *CostEntry) error
	Delete(ctx context.Context, id string) error
}

type CostRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewCostRepository(mongodb *database.MongodbDB) CostRepository {
	return &CostRepositoryImpl{
		Collection: mongodb.DB.Collection("quality_costs"),
	}
}

func (r *CostRepositoryImpl) Create(ctx context.Context, entry *CostEntry) error {
	_, err := r.Collection.InsertOne(ctx, entry)
	return err
}

func (r *CostRepositoryImpl) CreateMany(ctx context.Context, entries []CostEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	docs := make([]interface{}, len(entries))
	for i := range entries {
		docs[i] = entries[i]
	}
	res, err := r.Collection.InsertMany(ctx, docs)
	if err != nil {
		return 0, err
	}
	return len(res.InsertedIDs), nil
}

func (r *CostRepositoryImpl) FindByID(ctx context.Context, id string) (*CostEntry, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var entry CostEntry
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *CostRepositoryImpl) List(ctx context.Context, filter map[string]interface{}, limit, offset int64) ([]CostEntry, int64, error) {
	query := bson.M{}
	for k, v := range filter {
		query[k] = v
	}

	total, err := r.Collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetLimit(limit).SetSkip(offset).SetSort(bson.D{{Key: "incurred_at", Value: -1}})
	cursor, err := r.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var entries []CostEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *CostRepositoryImpl) SummarizeByUnit(ctx context.Context, filter map[string]interface{}) ([]UnitSummary, error) {
	match := bson.M{}
	for k, v := range filter {
		match[k] = v
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$unit",
			"total": bson.M{"$sum": "$amount"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"total": -1}}},
	}

	cursor, err := r.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var summaries []UnitSummary
	if err = cursor.All(ctx, &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *CostRepositoryImpl) Update(ctx context.Context, id string, entry *CostEntry) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"type":        entry.Type,
		"amount":      entry.Amount,
		"unit":        entry.Unit,
		"part_code":   entry.PartCode,
		"description": entry.Description,
		"vehicle_id":  entry.VehicleID,
		"incurred_at": entry.IncurredAt,
		"updated_at":  entry.UpdatedAt,
	}}
	_, err = r.Collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	return err
}

func (r *CostRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
