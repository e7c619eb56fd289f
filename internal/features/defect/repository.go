package defect

import (
	"context"

	"kademe-kys/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DefectRepository interface {
	Create(ctx context.Context, defect *Defect) error
	FindByID(ctx context.Context, id string) (*Defect, error)
	List(ctx context.Context, filter map[string]interface{}, limit, offset int64) ([]Defect, int64, error)
	Update(ctx context.Context, id string, defect *Defect) error
	Delete(ctx context.Context, id string) error
}

type DefectRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewDefectRepository(mongodb *database.MongodbDB) DefectRepository {
	return &DefectRepositoryImpl{
		Collection: mongodb.DB.Collection("defects"),
	}
}

func (r *DefectRepositoryImpl) Create(ctx context.Context, defect *Defect) error {
	_, err := r.Collection.InsertOne(ctx, defect)
	return err
}

func (r *DefectRepositoryImpl) FindByID(ctx context.Context, id string) (*Defect, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var defect Defect
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&defect)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &defect, nil
}

func (r *DefectRepositoryImpl) List(ctx context.Context, filter map[string]interface{}, limit, offset int64) ([]Defect, int64, error) {
	query := bson.M{}
	for k, v := range filter {
		query[k] = v
	}

	total, err := r.Collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetLimit(limit).SetSkip(offset).SetSort(bson.D{{Key: "detected_at", Value: -1}})
	cursor, err := r.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var defects []Defect
	if err = cursor.All(ctx, &defects); err != nil {
		return nil, 0, err
	}
	return defects, total, nil
}

func (r *DefectRepositoryImpl) Update(ctx context.Context, id string, defect *Defect) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"title":       defect.Title,
		"description": defect.Description,
		"vehicle_id":  defect.VehicleID,
		"part_code":   defect.PartCode,
		"unit":        defect.Unit,
		"severity":    defect.Severity,
		"status":      defect.Status,
		"resolved_at": defect.ResolvedAt,
		"workflow_id": defect.WorkflowID,
		"updated_at":  defect.UpdatedAt,
	}}
	_, err = r.Collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	return err
}

func (r *DefectRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
