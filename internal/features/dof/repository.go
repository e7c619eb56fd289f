package dof

import (
	"context"

	"kademe-kys/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DOFRepository interface {
	Create(ctx context.Context, record *DOFRecord) error
	FindByID(ctx context.Context, id string) (*DOFRecord, error)
	List(ctx context.Context, filter map[string]interface{}, limit, offset int64) ([]DOFRecord, int64, error)
	Count(ctx context.Context, filter map[string]interface{}) (int64, error)
	Update(ctx context.Context, id string, record *DOFRecord) error
	Delete(ctx context.Context, id string) error
}

type DOFRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewDOFRepository(mongodb *database.MongodbDB) DOFRepository {
	return &DOFRepositoryImpl{
		Collection: mongodb.DB.Collection("dof_records"),
	}
}

func (r *DOFRepositoryImpl) Create(ctx context.Context, record *DOFRecord) error {
	_, err := r.Collection.InsertOne(ctx, record)
	return err
}

func (r *DOFRepositoryImpl) FindByID(ctx context.Context, id string) (*DOFRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var record DOFRecord
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *DOFRepositoryImpl) List(ctx context.Context, filter map[string]interface{}, limit, offset int64) ([]DOFRecord, int64, error) {
	query := bson.M{}
	for k, v := range filter {
		query[k] = v
	}

	total, err := r.Collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetLimit(limit).SetSkip(offset).SetSort(bson.D{{Key: "opened_at", Value: -1}})
	cursor, err := r.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var records []DOFRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *DOFRepositoryImpl) Count(ctx context.Context, filter map[string]interface{}) (int64, error) {
	query := bson.M{}
	for k, v := range filter {
		query[k] = v
	}
	return r.Collection.CountDocuments(ctx, query)
}

func (r *DOFRepositoryImpl) Update(ctx context.Context, id string, record *DOFRecord) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"title":         record.Title,
		"description":   record.Description,
		"type":          record.Type,
		"source_module": record.SourceModule,
		"source_record": record.SourceRecord,
		"department":    record.Department,
		"responsible":   record.Responsible,
		"status":        record.Status,
		"workflow_id":   record.WorkflowID,
		"closed_at":     record.ClosedAt,
		"updated_at":    record.UpdatedAt,
	}}
	_, err = r.Collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	return err
}

func (r *DOFRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
