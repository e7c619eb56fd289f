package workflow

import (
	"context"

	"kademe-kys/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TemplateRepository is the persistence contract for process definitions.
type TemplateRepository interface {
	LoadAll(ctx context.Context) ([]*WorkflowTemplate, error)
	Save(ctx context.Context, t *WorkflowTemplate) error
}

// InstanceRepository is the persistence contract for live executions.
// The engine only needs load-all at startup and save-one per mutation.
type InstanceRepository interface {
	LoadAll(ctx context.Context) ([]*WorkflowInstance, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*WorkflowInstance, error)
	Save(ctx context.Context, instance *WorkflowInstance) error
}

type TemplateRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewTemplateRepository(mongodb *database.MongodbDB) TemplateRepository {
	return &TemplateRepositoryImpl{
		Collection: mongodb.DB.Collection("workflow_templates"),
	}
}

func (r *TemplateRepositoryImpl) LoadAll(ctx context.Context) ([]*WorkflowTemplate, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var templates []*WorkflowTemplate
	if err = cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *TemplateRepositoryImpl) Save(ctx context.Context, t *WorkflowTemplate) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.Collection.ReplaceOne(ctx, bson.M{"_id": t.ID}, t, opts)
	return err
}

type InstanceRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewInstanceRepository(mongodb *database.MongodbDB) InstanceRepository {
	return &InstanceRepositoryImpl{
		Collection: mongodb.DB.Collection("workflow_instances"),
	}
}

func (r *InstanceRepositoryImpl) LoadAll(ctx context.Context) ([]*WorkflowInstance, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var instances []*WorkflowInstance
	if err = cursor.All(ctx, &instances); err != nil {
		return nil, err
	}
	return instances, nil
}

func (r *InstanceRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*WorkflowInstance, error) {
	var instance WorkflowInstance
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&instance)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrInstanceNotFound
		}
		return nil, err
	}
	return &instance, nil
}

func (r *InstanceRepositoryImpl) Save(ctx context.Context, instance *WorkflowInstance) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.Collection.ReplaceOne(ctx, bson.M{"_id": instance.ID}, instance, opts)
	return err
}
