package vehicle

import (
	"context"

	"kademe-kys/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *Vehicle) error
	FindByID(ctx context.Context, id string) (*Vehicle, error)
	FindBySerial(ctx context.Context, serial string) (*Vehicle, error)
	List(ctx context.Context, filter map[string]interface{}, limit, offset int64) ([]Vehicle, int64, error)
	ListUnshipped(ctx context.Context) ([]Vehicle, error)
	Update(ctx context.Context, id string, vehicle *Vehicle) error
	Delete(ctx context.Context, id string) error
}

type VehicleRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewVehicleRepository(mongodb *database.MongodbDB) VehicleRepository {
	return &VehicleRepositoryImpl{
		Collection: mongodb.DB.Collection("vehicles"),
	}
}

func (r *VehicleRepositoryImpl) Create(ctx context.Context, vehicle *Vehicle) error {
	_, err := r.Collection.InsertOne(ctx, vehicle)
	return err
}

func (r *VehicleRepositoryImpl) FindByID(ctx context.Context, id string) (*Vehicle, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var vehicle Vehicle
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&vehicle)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &vehicle, nil
}

func (r *VehicleRepositoryImpl) FindBySerial(ctx context.Context, serial string) (*Vehicle, error) {
	var vehicle Vehicle
	err := r.Collection.FindOne(ctx, bson.M{"serial_number": serial}).Decode(&vehicle)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &vehicle, nil
}

func (r *VehicleRepositoryImpl) List(ctx context.Context, filter map[string]interface{}, limit, offset int64) ([]Vehicle, int64, error) {
	query := bson.M{}
	for k, v := range filter {
		query[k] = v
	}

	total, err := r.Collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetLimit(limit).SetSkip(offset).SetSort(bson.D{{Key: "serial_number", Value: 1}})
	cursor, err := r.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var vehicles []Vehicle
	if err = cursor.All(ctx, &vehicles); err != nil {
		return nil, 0, err
	}
	return vehicles, total, nil
}

func (r *VehicleRepositoryImpl) ListUnshipped(ctx context.Context) ([]Vehicle, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"state": bson.M{"$ne": StateShipped}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var vehicles []Vehicle
	if err = cursor.All(ctx, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (r *VehicleRepositoryImpl) Update(ctx context.Context, id string, vehicle *Vehicle) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"model":       vehicle.Model,
		"project":     vehicle.Project,
		"state":       vehicle.State,
		"state_since": vehicle.StateSince,
		"history":     vehicle.History,
		"updated_at":  vehicle.UpdatedAt,
	}}
	_, err = r.Collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	return err
}

func (r *VehicleRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
