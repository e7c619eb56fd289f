package supplier

import (
	"context"
	"time"

	"kademe-kys/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SupplierRepository interface {
	Create(ctx context.Context, supplier *Supplier) error
	FindByID(ctx context.Context, id string) (*Supplier, error)
	FindByCode(ctx context.Context, code string) (*Supplier, error)
	List(ctx context.Context, filter map[string]interface{}, limit, offset int64) ([]Supplier, int64, error)
	Update(ctx context.Context, id string, supplier *Supplier) error
	PushAudit(ctx context.Context, id string, audit SupplierAudit) error
	PushNonconformity(ctx context.Context, id string, nc Nonconformity) error
	CloseNonconformity(ctx context.Context, id string, ncID primitive.ObjectID) error
	Delete(ctx context.Context, id string) error
}

type SupplierRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewSupplierRepository(mongodb *database.MongodbDB) SupplierRepository {
	return &SupplierRepositoryImpl{
		Collection: mongodb.DB.Collection("suppliers"),
	}
}

func (r *SupplierRepositoryImpl) Create(ctx context.Context, supplier *Supplier) error {
	_, err := r.Collection.InsertOne(ctx, supplier)
	return err
}

func (r *SupplierRepositoryImpl) FindByID(ctx context.Context, id string) (*Supplier, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var supplier Supplier
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&supplier)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &supplier, nil
}

func (r *SupplierRepositoryImpl) FindByCode(ctx context.Context, code string) (*Supplier, error) {
	var supplier Supplier
	err := r.Collection.FindOne(ctx, bson.M{"code": code}).Decode(&supplier)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &supplier, nil
}

func (r *SupplierRepositoryImpl) List(ctx context.Context, filter map[string]interface{}, limit, offset int64) ([]Supplier, int64, error) {
	query := bson.M{}
	for k, v := range filter {
		query[k] = v
	}

	total, err := r.Collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetLimit(limit).SetSkip(offset).SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var suppliers []Supplier
	if err = cursor.All(ctx, &suppliers); err != nil {
		return nil, 0, err
	}
	return suppliers, total, nil
}

func (r *SupplierRepositoryImpl) Update(ctx context.Context, id string, supplier *Supplier) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"name":          supplier.Name,
		"category":      supplier.Category,
		"contact_email": supplier.ContactEmail,
		"status":        supplier.Status,
		"updated_at":    supplier.UpdatedAt,
	}}
	_, err = r.Collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	return err
}

func (r *SupplierRepositoryImpl) PushAudit(ctx context.Context, id string, audit SupplierAudit) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$push": bson.M{"audits": audit}})
	return err
}

func (r *SupplierRepositoryImpl) PushNonconformity(ctx context.Context, id string, nc Nonconformity) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$push": bson.M{"nonconformities": nc}})
	return err
}

func (r *SupplierRepositoryImpl) CloseNonconformity(ctx context.Context, id string, ncID primitive.ObjectID) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.UpdateOne(ctx,
		bson.M{"_id": oid, "nonconformities._id": ncID},
		bson.M{"$set": bson.M{
			"nonconformities.$.open":      false,
			"nonconformities.$.closed_at": primitive.NewDateTimeFromTime(time.Now().UTC()),
		}})
	return err
}

func (r *SupplierRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
