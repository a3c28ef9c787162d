// File: database/repository/field/field.go
package fieldRepo

import (
	"context"
	"fmt"
	"time"

	"fieldbook/database"
	"fieldbook/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// FieldRepository persists the bookable fields.
type FieldRepository interface {
	Create(ctx context.Context, field *models.Field) error
	GetByID(ctx context.Context, id string) (*models.Field, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Field, error)
}

type mongoFieldRepo struct {
	coll *mongo.Collection
}

// NewMongoFieldRepo constructs a MongoDB-backed FieldRepository.
func NewMongoFieldRepo() FieldRepository {
	db := database.MongoClient.Database("fieldbook")
	return &mongoFieldRepo{
		coll: db.Collection("fields"),
	}
}

func (r *mongoFieldRepo) Create(ctx context.Context, field *models.Field) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if field.ID == "" {
		field.ID = uuid.New().String()
	}
	if field.CreatedAt.IsZero() {
		field.CreatedAt = time.Now()
	}
	if _, err := r.coll.InsertOne(ctx, field); err != nil {
		return fmt.Errorf("failed to insert field: %w", err)
	}
	return nil
}

func (r *mongoFieldRepo) GetByID(ctx context.Context, id string) (*models.Field, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var field models.Field
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&field)
	if err == mongo.ErrNoDocuments {
		return nil, mongo.ErrNoDocuments
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch field %s: %w", id, err)
	}
	return &field, nil
}

func (r *mongoFieldRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Field, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"ownerId": ownerID})
	if err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	defer cursor.Close(ctx)

	var fields []models.Field
	if err := cursor.All(ctx, &fields); err != nil {
		return nil, fmt.Errorf("error decoding fields: %w", err)
	}
	return fields, nil
}
