// File: database/repository/counter/counter.go
package counterRepo

import (
	"context"
	"fmt"
	"time"

	"fieldbook/database"
	"fieldbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Seed values for named sequences. The seed is exclusive: a fresh counter
// issues seed+1 first, so booking IDs begin at 1112.
var counterSeeds = map[string]int64{
	"booking": 1111,
	"review":  100,
	"user":    1000,
}

// CounterRepository issues monotonically increasing IDs by name.
type CounterRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}

type mongoCounterRepo struct {
	coll *mongo.Collection
}

// NewMongoCounterRepo constructs a MongoDB-backed CounterRepository.
func NewMongoCounterRepo() CounterRepository {
	db := database.MongoClient.Database("fieldbook")
	return &mongoCounterRepo{
		coll: db.Collection("counters"),
	}
}

func (r *mongoCounterRepo) Next(ctx context.Context, name string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var counter models.Counter
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"name": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %q: %w", name, err)
	}

	// A freshly upserted counter starts at 1; bump it to its seed. $max keeps
	// this safe against concurrent first calls.
	if seed, ok := counterSeeds[name]; ok && counter.Seq <= seed {
		err = r.coll.FindOneAndUpdate(ctx,
			bson.M{"name": name},
			bson.M{"$max": bson.M{"seq": seed + counter.Seq}},
			opts,
		).Decode(&counter)
		if err != nil {
			return 0, fmt.Errorf("failed to seed counter %q: %w", name, err)
		}
	}
	return counter.Seq, nil
}
