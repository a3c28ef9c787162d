// File: database/repository/slotlock/indexes.go
package slotlockRepo

import (
	"context"
	"time"

	"fieldbook/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique slot index that makes Acquire atomic: two
// racing upserts for the same (fieldId, date, start) collide on this index and
// exactly one wins.
func EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	coll := database.MongoClient.Database("fieldbook").Collection("slot_locks")
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "fieldId", Value: 1},
				{Key: "date", Value: 1},
				{Key: "start", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "expiresAt", Value: 1}},
		},
	})
	return err
}
