// File: database/repository/slotlock/mongo.go
package slotlockRepo

import (
	"context"
	"fmt"
	"time"

	"fieldbook/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoSlotLockRepo) Acquire(ctx context.Context, fieldID, date string, start, end models.TimeOfDay, holderID string, ttl time.Duration) (*models.SlotLock, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	day, err := models.NormalizeDate(date)
	if err != nil {
		return nil, err
	}
	now := time.Now()

	// Single conditional upsert: the filter matches only when the slot is free
	// for this holder (own lock or an expired one). If a live lock from a
	// different holder exists, the upsert path trips the unique slot index and
	// Mongo reports a duplicate key, which we surface as a conflict.
	filter := bson.M{
		"fieldId": fieldID,
		"date":    day,
		"start":   start,
		"$or": bson.A{
			bson.M{"holderId": holderID},
			bson.M{"expiresAt": bson.M{"$lt": now}},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"fieldId":   fieldID,
			"date":      day,
			"start":     start,
			"end":       end,
			"holderId":  holderID,
			"expiresAt": now.Add(ttl),
		},
		"$setOnInsert": bson.M{
			"id":        uuid.New().String(),
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var lock models.SlotLock
	err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&lock)
	if err == nil {
		return &lock, nil
	}
	if mongo.IsDuplicateKeyError(err) {
		_, holder, probeErr := r.IsLockedByOther(ctx, fieldID, day, start, holderID)
		if probeErr != nil {
			holder = ""
		}
		return nil, &LockConflictError{HolderID: holder}
	}
	return nil, fmt.Errorf("failed to acquire slot lock: %w", err)
}

func (r *mongoSlotLockRepo) Release(ctx context.Context, holderID, fieldID, date string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	day, err := models.NormalizeDate(date)
	if err != nil {
		return err
	}
	_, err = r.coll.DeleteMany(ctx, bson.M{
		"holderId": holderID,
		"fieldId":  fieldID,
		"date":     day,
	})
	if err != nil {
		return fmt.Errorf("failed to release slot locks: %w", err)
	}
	return nil
}

func (r *mongoSlotLockRepo) IsLockedByOther(ctx context.Context, fieldID, date string, start models.TimeOfDay, excludeHolderID string) (bool, string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	day, err := models.NormalizeDate(date)
	if err != nil {
		return false, "", err
	}
	filter := bson.M{
		"fieldId":   fieldID,
		"date":      day,
		"start":     start,
		"holderId":  bson.M{"$ne": excludeHolderID},
		"expiresAt": bson.M{"$gte": time.Now()},
	}

	var lock models.SlotLock
	err = r.coll.FindOne(ctx, filter).Decode(&lock)
	if err == mongo.ErrNoDocuments {
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("slot lock probe failed: %w", err)
	}
	return true, lock.HolderID, nil
}

func (r *mongoSlotLockRepo) ListActive(ctx context.Context, fieldID, date string) ([]models.SlotLock, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	day, err := models.NormalizeDate(date)
	if err != nil {
		return nil, err
	}
	cursor, err := r.coll.Find(ctx, bson.M{
		"fieldId":   fieldID,
		"date":      day,
		"expiresAt": bson.M{"$gte": time.Now()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list slot locks: %w", err)
	}
	defer cursor.Close(ctx)

	var locks []models.SlotLock
	if err := cursor.All(ctx, &locks); err != nil {
		return nil, fmt.Errorf("error decoding slot locks: %w", err)
	}
	return locks, nil
}

func (r *mongoSlotLockRepo) Sweep(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lt": time.Now()}})
	if err != nil {
		return 0, fmt.Errorf("slot lock sweep failed: %w", err)
	}
	return res.DeletedCount, nil
}
