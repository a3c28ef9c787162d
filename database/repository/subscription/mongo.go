// File: database/repository/subscription/mongo.go
package subscriptionRepo

import (
	"context"
	"fmt"
	"time"

	"fieldbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (r *mongoSubscriptionRepo) Create(ctx context.Context, sub *models.Subscription) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, sub); err != nil {
		return fmt.Errorf("failed to insert subscription: %w", err)
	}
	return nil
}

func (r *mongoSubscriptionRepo) GetByID(ctx context.Context, id string) (*models.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var sub models.Subscription
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&sub)
	if err == mongo.ErrNoDocuments {
		return nil, mongo.ErrNoDocuments
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscription %s: %w", id, err)
	}
	return &sub, nil
}

func (r *mongoSubscriptionRepo) GetByPlanRefID(ctx context.Context, planRefID string) (*models.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var sub models.Subscription
	err := r.coll.FindOne(ctx, bson.M{"planRef.id": planRefID}).Decode(&sub)
	if err == mongo.ErrNoDocuments {
		return nil, mongo.ErrNoDocuments
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscription for plan %s: %w", planRefID, err)
	}
	return &sub, nil
}

func (r *mongoSubscriptionRepo) ListActiveByField(ctx context.Context, fieldID string) ([]models.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{
		"fieldId": fieldID,
		"status":  models.SubscriptionActive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list field subscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	var subs []models.Subscription
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("error decoding subscriptions: %w", err)
	}
	return subs, nil
}

func (r *mongoSubscriptionRepo) ListDueForRetry(ctx context.Context, now time.Time) ([]models.Subscription, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{
		"status":            models.SubscriptionPastDue,
		"nextRetryAt":       bson.M{"$lte": now},
		"paymentRetryCount": bson.M{"$lt": models.MaxPaymentRetries},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list retry-due subscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	var subs []models.Subscription
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("error decoding retry-due subscriptions: %w", err)
	}
	return subs, nil
}

func (r *mongoSubscriptionRepo) Update(ctx context.Context, sub *models.Subscription) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	readVersion := sub.Version
	sub.Version = readVersion + 1
	sub.UpdatedAt = time.Now()

	res, err := r.coll.ReplaceOne(ctx,
		bson.M{"id": sub.ID, "version": readVersion},
		sub,
	)
	if err != nil {
		sub.Version = readVersion
		return fmt.Errorf("failed to update subscription %s: %w", sub.ID, err)
	}
	if res.MatchedCount == 0 {
		sub.Version = readVersion
		return ErrVersionConflict
	}
	return nil
}
