// File: database/repository/subscription/interface.go
package subscriptionRepo

import (
	"context"
	"errors"
	"time"

	"fieldbook/database"
	"fieldbook/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrVersionConflict is returned by Update when the row changed since it was
// read. The caller re-reads and reapplies its mutation.
var ErrVersionConflict = errors.New("subscription was modified concurrently")

// SubscriptionRepository persists subscriptions. Writes to mutable lifecycle
// fields go through Update, which is conditioned on the version read so that
// webhook events, the retry sweep and user actions serialize per subscription
// without a global lock.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *models.Subscription) error
	GetByID(ctx context.Context, id string) (*models.Subscription, error)
	// GetByPlanRefID resolves the subscription owning a gateway plan or
	// payment-intent reference.
	GetByPlanRefID(ctx context.Context, planRefID string) (*models.Subscription, error)
	// ListActiveByField returns the active subscriptions booked against a field.
	ListActiveByField(ctx context.Context, fieldID string) ([]models.Subscription, error)
	// ListDueForRetry returns past_due subscriptions whose nextRetryAt has
	// passed and whose retry budget is not exhausted.
	ListDueForRetry(ctx context.Context, now time.Time) ([]models.Subscription, error)
	// Update persists the subscription if its stored version still matches
	// sub.Version, bumping the version; otherwise ErrVersionConflict.
	Update(ctx context.Context, sub *models.Subscription) error
}

type mongoSubscriptionRepo struct {
	coll *mongo.Collection
}

// NewMongoSubscriptionRepo constructs a MongoDB-backed SubscriptionRepository.
func NewMongoSubscriptionRepo() SubscriptionRepository {
	db := database.MongoClient.Database("fieldbook")
	return &mongoSubscriptionRepo{
		coll: db.Collection("subscriptions"),
	}
}
