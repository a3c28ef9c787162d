package subscription

import (
	"context"

	"fieldbook/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ListUpcomingBookings returns the subscription's confirmed bookings from
// today onward, soonest first.
func (s *DefaultSubscriptionService) ListUpcomingBookings(ctx context.Context, subscriptionID string) ([]models.Booking, error) {
	sub, err := s.Subscriptions.GetByID(ctx, subscriptionID)
	if err == mongo.ErrNoDocuments {
		return nil, &NotFoundError{Resource: "subscription", ID: subscriptionID}
	}
	if err != nil {
		return nil, err
	}
	return s.Bookings.GetFutureBySubscription(ctx, sub.ID, today())
}
