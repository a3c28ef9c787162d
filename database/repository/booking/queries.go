// File: database/repository/booking/queries.go
package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"fieldbook/models"

	"go.mongodb.org/mongo-driver/bson"
)

func (r *mongoBookingRepo) GetActiveByFieldAndDate(ctx context.Context, fieldID, date string) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"fieldId": fieldID,
		"date":    date,
		"status":  bson.M{"$ne": models.BookingCancelled},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepo) GetFutureBySubscription(ctx context.Context, subscriptionID, fromDate string) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"subscriptionId": subscriptionID,
		"date":           bson.M{"$gte": fromDate},
		"status":         models.BookingConfirmed,
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscription bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding subscription bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepo) CancelFutureBySubscription(ctx context.Context, subscriptionID, fromDate string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateMany(ctx,
		bson.M{
			"subscriptionId": subscriptionID,
			"date":           bson.M{"$gte": fromDate},
			"status":         models.BookingConfirmed,
		},
		bson.M{"$set": bson.M{
			"status":        models.BookingCancelled,
			"paymentStatus": models.PaymentCancelled,
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel subscription bookings: %w", err)
	}
	return res.ModifiedCount, nil
}
