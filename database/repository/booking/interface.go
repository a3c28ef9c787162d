// File: database/repository/booking/interface.go
package bookingRepo

import (
	"context"

	"fieldbook/database"
	"fieldbook/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// BookingRepository persists concrete bookings. Bookings are the durable truth
// for slot occupancy; slot locks only narrow the interactive payment window.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// GetActiveByFieldAndDate returns the non-cancelled bookings for a field and day.
	GetActiveByFieldAndDate(ctx context.Context, fieldID, date string) ([]models.Booking, error)
	// GetFutureBySubscription returns the confirmed bookings generated by a
	// subscription on or after fromDate.
	GetFutureBySubscription(ctx context.Context, subscriptionID, fromDate string) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id, status, paymentStatus string) error
	// CancelFutureBySubscription marks every confirmed booking for the
	// subscription on or after fromDate as cancelled and returns the count.
	CancelFutureBySubscription(ctx context.Context, subscriptionID, fromDate string) (int64, error)
}

type mongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo constructs a MongoDB-backed BookingRepository.
func NewMongoBookingRepo() BookingRepository {
	db := database.MongoClient.Database("fieldbook")
	return &mongoBookingRepo{
		coll: db.Collection("bookings"),
	}
}
