// File: database/repository/records/records.go
package recordsRepo

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

// RecordRepository keeps the money bookkeeping around bookings: owner payouts
// and the ledger of charges and refunds.
type RecordRepository interface {
	CreatePayout(ctx context.Context, payout *models.Payout) error
	// CancelPayoutsByBooking marks every payout referencing the booking as
	// canceled. Idempotent; no error when none exist.
	CancelPayoutsByBooking(ctx context.Context, bookingID string) error
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
}

type mongoRecordRepo struct {
	payouts      *mongo.Collection
	transactions *mongo.Collection
}

// NewMongoRecordRepo constructs a MongoDB-backed RecordRepository.
func NewMongoRecordRepo() RecordRepository {
	db := database.MongoClient.Database("fieldbook")
	return &mongoRecordRepo{
		payouts:      db.Collection("payouts"),
		transactions: db.Collection("transactions"),
	}
}

func (r *mongoRecordRepo) CreatePayout(ctx context.Context, payout *models.Payout) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if payout.ID == "" {
		payout.ID = uuid.New().String()
	}
	now := time.Now()
	if payout.CreatedAt.IsZero() {
		payout.CreatedAt = now
	}
	payout.UpdatedAt = now
	if _, err := r.payouts.InsertOne(ctx, payout); err != nil {
		return fmt.Errorf("failed to insert payout: %w", err)
	}
	return nil
}

func (r *mongoRecordRepo) CancelPayoutsByBooking(ctx context.Context, bookingID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.payouts.UpdateMany(ctx,
		bson.M{"bookingId": bookingID, "status": bson.M{"$ne": models.PayoutPaid}},
		bson.M{"$set": bson.M{"status": models.PayoutCanceled, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to cancel payouts for booking %s: %w", bookingID, err)
	}
	return nil
}

func (r *mongoRecordRepo) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	if _, err := r.transactions.InsertOne(ctx, tx); err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}
