package booking

import (
	"context"
	"fmt"
	"time"

	bookingRepo "fieldbook/database/repository/booking"
	counterRepo "fieldbook/database/repository/counter"
	fieldRepo "fieldbook/database/repository/field"
	recordsRepo "fieldbook/database/repository/records"
	subscriptionRepo "fieldbook/database/repository/subscription"
	"fieldbook/models"
	"fieldbook/services/notification"
	"fieldbook/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Generator materializes concrete bookings for a subscription's billing
// period. A slot that conflicts is skipped, not fatal: a partial occurrence is
// acceptable, and a wholly-conflicting occurrence just logs a skipped cycle.
type Generator struct {
	Fields        fieldRepo.FieldRepository
	Bookings      bookingRepo.BookingRepository
	Subscriptions subscriptionRepo.SubscriptionRepository
	Counters      counterRepo.CounterRepository
	Records       recordsRepo.RecordRepository
	Availability  *AvailabilityChecker
	Notifier      notification.NotificationService

	// CommissionRate is the platform's fraction of each booking's price.
	CommissionRate float64
}

// Generate creates bookings for every non-conflicting slot of the subscription
// on occurrenceDate, then advances lastBookingDate once. paymentRef is the
// gateway payment intent of the cycle that paid for this occurrence; it is
// stored on each booking so refunds never need the invoice-scan fallback.
func (g *Generator) Generate(ctx context.Context, subscriptionID, occurrenceDate, paymentRef string) ([]models.Booking, error) {
	logger := utils.GetLogger()

	sub, err := g.Subscriptions.GetByID(ctx, subscriptionID)
	if err == mongo.ErrNoDocuments {
		return nil, &NotFoundError{Resource: "subscription", ID: subscriptionID}
	}
	if err != nil {
		return nil, err
	}

	field, err := g.Fields.GetByID(ctx, sub.FieldID)
	if err == mongo.ErrNoDocuments {
		return nil, &NotFoundError{Resource: "field", ID: sub.FieldID}
	}
	if err != nil {
		return nil, err
	}

	created := make([]models.Booking, 0, len(sub.Slots))
	for _, slot := range sub.Slots {
		// Overlap checks always use the full session duration; the display
		// buffer trimmed for UI purposes does not shrink the occupied window.
		start := slot.Start
		end := start.Add(field.SessionMinutes)

		free, reason, err := g.Availability.IsAvailable(ctx, AvailabilityQuery{
			FieldID:               sub.FieldID,
			Date:                  occurrenceDate,
			Start:                 start,
			End:                   end,
			ExcludeSubscriptionID: sub.ID,
			ExcludeHolderID:       sub.UserID,
		})
		if err != nil {
			return nil, err
		}
		if !free {
			logger.Info("skipping conflicting subscription slot",
				zap.String("subscriptionId", sub.ID),
				zap.String("date", occurrenceDate),
				zap.String("slot", fmt.Sprintf("%s-%s", start, end)),
				zap.String("reason", reason))
			continue
		}

		seq, err := g.Counters.Next(ctx, "booking")
		if err != nil {
			return nil, fmt.Errorf("failed to issue booking ID: %w", err)
		}

		price := field.VisitPrice(sub.DogCount)
		platformFee := price * g.CommissionRate
		booking := models.Booking{
			ID:             fmt.Sprintf("BK-%d", seq),
			FieldID:        sub.FieldID,
			UserID:         sub.UserID,
			SubscriptionID: sub.ID,
			Date:           occurrenceDate,
			Start:          start,
			End:            end,
			SlotLabel:      slot.Label,
			DogCount:       sub.DogCount,
			TotalPrice:     price,
			Currency:       field.Currency,
			PlatformFee:    platformFee,
			OwnerPayout:    price - platformFee,
			Status:         models.BookingConfirmed,
			PaymentStatus:  models.PaymentPaid,
			PaymentRef:     paymentRef,
			CreatedAt:      time.Now(),
		}
		if err := g.Bookings.Create(ctx, &booking); err != nil {
			return nil, fmt.Errorf("failed to persist booking: %w", err)
		}
		created = append(created, booking)

		g.recordMoney(ctx, field, &booking)
		g.notifyBooked(ctx, field, &booking)
	}

	if len(created) == 0 {
		logger.Warn("subscription occurrence skipped, every slot conflicted",
			zap.String("subscriptionId", sub.ID), zap.String("date", occurrenceDate))
	}

	if err := g.advanceLastBookingDate(ctx, sub.ID, occurrenceDate); err != nil {
		return nil, err
	}
	return created, nil
}

// recordMoney writes the payout and ledger rows for a generated booking.
// Bookkeeping failures are logged and do not undo the booking.
func (g *Generator) recordMoney(ctx context.Context, field *models.Field, booking *models.Booking) {
	logger := utils.GetLogger()

	payout := models.Payout{
		BookingID: booking.ID,
		OwnerID:   field.OwnerID,
		Amount:    booking.OwnerPayout,
		Currency:  field.Currency,
		Status:    models.PayoutPending,
	}
	if err := g.Records.CreatePayout(ctx, &payout); err != nil {
		logger.Error("failed to record payout", zap.String("bookingId", booking.ID), zap.Error(err))
	}

	tx := models.Transaction{
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		Type:       models.TransactionCharge,
		Amount:     booking.TotalPrice,
		Currency:   field.Currency,
		PaymentRef: booking.PaymentRef,
	}
	if err := g.Records.CreateTransaction(ctx, &tx); err != nil {
		logger.Error("failed to record transaction", zap.String("bookingId", booking.ID), zap.Error(err))
	}
}

// notifyBooked tells both parties about the new recurring booking. Best effort.
func (g *Generator) notifyBooked(ctx context.Context, field *models.Field, booking *models.Booking) {
	logger := utils.GetLogger()
	data := map[string]string{
		"bookingId": booking.ID,
		"fieldId":   booking.FieldID,
		"date":      booking.Date,
		"start":     booking.Start.String(),
	}
	msg := fmt.Sprintf("Your visit to %s on %s at %s is booked.", field.Name, booking.Date, booking.Start)
	if err := g.Notifier.Notify(ctx, booking.UserID, models.NotifyRecurringBookingCreated, "Recurring booking created", msg, data); err != nil {
		logger.Warn("booking notification failed", zap.String("bookingId", booking.ID), zap.Error(err))
	}
	ownerMsg := fmt.Sprintf("A recurring visit was booked on %s at %s.", booking.Date, booking.Start)
	if err := g.Notifier.Notify(ctx, field.OwnerID, models.NotifyRecurringBookingCreated, "New recurring booking", ownerMsg, data); err != nil {
		logger.Warn("owner notification failed", zap.String("bookingId", booking.ID), zap.Error(err))
	}
}

// advanceLastBookingDate stamps the occurrence once, regardless of how many
// slots succeeded, retrying on optimistic-concurrency conflicts.
func (g *Generator) advanceLastBookingDate(ctx context.Context, subscriptionID, occurrenceDate string) error {
	for attempt := 0; attempt < 3; attempt++ {
		sub, err := g.Subscriptions.GetByID(ctx, subscriptionID)
		if err != nil {
			return err
		}
		sub.LastBookingDate = occurrenceDate
		err = g.Subscriptions.Update(ctx, sub)
		if err == subscriptionRepo.ErrVersionConflict {
			continue
		}
		return err
	}
	return fmt.Errorf("subscription %s: too many concurrent updates", subscriptionID)
}
