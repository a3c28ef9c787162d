package subscription

import (
	"context"
	"fmt"
	"time"

	"fieldbook/models"
	"fieldbook/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// invoiceScanWindow is the tolerance around a booking's date when hunting for
// its invoice on legacy bookings that carry no explicit payment reference.
const invoiceScanWindow = 24 * time.Hour

// invoiceScanLimit bounds how many invoices the fallback inspects.
const invoiceScanLimit = 24

// RefundOccurrence refunds exactly one booking's price and cancels that
// booking, without touching the parent subscription's status, retry count or
// future occurrences. No subscription-level notification is sent: a single
// refunded visit must not read as a cancelled subscription.
func (s *DefaultSubscriptionService) RefundOccurrence(ctx context.Context, bookingID, reason string) error {
	logger := utils.GetLogger()

	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err == mongo.ErrNoDocuments {
		return &NotFoundError{Resource: "booking", ID: bookingID}
	}
	if err != nil {
		return err
	}
	if booking.PaymentStatus == models.PaymentRefunded {
		return &InvariantViolationError{Message: fmt.Sprintf("booking %s is already refunded", bookingID)}
	}

	paymentRef, err := s.resolvePaymentRef(ctx, booking)
	if err != nil {
		return err
	}

	refundRef, err := s.Gateway.Refund(ctx, paymentRef, booking.TotalPrice, booking.Currency, reason)
	if err != nil {
		// Gateway refused the refund; nothing local has been mutated.
		return err
	}

	if err := s.Bookings.UpdateStatus(ctx, booking.ID, models.BookingCancelled, models.PaymentRefunded); err != nil {
		return err
	}
	if err := s.Records.CancelPayoutsByBooking(ctx, booking.ID); err != nil {
		logger.Error("failed to cancel payout for refunded booking",
			zap.String("bookingId", booking.ID), zap.Error(err))
	}
	tx := models.Transaction{
		BookingID:  booking.ID,
		UserID:     booking.UserID,
		Type:       models.TransactionRefund,
		Amount:     booking.TotalPrice,
		Currency:   booking.Currency,
		PaymentRef: refundRef,
		Reason:     reason,
	}
	if err := s.Records.CreateTransaction(ctx, &tx); err != nil {
		logger.Error("failed to record refund transaction",
			zap.String("bookingId", booking.ID), zap.Error(err))
	}

	logger.Info("occurrence refunded",
		zap.String("bookingId", booking.ID),
		zap.String("refundRef", refundRef),
		zap.Float64("amount", booking.TotalPrice))
	return nil
}

// resolvePaymentRef returns the payment intent behind a booking. New bookings
// carry it directly; legacy rows fall back to scanning the plan's invoice
// periods within a day of the booking date, first match winning, else the
// first invoice with any charge.
func (s *DefaultSubscriptionService) resolvePaymentRef(ctx context.Context, booking *models.Booking) (string, error) {
	if booking.PaymentRef != "" {
		return booking.PaymentRef, nil
	}
	if booking.SubscriptionID == "" {
		return "", &InvariantViolationError{
			Message: fmt.Sprintf("booking %s has no payment reference", booking.ID)}
	}

	sub, err := s.Subscriptions.GetByID(ctx, booking.SubscriptionID)
	if err == mongo.ErrNoDocuments {
		return "", &NotFoundError{Resource: "subscription", ID: booking.SubscriptionID}
	}
	if err != nil {
		return "", err
	}
	if !sub.PlanRef.IsRecurring() {
		// Single-payment subscriptions hold the intent as their plan reference.
		return sub.PlanRef.ID, nil
	}

	bookingDay, err := time.Parse("2006-01-02", booking.Date)
	if err != nil {
		return "", fmt.Errorf("invalid booking date %q: %w", booking.Date, err)
	}

	invoices, err := s.Gateway.ListInvoices(ctx, sub.PlanRef.ID, invoiceScanLimit)
	if err != nil {
		return "", err
	}
	var fallback string
	for _, inv := range invoices {
		if inv.PaymentIntentID == "" {
			continue
		}
		if fallback == "" {
			fallback = inv.PaymentIntentID
		}
		delta := bookingDay.Sub(inv.PeriodStart)
		if delta < 0 {
			delta = -delta
		}
		if delta <= invoiceScanWindow {
			return inv.PaymentIntentID, nil
		}
	}
	if fallback != "" {
		utils.GetLogger().Warn("refund falling back to first charged invoice",
			zap.String("bookingId", booking.ID), zap.String("paymentRef", fallback))
		return fallback, nil
	}
	return "", &InvariantViolationError{
		Message: fmt.Sprintf("no resolvable payment reference for booking %s", booking.ID)}
}
