package subscription

import (
	"context"

	"fieldbook/models"
	"fieldbook/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Cancel ends a subscription on the user's request, immediately or at period
// end. Gateway-side cancellation failures are logged and swallowed: the local
// row is the source of truth for whether the customer will be charged again.
func (s *DefaultSubscriptionService) Cancel(ctx context.Context, subscriptionID string, immediate bool) error {
	logger := utils.GetLogger()

	sub, err := s.Subscriptions.GetByID(ctx, subscriptionID)
	if err == mongo.ErrNoDocuments {
		return &NotFoundError{Resource: "subscription", ID: subscriptionID}
	}
	if err != nil {
		return err
	}
	if sub.Status == models.SubscriptionCanceled {
		return nil
	}

	// Single-payment subscriptions have no plan to tear down at the gateway;
	// they are cancelled purely through local bookkeeping.
	if sub.PlanRef.IsRecurring() {
		if err := s.Gateway.CancelPlan(ctx, sub.PlanRef.ID, immediate); err != nil {
			logger.Error("gateway plan cancel failed, proceeding with local cancellation",
				zap.String("subscriptionId", sub.ID), zap.Bool("immediate", immediate), zap.Error(err))
		}
	}

	// The status write commits the cancellation; future bookings are only
	// released once the row is no longer active.
	sub, err = s.mutateSubscription(ctx, sub.ID, func(m *models.Subscription) {
		if immediate {
			m.Status = models.SubscriptionCanceled
			m.NextRetryAt = nil
		} else {
			m.CancelAtPeriodEnd = true
		}
	})
	if err != nil {
		return err
	}

	if _, err := s.Bookings.CancelFutureBySubscription(ctx, sub.ID, today()); err != nil {
		logger.Error("failed to cancel future bookings",
			zap.String("subscriptionId", sub.ID), zap.Error(err))
	}

	s.notify(ctx, sub.UserID, models.NotifySubscriptionCancelled,
		"Recurring booking cancelled",
		"Your recurring booking has been cancelled.",
		map[string]string{"subscriptionId": sub.ID})
	if field, ferr := s.Fields.GetByID(ctx, sub.FieldID); ferr == nil {
		s.notify(ctx, field.OwnerID, models.NotifySubscriptionCancelled,
			"Recurring booking cancelled",
			"A recurring booking on your field was cancelled by the customer.",
			map[string]string{"subscriptionId": sub.ID})
	}

	logger.Info("subscription cancelled by user",
		zap.String("subscriptionId", sub.ID), zap.Bool("immediate", immediate))
	return nil
}

// GenerateDeferred books a previously deferred occurrence once it has entered
// the look-ahead window. Idempotent: a stale task for an already-booked or
// no-longer-active subscription is a no-op.
func (s *DefaultSubscriptionService) GenerateDeferred(ctx context.Context, subscriptionID, occurrenceDate string) error {
	sub, err := s.Subscriptions.GetByID(ctx, subscriptionID)
	if err == mongo.ErrNoDocuments {
		return &NotFoundError{Resource: "subscription", ID: subscriptionID}
	}
	if err != nil {
		return err
	}
	if sub.Status != models.SubscriptionActive {
		utils.GetLogger().Info("skipping deferred occurrence for inactive subscription",
			zap.String("subscriptionId", subscriptionID), zap.String("status", sub.Status))
		return nil
	}
	if sub.LastBookingDate >= occurrenceDate {
		return nil
	}
	_, err = s.Generator.Generate(ctx, subscriptionID, occurrenceDate, "")
	return err
}
