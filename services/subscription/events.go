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

// Human-readable labels for the gateway's failure codes. Anything unknown
// falls back to a generic message.
var failureReasons = map[string]string{
	"card_declined":           "Card was declined",
	"insufficient_funds":      "Insufficient funds on card",
	"expired_card":            "Card has expired",
	"incorrect_cvc":           "Card security code was incorrect",
	"processing_error":        "Payment processor error",
	"authentication_required": "Payment requires additional authentication",
}

func failureReason(code string) string {
	if label, ok := failureReasons[code]; ok {
		return label
	}
	return "Payment failed"
}

// HandlePaymentSucceeded processes an invoice.payment_succeeded event: recover
// from past_due if needed, then book the next occurrence unless it falls
// beyond the look-ahead window, in which case generation is deferred.
func (s *DefaultSubscriptionService) HandlePaymentSucceeded(ctx context.Context, ev models.PaymentEvent) error {
	logger := utils.GetLogger()

	sub, err := s.Subscriptions.GetByPlanRefID(ctx, ev.PlanRefID)
	if err == mongo.ErrNoDocuments {
		return &NotFoundError{Resource: "subscription for plan", ID: ev.PlanRefID}
	}
	if err != nil {
		return err
	}
	if sub.Status == models.SubscriptionCanceled {
		logger.Info("ignoring payment event for canceled subscription",
			zap.String("subscriptionId", sub.ID), zap.String("eventId", ev.EventID))
		return nil
	}

	wasPastDue := sub.Status == models.SubscriptionPastDue
	sub, err = s.mutateSubscription(ctx, sub.ID, func(m *models.Subscription) {
		if m.Status == models.SubscriptionPastDue {
			m.Status = models.SubscriptionActive
			m.PaymentRetryCount = 0
			m.NextRetryAt = nil
			m.FailureReason = ""
		}
		if !ev.PeriodStart.IsZero() {
			m.CurrentPeriodStart = ev.PeriodStart
			m.CurrentPeriodEnd = ev.PeriodEnd
		}
	})
	if err != nil {
		return err
	}

	if wasPastDue {
		s.notify(ctx, sub.UserID, models.NotifyPaymentRetrySucceeded,
			"Payment recovered",
			"Your payment went through and your recurring booking is active again.",
			map[string]string{"subscriptionId": sub.ID})
	}

	next, err := sub.NextOccurrenceDate()
	if err != nil {
		return fmt.Errorf("failed to compute next occurrence: %w", err)
	}
	nextDate, err := time.Parse("2006-01-02", next)
	if err != nil {
		return fmt.Errorf("invalid next occurrence date %q: %w", next, err)
	}

	horizon := time.Now().AddDate(0, 0, s.LookAheadDays)
	if nextDate.After(horizon) {
		// Booking that far out would speculatively reserve slot contention for
		// weeks; defer until the occurrence enters the window.
		s.notify(ctx, sub.UserID, models.NotifyOccurrenceDeferred,
			"Booking scheduled",
			fmt.Sprintf("Your visit on %s will be booked closer to the date.", next),
			map[string]string{"subscriptionId": sub.ID, "date": next})
		if s.Scheduler != nil {
			processAt := nextDate.AddDate(0, 0, -s.LookAheadDays)
			if err := s.Scheduler.ScheduleOccurrence(ctx, sub.ID, next, processAt); err != nil {
				logger.Error("failed to schedule deferred occurrence",
					zap.String("subscriptionId", sub.ID), zap.String("date", next), zap.Error(err))
			}
		}
		return nil
	}

	if _, err := s.Generator.Generate(ctx, sub.ID, next, ev.PaymentIntentID); err != nil {
		return err
	}
	return nil
}

// HandlePaymentFailed runs the bounded retry state machine: three failures
// total, one day apart, then terminal cancellation.
func (s *DefaultSubscriptionService) HandlePaymentFailed(ctx context.Context, ev models.PaymentEvent) error {
	logger := utils.GetLogger()

	sub, err := s.Subscriptions.GetByPlanRefID(ctx, ev.PlanRefID)
	if err == mongo.ErrNoDocuments {
		return &NotFoundError{Resource: "subscription for plan", ID: ev.PlanRefID}
	}
	if err != nil {
		return err
	}
	if sub.Status == models.SubscriptionCanceled {
		logger.Info("ignoring failure event for canceled subscription",
			zap.String("subscriptionId", sub.ID), zap.String("eventId", ev.EventID))
		return nil
	}

	var exhausted bool
	sub, err = s.mutateSubscription(ctx, sub.ID, func(m *models.Subscription) {
		m.PaymentRetryCount++
		if m.PaymentRetryCount >= models.MaxPaymentRetries {
			exhausted = true
			m.Status = models.SubscriptionCanceled
			m.NextRetryAt = nil
			m.FailureReason = failureReason(ev.ErrorCode)
			return
		}
		exhausted = false
		retryAt := time.Now().Add(s.RetryDelay)
		m.Status = models.SubscriptionPastDue
		m.NextRetryAt = &retryAt
		m.FailureReason = failureReason(ev.ErrorCode)
	})
	if err != nil {
		return err
	}

	if exhausted {
		s.teardownAfterExhaustedRetries(ctx, sub)
		return nil
	}

	remaining := models.MaxPaymentRetries - sub.PaymentRetryCount
	s.notify(ctx, sub.UserID, models.NotifyPaymentFailed,
		"Payment failed",
		fmt.Sprintf("%s. We will retry tomorrow (%d attempt(s) left before the booking is cancelled).",
			sub.FailureReason, remaining),
		map[string]string{"subscriptionId": sub.ID, "remainingRetries": fmt.Sprintf("%d", remaining)})
	logger.Warn("subscription past due",
		zap.String("subscriptionId", sub.ID),
		zap.Int("retryCount", sub.PaymentRetryCount),
		zap.String("reason", sub.FailureReason))
	return nil
}

// teardownAfterExhaustedRetries cancels the plan at the gateway (best effort),
// cancels every future booking, and notifies both parties.
func (s *DefaultSubscriptionService) teardownAfterExhaustedRetries(ctx context.Context, sub *models.Subscription) {
	logger := utils.GetLogger()

	if sub.PlanRef.IsRecurring() {
		if err := s.Gateway.CancelPlan(ctx, sub.PlanRef.ID, true); err != nil {
			// Local state is the source of truth for whether the customer is
			// charged again; reconciliation catches gateway drift.
			logger.Error("gateway plan cancel failed after exhausted retries",
				zap.String("subscriptionId", sub.ID), zap.Error(err))
		}
	}

	cancelled, err := s.Bookings.CancelFutureBySubscription(ctx, sub.ID, today())
	if err != nil {
		logger.Error("failed to cancel future bookings",
			zap.String("subscriptionId", sub.ID), zap.Error(err))
	}

	data := map[string]string{"subscriptionId": sub.ID}
	s.notify(ctx, sub.UserID, models.NotifySubscriptionAutoCancel,
		"Recurring booking cancelled",
		"Your recurring booking was cancelled after three failed payment attempts.",
		data)
	if field, ferr := s.Fields.GetByID(ctx, sub.FieldID); ferr == nil {
		s.notify(ctx, field.OwnerID, models.NotifySubscriptionAutoCancel,
			"Recurring booking cancelled",
			"A recurring booking on your field was cancelled after repeated payment failures.",
			data)
	}

	logger.Warn("subscription terminally cancelled after exhausted retries",
		zap.String("subscriptionId", sub.ID), zap.Int64("bookingsCancelled", cancelled))
}

// HandlePlanDeleted reacts to the gateway tearing down a plan on its side
// (e.g. a cancel-at-period-end completing).
func (s *DefaultSubscriptionService) HandlePlanDeleted(ctx context.Context, planRefID string) error {
	sub, err := s.Subscriptions.GetByPlanRefID(ctx, planRefID)
	if err == mongo.ErrNoDocuments {
		return &NotFoundError{Resource: "subscription for plan", ID: planRefID}
	}
	if err != nil {
		return err
	}
	if sub.Status == models.SubscriptionCanceled {
		return nil
	}
	_, err = s.mutateSubscription(ctx, sub.ID, func(m *models.Subscription) {
		m.Status = models.SubscriptionCanceled
		m.NextRetryAt = nil
	})
	if err != nil {
		return err
	}
	if _, err := s.Bookings.CancelFutureBySubscription(ctx, sub.ID, today()); err != nil {
		utils.GetLogger().Error("failed to cancel future bookings on plan delete",
			zap.String("subscriptionId", sub.ID), zap.Error(err))
	}
	return nil
}

// HandlePlanUpdated syncs period bounds and the cancel-at-period-end flag from
// the gateway's subscription.updated event.
func (s *DefaultSubscriptionService) HandlePlanUpdated(ctx context.Context, planRefID string, cancelAtPeriodEnd bool, periodStart, periodEnd time.Time) error {
	sub, err := s.Subscriptions.GetByPlanRefID(ctx, planRefID)
	if err == mongo.ErrNoDocuments {
		return &NotFoundError{Resource: "subscription for plan", ID: planRefID}
	}
	if err != nil {
		return err
	}
	_, err = s.mutateSubscription(ctx, sub.ID, func(m *models.Subscription) {
		m.CancelAtPeriodEnd = cancelAtPeriodEnd
		if !periodStart.IsZero() {
			m.CurrentPeriodStart = periodStart
			m.CurrentPeriodEnd = periodEnd
		}
	})
	return err
}
