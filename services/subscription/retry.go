package subscription

import (
	"context"
	"time"

	"fieldbook/models"
	"fieldbook/utils"

	"go.uber.org/zap"
)

// RunRetrySweep attempts an out-of-band payment for every past_due
// subscription whose retry is due. One bad subscription never halts the sweep;
// per-item errors are logged and the loop continues. Safe to run concurrently
// with itself: a sweep that finds nothing to do is a correct outcome.
func (s *DefaultSubscriptionService) RunRetrySweep(ctx context.Context) (int, error) {
	logger := utils.GetLogger()

	due, err := s.Subscriptions.ListDueForRetry(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	recovered := 0
	for i := range due {
		sub := &due[i]

		if !sub.PlanRef.IsRecurring() {
			// Single-payment subscriptions have no open invoice to pay; they
			// recover only through an explicit new charge outside this sweep.
			logger.Debug("skipping retry for single-payment subscription",
				zap.String("subscriptionId", sub.ID))
			continue
		}

		status, err := s.Gateway.PayOpenInvoice(ctx, sub.PlanRef.ID)
		if err != nil {
			logger.Warn("out-of-band retry failed",
				zap.String("subscriptionId", sub.ID), zap.Error(err))
			continue
		}
		if status != "paid" {
			logger.Info("out-of-band retry did not settle",
				zap.String("subscriptionId", sub.ID), zap.String("invoiceStatus", status))
			continue
		}

		if _, err := s.mutateSubscription(ctx, sub.ID, func(m *models.Subscription) {
			m.Status = models.SubscriptionActive
			m.PaymentRetryCount = 0
			m.NextRetryAt = nil
			m.FailureReason = ""
		}); err != nil {
			logger.Error("failed to reset subscription after successful retry",
				zap.String("subscriptionId", sub.ID), zap.Error(err))
			continue
		}
		recovered++

		s.notify(ctx, sub.UserID, models.NotifyPaymentRetrySucceeded,
			"Payment recovered",
			"Your payment went through and your recurring booking is active again.",
			map[string]string{"subscriptionId": sub.ID})
	}

	logger.Info("retry sweep finished",
		zap.Int("due", len(due)), zap.Int("recovered", recovered))
	return recovered, nil
}
