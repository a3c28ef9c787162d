package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	subscriptionRepo "fieldbook/database/repository/subscription"
	"fieldbook/models"
	"fieldbook/services/payment"
	"fieldbook/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Create registers the recurring plan with the gateway, persists the
// subscription and synchronously books the first occurrence.
func (s *DefaultSubscriptionService) Create(ctx context.Context, req models.CreateSubscriptionRequest) (*models.Subscription, error) {
	logger := utils.GetLogger()

	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}
	startDate, err := models.NormalizeDate(req.StartDate)
	if err != nil {
		return nil, err
	}

	field, err := s.Fields.GetByID(ctx, req.FieldID)
	if err == mongo.ErrNoDocuments {
		return nil, &NotFoundError{Resource: "field", ID: req.FieldID}
	}
	if err != nil {
		return nil, err
	}
	if !field.Active {
		return nil, &InvariantViolationError{Message: fmt.Sprintf("field %s is not accepting bookings", field.ID)}
	}

	customerID, err := s.Gateway.CreateCustomer(ctx, req.Email, req.Name)
	if err != nil {
		return nil, err
	}
	if err := s.Gateway.AttachPaymentMethod(ctx, customerID, req.PaymentMethodID); err != nil {
		return nil, err
	}
	if err := s.Gateway.SetDefaultPaymentMethod(ctx, customerID, req.PaymentMethodID); err != nil {
		return nil, err
	}

	// Slots carry the full session window; the display buffer never shrinks it.
	slots := make([]models.SubscriptionSlot, len(req.Slots))
	for i, slot := range req.Slots {
		slots[i] = models.SubscriptionSlot{
			Label: slot.Label,
			Start: slot.Start,
			End:   slot.Start.Add(field.SessionMinutes),
		}
	}

	pricePerOccurrence := field.VisitPrice(req.DogCount) * float64(len(slots))
	plan, err := s.Gateway.CreateRecurringPlan(ctx, payment.PlanSpec{
		CustomerID: customerID,
		Amount:     pricePerOccurrence,
		Currency:   field.Currency,
		Interval:   cadenceInterval(req.Cadence),
		Label:      fmt.Sprintf("Recurring visits at %s", field.Name),
		Metadata: map[string]string{
			"fieldId": field.ID,
			"userId":  req.UserID,
		},
	})
	if err != nil {
		return nil, err
	}

	sub := &models.Subscription{
		ID:                 uuid.New().String(),
		UserID:             req.UserID,
		FieldID:            req.FieldID,
		PlanRef:            models.RecurringPlanRef(plan.ID),
		GatewayCustomerID:  customerID,
		Cadence:            req.Cadence,
		Slots:              slots,
		DogCount:           req.DogCount,
		PricePerOccurrence: pricePerOccurrence,
		Currency:           field.Currency,
		StartDate:          startDate,
		Status:             models.SubscriptionActive,
	}
	if err := s.Subscriptions.Create(ctx, sub); err != nil {
		return nil, err
	}

	if _, err := s.Generator.Generate(ctx, sub.ID, startDate, plan.PaymentIntentID); err != nil {
		// The plan and subscription exist; the first occurrence will be
		// recovered by the first invoice.payment_succeeded event.
		logger.Error("first occurrence generation failed",
			zap.String("subscriptionId", sub.ID), zap.Error(err))
	}

	logger.Info("subscription created",
		zap.String("subscriptionId", sub.ID),
		zap.String("planId", plan.ID),
		zap.String("cadence", sub.Cadence))
	return sub, nil
}

func validateCreateRequest(req models.CreateSubscriptionRequest) error {
	switch {
	case req.UserID == "":
		return &InvariantViolationError{Message: "missing user ID"}
	case req.FieldID == "":
		return &InvariantViolationError{Message: "missing field ID"}
	case req.PaymentMethodID == "":
		return &InvariantViolationError{Message: "missing payment method"}
	case req.DogCount < 1:
		return &InvariantViolationError{Message: "dog count must be at least 1"}
	case len(req.Slots) == 0:
		return &InvariantViolationError{Message: "at least one slot is required"}
	}
	switch req.Cadence {
	case models.CadenceDaily, models.CadenceWeekly, models.CadenceMonthly:
	default:
		return &InvariantViolationError{Message: fmt.Sprintf("unknown cadence %q", req.Cadence)}
	}
	return nil
}

func cadenceInterval(cadence string) string {
	switch cadence {
	case models.CadenceDaily:
		return "day"
	case models.CadenceMonthly:
		return "month"
	default:
		return "week"
	}
}

// mutateSubscription re-reads and reapplies a mutation until the optimistic
// update sticks. Contention on a single subscription is rare, so a handful of
// attempts is plenty.
func (s *DefaultSubscriptionService) mutateSubscription(ctx context.Context, id string, mutate func(*models.Subscription)) (*models.Subscription, error) {
	for attempt := 0; attempt < 3; attempt++ {
		sub, err := s.Subscriptions.GetByID(ctx, id)
		if err == mongo.ErrNoDocuments {
			return nil, &NotFoundError{Resource: "subscription", ID: id}
		}
		if err != nil {
			return nil, err
		}
		mutate(sub)
		err = s.Subscriptions.Update(ctx, sub)
		if errors.Is(err, subscriptionRepo.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return sub, nil
	}
	return nil, fmt.Errorf("subscription %s: too many concurrent updates", id)
}

// notify is the fire-and-forget wrapper around the notification collaborator.
func (s *DefaultSubscriptionService) notify(ctx context.Context, recipientID, notifType, title, message string, data map[string]string) {
	if err := s.Notifier.Notify(ctx, recipientID, notifType, title, message, data); err != nil {
		utils.GetLogger().Warn("notification failed",
			zap.String("recipientId", recipientID), zap.String("type", notifType), zap.Error(err))
	}
}

// today returns the current calendar date string.
func today() string {
	return models.DateOf(time.Now())
}
