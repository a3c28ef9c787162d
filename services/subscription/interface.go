package subscription

import (
	"context"
	"time"

	bookingRepo "fieldbook/database/repository/booking"
	fieldRepo "fieldbook/database/repository/field"
	recordsRepo "fieldbook/database/repository/records"
	subscriptionRepo "fieldbook/database/repository/subscription"
	"fieldbook/models"
	"fieldbook/services/notification"
	"fieldbook/services/payment"
)

// SubscriptionService owns the subscription state machine: creation, per-cycle
// renewal from gateway events, bounded retry on payment failure, cancellation,
// and single-occurrence refunds.
type SubscriptionService interface {
	Create(ctx context.Context, req models.CreateSubscriptionRequest) (*models.Subscription, error)
	HandlePaymentSucceeded(ctx context.Context, ev models.PaymentEvent) error
	HandlePaymentFailed(ctx context.Context, ev models.PaymentEvent) error
	HandlePlanDeleted(ctx context.Context, planRefID string) error
	HandlePlanUpdated(ctx context.Context, planRefID string, cancelAtPeriodEnd bool, periodStart, periodEnd time.Time) error
	RunRetrySweep(ctx context.Context) (int, error)
	RefundOccurrence(ctx context.Context, bookingID, reason string) error
	Cancel(ctx context.Context, subscriptionID string, immediate bool) error
	GenerateDeferred(ctx context.Context, subscriptionID, occurrenceDate string) error
	ListUpcomingBookings(ctx context.Context, subscriptionID string) ([]models.Booking, error)
}

// OccurrenceGenerator is the slice of the booking generator the engine needs.
type OccurrenceGenerator interface {
	Generate(ctx context.Context, subscriptionID, occurrenceDate, paymentRef string) ([]models.Booking, error)
}

// TaskScheduler enqueues deferred work, e.g. generating an occurrence once it
// enters the look-ahead window.
type TaskScheduler interface {
	ScheduleOccurrence(ctx context.Context, subscriptionID, occurrenceDate string, processAt time.Time) error
}

// DefaultSubscriptionService is the production lifecycle engine.
type DefaultSubscriptionService struct {
	Subscriptions subscriptionRepo.SubscriptionRepository
	Bookings      bookingRepo.BookingRepository
	Fields        fieldRepo.FieldRepository
	Records       recordsRepo.RecordRepository
	Gateway       payment.Gateway
	Generator     OccurrenceGenerator
	Notifier      notification.NotificationService
	Scheduler     TaskScheduler

	// LookAheadDays bounds how far into the future an occurrence's booking may
	// be speculatively created.
	LookAheadDays int
	// RetryDelay is the fixed wait before a failed payment is retried.
	RetryDelay time.Duration
}
