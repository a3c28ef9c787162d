package models

import "time"

// Notification types emitted by the lifecycle engine.
const (
	NotifyRecurringBookingCreated = "recurring_booking_created"
	NotifyPaymentFailed           = "payment_failed"
	NotifyPaymentRetrySucceeded   = "payment_retry_succeeded"
	NotifySubscriptionAutoCancel  = "subscription_auto_cancelled"
	NotifySubscriptionCancelled   = "subscription_cancelled"
	NotifyOccurrenceDeferred      = "occurrence_deferred"
)

// Notification is a best-effort message to a user or field owner. Delivery
// failures are logged and swallowed; they never block the lifecycle engine.
type Notification struct {
	ID          string            `bson:"id" json:"id"`
	RecipientID string            `bson:"recipientId" json:"recipientId"`
	Type        string            `bson:"type" json:"type"`
	Title       string            `bson:"title" json:"title"`
	Message     string            `bson:"message" json:"message"`
	Data        map[string]string `bson:"data,omitempty" json:"data,omitempty"`
	Read        bool              `bson:"read" json:"read"`
	CreatedAt   time.Time         `bson:"createdAt" json:"createdAt"`
}
