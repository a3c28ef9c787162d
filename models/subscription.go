package models

import (
	"time"
)

// Subscription status values.
const (
	SubscriptionActive   = "active"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// Subscription cadence values.
const (
	CadenceDaily   = "daily"
	CadenceWeekly  = "weekly"
	CadenceMonthly = "monthly"
)

// MaxPaymentRetries bounds the failed-payment retry window to three attempts
// (three customer-visible days on the daily retry schedule).
const MaxPaymentRetries = 3

// SubscriptionSlot is one recurring time window within a subscription.
type SubscriptionSlot struct {
	Label string    `bson:"label,omitempty" json:"label,omitempty"`
	Start TimeOfDay `bson:"start" json:"start"`
	End   TimeOfDay `bson:"end" json:"end"`
}

// Subscription is a standing agreement to auto-book fixed slots on a field at
// a fixed cadence. Rows are never deleted; terminal states are kept for audit.
type Subscription struct {
	ID                 string             `bson:"id" json:"id"`
	UserID             string             `bson:"userId" json:"userId"`
	FieldID            string             `bson:"fieldId" json:"fieldId"`
	PlanRef            PlanRef            `bson:"planRef" json:"planRef"`
	GatewayCustomerID  string             `bson:"gatewayCustomerId,omitempty" json:"gatewayCustomerId,omitempty"`
	Cadence            string             `bson:"cadence" json:"cadence"`
	Slots              []SubscriptionSlot `bson:"slots" json:"slots"`
	DogCount           int                `bson:"dogCount" json:"dogCount"`
	PricePerOccurrence float64            `bson:"pricePerOccurrence" json:"pricePerOccurrence"`
	Currency           string             `bson:"currency" json:"currency"`
	StartDate          string             `bson:"startDate" json:"startDate"` // first occurrence, "YYYY-MM-DD"
	CurrentPeriodStart time.Time          `bson:"currentPeriodStart,omitempty" json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd   time.Time          `bson:"currentPeriodEnd,omitempty" json:"currentPeriodEnd,omitempty"`
	LastBookingDate    string             `bson:"lastBookingDate,omitempty" json:"lastBookingDate,omitempty"`
	Status             string             `bson:"status" json:"status"`
	PaymentRetryCount  int                `bson:"paymentRetryCount" json:"paymentRetryCount"`
	NextRetryAt        *time.Time         `bson:"nextRetryAt,omitempty" json:"nextRetryAt,omitempty"`
	CancelAtPeriodEnd  bool               `bson:"cancelAtPeriodEnd" json:"cancelAtPeriodEnd"`
	FailureReason      string             `bson:"failureReason,omitempty" json:"failureReason,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
	Version            int                `bson:"version" json:"version"` // optimistic concurrency stamp
}

// NextOccurrenceDate computes the occurrence following the last booked date
// (or the start date when nothing has been booked yet) from the cadence.
// Monthly uses time.AddDate normalization, so Jan 31 + 1 month rolls forward.
func (s *Subscription) NextOccurrenceDate() (string, error) {
	base := s.LastBookingDate
	if base == "" {
		return s.StartDate, nil
	}
	t, err := time.Parse("2006-01-02", base)
	if err != nil {
		return "", err
	}
	switch s.Cadence {
	case CadenceDaily:
		t = t.AddDate(0, 0, 1)
	case CadenceWeekly:
		t = t.AddDate(0, 0, 7)
	case CadenceMonthly:
		t = t.AddDate(0, 1, 0)
	default:
		t = t.AddDate(0, 0, 7)
	}
	return t.Format("2006-01-02"), nil
}

// OccursOn reports whether this subscription is slated to produce a booking on
// the given date, judged from its cadence and start date. Used by the
// availability checker to fence off slots claimed by other subscriptions.
func (s *Subscription) OccursOn(date string) bool {
	target, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false
	}
	anchor, err := time.Parse("2006-01-02", s.StartDate)
	if err != nil {
		return false
	}
	if target.Before(anchor) {
		return false
	}
	switch s.Cadence {
	case CadenceDaily:
		return true
	case CadenceWeekly:
		return target.Weekday() == anchor.Weekday()
	case CadenceMonthly:
		return target.Day() == anchor.Day()
	}
	return false
}

// CreateSubscriptionRequest is the validated input to start a recurring booking.
type CreateSubscriptionRequest struct {
	UserID          string             `json:"userId"`
	Email           string             `json:"email"`
	Name            string             `json:"name"`
	FieldID         string             `json:"fieldId"`
	Cadence         string             `json:"cadence"`
	Slots           []SubscriptionSlot `json:"slots"`
	DogCount        int                `json:"dogCount"`
	StartDate       string             `json:"startDate"`
	PaymentMethodID string             `json:"paymentMethodId"`
}
