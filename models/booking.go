package models

import "time"

// Booking status values.
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingCompleted = "completed"
)

// Booking payment status values.
const (
	PaymentPaid      = "paid"
	PaymentRefunded  = "refunded"
	PaymentCancelled = "cancelled"
)

// Booking represents one concrete, dated occupation of a field for a time window.
type Booking struct {
	ID             string    `bson:"id" json:"id"` // human-readable, e.g. "BK-1112"
	FieldID        string    `bson:"fieldId" json:"fieldId"`
	UserID         string    `bson:"userId" json:"userId"`
	SubscriptionID string    `bson:"subscriptionId,omitempty" json:"subscriptionId,omitempty"`
	Date           string    `bson:"date" json:"date"` // "YYYY-MM-DD"
	Start          TimeOfDay `bson:"start" json:"start"`
	End            TimeOfDay `bson:"end" json:"end"`
	SlotLabel      string    `bson:"slotLabel,omitempty" json:"slotLabel,omitempty"`
	DogCount       int       `bson:"dogCount" json:"dogCount"`
	TotalPrice     float64   `bson:"totalPrice" json:"totalPrice"`
	Currency       string    `bson:"currency" json:"currency"`
	PlatformFee    float64   `bson:"platformFee" json:"platformFee"`
	OwnerPayout    float64   `bson:"ownerPayout" json:"ownerPayout"`
	Status         string    `bson:"status" json:"status"`
	PaymentStatus  string    `bson:"paymentStatus" json:"paymentStatus"`
	PaymentRef     string    `bson:"paymentRef,omitempty" json:"paymentRef,omitempty"` // gateway payment intent for this cycle
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}
