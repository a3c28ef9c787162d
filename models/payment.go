package models

import "time"

// PaymentEvent is a normalized asynchronous payment-result event from the
// gateway webhook boundary.
type PaymentEvent struct {
	EventID         string    `json:"eventId"`
	PlanRefID       string    `json:"planRefId"`
	InvoiceID       string    `json:"invoiceId,omitempty"`
	PaymentIntentID string    `json:"paymentIntentId,omitempty"`
	Amount          float64   `json:"amount,omitempty"`
	ErrorCode       string    `json:"errorCode,omitempty"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
	PeriodStart     time.Time `json:"periodStart,omitempty"`
	PeriodEnd       time.Time `json:"periodEnd,omitempty"`
}

// Payout is the field owner's share of a paid booking, settled out-of-band.
type Payout struct {
	ID        string    `bson:"id" json:"id"`
	BookingID string    `bson:"bookingId" json:"bookingId"`
	OwnerID   string    `bson:"ownerId" json:"ownerId"`
	Amount    float64   `bson:"amount" json:"amount"`
	Currency  string    `bson:"currency" json:"currency"`
	Status    string    `bson:"status" json:"status"` // "pending", "paid", "canceled"
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Payout status values.
const (
	PayoutPending  = "pending"
	PayoutPaid     = "paid"
	PayoutCanceled = "canceled"
)

// Transaction is one ledger entry: a charge captured or a refund issued.
type Transaction struct {
	ID         string    `bson:"id" json:"id"`
	BookingID  string    `bson:"bookingId,omitempty" json:"bookingId,omitempty"`
	UserID     string    `bson:"userId" json:"userId"`
	Type       string    `bson:"type" json:"type"` // "charge" or "refund"
	Amount     float64   `bson:"amount" json:"amount"`
	Currency   string    `bson:"currency" json:"currency"`
	PaymentRef string    `bson:"paymentRef,omitempty" json:"paymentRef,omitempty"`
	Reason     string    `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}

// Transaction types.
const (
	TransactionCharge = "charge"
	TransactionRefund = "refund"
)
