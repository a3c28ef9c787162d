package payment

import (
	"context"
	"fmt"
	"time"
)

// GatewayError wraps any failure from the payment provider with the gateway's
// own error code when one was given.
type GatewayError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway %s failed (%s): %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("gateway %s failed: %s", e.Op, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// PlanSpec describes a recurring price plan to register at the gateway.
type PlanSpec struct {
	CustomerID string
	Amount     float64 // per occurrence, in major currency units
	Currency   string
	Interval   string // "day", "week" or "month"
	Label      string
	Metadata   map[string]string
}

// Plan is the gateway's view of a newly created recurring plan.
type Plan struct {
	ID              string
	Status          string
	PaymentIntentID string // payment intent of the first invoice, when known
}

// InvoiceSummary is one settled or open invoice on a recurring plan, used by
// the refund fallback that scans invoice periods around a booking date.
type InvoiceSummary struct {
	ID              string
	PaymentIntentID string
	Status          string
	AmountPaid      float64
	PeriodStart     time.Time
	PeriodEnd       time.Time
}

// Gateway is the opaque interface to the payment provider. Implementations
// must bound every call with a timeout; the lifecycle engine never waits on
// the gateway indefinitely.
type Gateway interface {
	CreateCustomer(ctx context.Context, email, name string) (string, error)
	AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error

	// CreateRecurringPlan registers a recurring price plan and starts the
	// first billing cycle.
	CreateRecurringPlan(ctx context.Context, spec PlanSpec) (*Plan, error)
	// CancelPlan tears the plan down immediately or at period end.
	CancelPlan(ctx context.Context, planID string, immediate bool) error
	// PayOpenInvoice finds the plan's open invoice and attempts to pay it
	// directly. Returns the resulting invoice status.
	PayOpenInvoice(ctx context.Context, planID string) (string, error)
	// Refund issues a refund against a payment reference for the given amount.
	Refund(ctx context.Context, paymentRef string, amount float64, currency, reason string) (string, error)
	// ListInvoices returns recent invoices for a plan, newest first.
	ListInvoices(ctx context.Context, planID string, limit int) ([]InvoiceSummary, error)
}
