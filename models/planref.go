package models

import "strings"

// PlanRefKind distinguishes a real recurring plan at the gateway from a
// degraded subscription backed by a one-off payment intent.
type PlanRefKind string

const (
	PlanRecurring     PlanRefKind = "recurring"
	PlanSinglePayment PlanRefKind = "single_payment"
)

// PlanRef is the subscription's external payment reference as a tagged
// variant. Gateway plan operations (cancel, list invoices, pay invoice) are
// dispatched only for the recurring variant; single-payment subscriptions are
// torn down through local bookkeeping alone.
type PlanRef struct {
	Kind PlanRefKind `bson:"kind" json:"kind"`
	ID   string      `bson:"id" json:"id"`
}

// RecurringPlanRef wraps a gateway recurring-plan ID.
func RecurringPlanRef(id string) PlanRef {
	return PlanRef{Kind: PlanRecurring, ID: id}
}

// SinglePaymentRef wraps a one-off payment-intent ID.
func SinglePaymentRef(id string) PlanRef {
	return PlanRef{Kind: PlanSinglePayment, ID: id}
}

// IsRecurring reports whether gateway plan calls apply to this reference.
func (p PlanRef) IsRecurring() bool {
	return p.Kind == PlanRecurring
}

// ParsePlanRef classifies a raw gateway reference by its ID prefix. Kept for
// the webhook boundary and legacy rows; business logic only ever sees the
// tagged variant.
func ParsePlanRef(raw string) PlanRef {
	if strings.HasPrefix(raw, "pi_") {
		return SinglePaymentRef(raw)
	}
	return RecurringPlanRef(raw)
}
