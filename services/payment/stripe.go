package payment

import (
	"context"
	"errors"
	"time"

	"fieldbook/config"
	"fieldbook/utils"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/invoice"
	"github.com/stripe/stripe-go/v76/paymentmethod"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/subscription"
	"go.uber.org/zap"
)

const gatewayCallTimeout = 15 * time.Second

// StripeGateway implements Gateway against the Stripe API. The global API key
// is set from config in main.
type StripeGateway struct {
	logger *zap.Logger
}

// NewStripeGateway constructs the production gateway adapter.
func NewStripeGateway() *StripeGateway {
	return &StripeGateway{logger: utils.GetLogger()}
}

func wrapStripeErr(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &GatewayError{Op: op, Code: string(stripeErr.Code), Message: stripeErr.Msg, Err: err}
	}
	return &GatewayError{Op: op, Message: err.Error(), Err: err}
}

func callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, gatewayCallTimeout)
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, email, name string) (string, error) {
	ctx, cancel := callContext(ctx)
	defer cancel()

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	cust, err := customer.New(params)
	if err != nil {
		return "", wrapStripeErr("create customer", err)
	}
	return cust.ID, nil
}

func (g *StripeGateway) AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	ctx, cancel := callContext(ctx)
	defer cancel()

	params := &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx
	if _, err := paymentmethod.Attach(paymentMethodID, params); err != nil {
		return wrapStripeErr("attach payment method", err)
	}
	return nil
}

func (g *StripeGateway) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	ctx, cancel := callContext(ctx)
	defer cancel()

	params := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	params.Context = ctx
	if _, err := customer.Update(customerID, params); err != nil {
		return wrapStripeErr("set default payment method", err)
	}
	return nil
}

func (g *StripeGateway) CreateRecurringPlan(ctx context.Context, spec PlanSpec) (*Plan, error) {
	ctx, cancel := callContext(ctx)
	defer cancel()

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(spec.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{
				PriceData: &stripe.SubscriptionItemPriceDataParams{
					Currency:   stripe.String(spec.Currency),
					Product:    stripe.String(config.AppConfig.StripeProductID),
					UnitAmount: stripe.Int64(toMinorUnits(spec.Amount)),
					Recurring: &stripe.SubscriptionItemPriceDataRecurringParams{
						Interval: stripe.String(spec.Interval),
					},
				},
			},
		},
		PaymentBehavior: stripe.String("allow_incomplete"),
	}
	params.Context = ctx
	for k, v := range spec.Metadata {
		params.AddMetadata(k, v)
	}
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := subscription.New(params)
	if err != nil {
		return nil, wrapStripeErr("create recurring plan", err)
	}

	plan := &Plan{ID: sub.ID, Status: string(sub.Status)}
	if sub.LatestInvoice != nil && sub.LatestInvoice.PaymentIntent != nil {
		plan.PaymentIntentID = sub.LatestInvoice.PaymentIntent.ID
	}
	return plan, nil
}

func (g *StripeGateway) CancelPlan(ctx context.Context, planID string, immediate bool) error {
	ctx, cancel := callContext(ctx)
	defer cancel()

	if immediate {
		params := &stripe.SubscriptionCancelParams{}
		params.Context = ctx
		if _, err := subscription.Cancel(planID, params); err != nil {
			return wrapStripeErr("cancel plan", err)
		}
		return nil
	}

	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	params.Context = ctx
	if _, err := subscription.Update(planID, params); err != nil {
		return wrapStripeErr("cancel plan at period end", err)
	}
	return nil
}

func (g *StripeGateway) PayOpenInvoice(ctx context.Context, planID string) (string, error) {
	ctx, cancel := callContext(ctx)
	defer cancel()

	listParams := &stripe.InvoiceListParams{
		Subscription: stripe.String(planID),
		Status:       stripe.String(string(stripe.InvoiceStatusOpen)),
	}
	listParams.Context = ctx
	listParams.Limit = stripe.Int64(1)

	iter := invoice.List(listParams)
	if !iter.Next() {
		if err := iter.Err(); err != nil {
			return "", wrapStripeErr("list open invoices", err)
		}
		return "", &GatewayError{Op: "pay open invoice", Message: "no open invoice for plan " + planID}
	}
	open := iter.Invoice()

	payParams := &stripe.InvoicePayParams{}
	payParams.Context = ctx
	paid, err := invoice.Pay(open.ID, payParams)
	if err != nil {
		return "", wrapStripeErr("pay open invoice", err)
	}

	g.logger.Info("Paid open invoice out-of-band",
		zap.String("planId", planID), zap.String("invoiceId", paid.ID), zap.String("status", string(paid.Status)))
	return string(paid.Status), nil
}

func (g *StripeGateway) Refund(ctx context.Context, paymentRef string, amount float64, currency, reason string) (string, error) {
	ctx, cancel := callContext(ctx)
	defer cancel()

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentRef),
		Amount:        stripe.Int64(toMinorUnits(amount)),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	params.AddMetadata("reason", reason)

	ref, err := refund.New(params)
	if err != nil {
		return "", wrapStripeErr("refund", err)
	}
	return ref.ID, nil
}

func (g *StripeGateway) ListInvoices(ctx context.Context, planID string, limit int) ([]InvoiceSummary, error) {
	ctx, cancel := callContext(ctx)
	defer cancel()

	params := &stripe.InvoiceListParams{
		Subscription: stripe.String(planID),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(int64(limit))

	var summaries []InvoiceSummary
	iter := invoice.List(params)
	for iter.Next() {
		inv := iter.Invoice()
		summary := InvoiceSummary{
			ID:          inv.ID,
			Status:      string(inv.Status),
			AmountPaid:  fromMinorUnits(inv.AmountPaid),
			PeriodStart: time.Unix(inv.PeriodStart, 0),
			PeriodEnd:   time.Unix(inv.PeriodEnd, 0),
		}
		if inv.PaymentIntent != nil {
			summary.PaymentIntentID = inv.PaymentIntent.ID
		}
		summaries = append(summaries, summary)
	}
	if err := iter.Err(); err != nil {
		return nil, wrapStripeErr("list invoices", err)
	}
	return summaries, nil
}

func toMinorUnits(amount float64) int64 {
	return int64(amount*100 + 0.5)
}

func fromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}
