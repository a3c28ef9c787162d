package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"fieldbook/config"
	"fieldbook/models"
	"fieldbook/services/subscription"
	"fieldbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// eventDedupeTTL keeps processed event IDs long enough to absorb Stripe's
// redelivery window.
const eventDedupeTTL = 72 * time.Hour

// WebhookHandler receives the gateway's asynchronous payment events and
// dispatches them to the lifecycle engine.
type WebhookHandler struct {
	Service subscription.SubscriptionService
}

// NewWebhookHandler constructs the handler.
func NewWebhookHandler(svc subscription.SubscriptionService) *WebhookHandler {
	return &WebhookHandler{Service: svc}
}

// HandleStripeEvent verifies, dedupes and routes one webhook delivery.
func (h *WebhookHandler) HandleStripeEvent(c *gin.Context) {
	logger := utils.GetLogger()

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<16))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Unreadable payload", err.Error())
		return
	}

	var event stripe.Event
	if secret := config.AppConfig.StripeWebhookSecret; secret != "" {
		event, err = webhook.ConstructEvent(body, c.GetHeader("Stripe-Signature"), secret)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Signature verification failed", err.Error())
			return
		}
	} else if err := json.Unmarshal(body, &event); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid payload", err.Error())
		return
	}

	first, err := utils.MarkEventProcessed(c.Request.Context(), event.ID, eventDedupeTTL)
	if err != nil {
		// Dedupe is best effort; the engine's own idempotence covers replays.
		logger.Warn("event dedupe check failed", zap.String("eventId", event.ID), zap.Error(err))
	} else if !first {
		logger.Info("duplicate webhook delivery ignored", zap.String("eventId", event.ID))
		c.Status(http.StatusOK)
		return
	}

	if err := h.dispatch(c, event); err != nil {
		var notFound *subscription.NotFoundError
		if errors.As(err, &notFound) {
			// Unknown plan references are not ours to retry.
			logger.Warn("webhook for unknown subscription", zap.String("eventId", event.ID), zap.Error(err))
			c.Status(http.StatusOK)
			return
		}
		logger.Error("webhook handling failed",
			zap.String("eventId", event.ID), zap.String("type", string(event.Type)), zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusOK)
}

func (h *WebhookHandler) dispatch(c *gin.Context, event stripe.Event) error {
	ctx := c.Request.Context()

	switch event.Type {
	case "invoice.payment_succeeded", "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return err
		}
		ev := models.PaymentEvent{
			EventID:     event.ID,
			PlanRefID:   invoiceSubscriptionID(&inv),
			InvoiceID:   inv.ID,
			Amount:      float64(inv.AmountDue) / 100,
			PeriodStart: time.Unix(inv.PeriodStart, 0),
			PeriodEnd:   time.Unix(inv.PeriodEnd, 0),
		}
		if inv.PaymentIntent != nil {
			ev.PaymentIntentID = inv.PaymentIntent.ID
		}
		if event.Type == "invoice.payment_succeeded" {
			return h.Service.HandlePaymentSucceeded(ctx, ev)
		}
		if inv.LastFinalizationError != nil {
			ev.ErrorCode = string(inv.LastFinalizationError.Code)
			ev.ErrorMessage = inv.LastFinalizationError.Msg
		}
		return h.Service.HandlePaymentFailed(ctx, ev)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return err
		}
		return h.Service.HandlePlanDeleted(ctx, sub.ID)

	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return err
		}
		return h.Service.HandlePlanUpdated(ctx, sub.ID, sub.CancelAtPeriodEnd,
			time.Unix(sub.CurrentPeriodStart, 0), time.Unix(sub.CurrentPeriodEnd, 0))

	default:
		utils.GetLogger().Debug("ignoring webhook event", zap.String("type", string(event.Type)))
		return nil
	}
}

func invoiceSubscriptionID(inv *stripe.Invoice) string {
	if inv.Subscription != nil {
		return inv.Subscription.ID
	}
	return ""
}
