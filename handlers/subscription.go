package handlers

import (
	"errors"
	"net/http"

	"fieldbook/models"
	"fieldbook/services/subscription"
	"fieldbook/utils"

	"github.com/gin-gonic/gin"
)

// SubscriptionHandler exposes the user-facing lifecycle operations.
type SubscriptionHandler struct {
	Service subscription.SubscriptionService
}

// NewSubscriptionHandler constructs the handler.
func NewSubscriptionHandler(svc subscription.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{Service: svc}
}

type createSubscriptionRequest struct {
	FieldID         string   `json:"fieldId" binding:"required"`
	Email           string   `json:"email" binding:"required"`
	Name            string   `json:"name"`
	Cadence         string   `json:"cadence" binding:"required"`
	StartDate       string   `json:"startDate" binding:"required"`
	Slots           []string `json:"slots" binding:"required"` // start labels, e.g. "4:30PM"
	DogCount        int      `json:"dogCount" binding:"required"`
	PaymentMethodID string   `json:"paymentMethodId" binding:"required"`
}

// Create starts a recurring booking.
func (h *SubscriptionHandler) Create(c *gin.Context) {
	var req createSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	slots := make([]models.SubscriptionSlot, 0, len(req.Slots))
	for _, label := range req.Slots {
		start, err := models.ParseTimeOfDay(label)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid slot time", err.Error())
			return
		}
		slots = append(slots, models.SubscriptionSlot{Label: label, Start: start})
	}

	sub, err := h.Service.Create(c.Request.Context(), models.CreateSubscriptionRequest{
		UserID:          c.GetString("userID"),
		Email:           req.Email,
		Name:            req.Name,
		FieldID:         req.FieldID,
		Cadence:         req.Cadence,
		Slots:           slots,
		DogCount:        req.DogCount,
		StartDate:       req.StartDate,
		PaymentMethodID: req.PaymentMethodID,
	})
	if err != nil {
		respondSubscriptionError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

type cancelSubscriptionRequest struct {
	Immediate bool `json:"immediate"`
}

// Cancel ends a subscription immediately or at period end.
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	var req cancelSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if err := h.Service.Cancel(c.Request.Context(), c.Param("id"), req.Immediate); err != nil {
		respondSubscriptionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListUpcomingBookings returns the subscription's future confirmed bookings.
func (h *SubscriptionHandler) ListUpcomingBookings(c *gin.Context) {
	bookings, err := h.Service.ListUpcomingBookings(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondSubscriptionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

type refundOccurrenceRequest struct {
	Reason string `json:"reason"`
}

// RefundOccurrence refunds one booking without touching the subscription.
func (h *SubscriptionHandler) RefundOccurrence(c *gin.Context) {
	var req refundOccurrenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if err := h.Service.RefundOccurrence(c.Request.Context(), c.Param("bookingId"), req.Reason); err != nil {
		respondSubscriptionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func respondSubscriptionError(c *gin.Context, err error) {
	var notFound *subscription.NotFoundError
	if errors.As(err, &notFound) {
		utils.JSONError(c, http.StatusNotFound, "Not found", err.Error())
		return
	}
	var invariant *subscription.InvariantViolationError
	if errors.As(err, &invariant) {
		utils.JSONError(c, http.StatusUnprocessableEntity, "Invalid operation", err.Error())
		return
	}
	utils.JSONError(c, http.StatusBadGateway, "Operation failed", err.Error())
}
