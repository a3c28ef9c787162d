package handlers

import (
	"errors"
	"net/http"

	"fieldbook/models"
	"fieldbook/services/booking"
	"fieldbook/utils"

	"github.com/gin-gonic/gin"
)

// BookingHandler exposes the interactive slot-lock flow and the availability probe.
type BookingHandler struct {
	Slots        *booking.SlotService
	Availability *booking.AvailabilityChecker
}

// NewBookingHandler constructs the handler.
func NewBookingHandler(slots *booking.SlotService, availability *booking.AvailabilityChecker) *BookingHandler {
	return &BookingHandler{Slots: slots, Availability: availability}
}

type lockSlotRequest struct {
	FieldID string `json:"fieldId" binding:"required"`
	Date    string `json:"date" binding:"required"`
	Start   string `json:"start" binding:"required"` // "4:30PM" or "16:30"
	End     string `json:"end" binding:"required"`
}

// LockSlot holds a slot for the caller while their payment is in flight.
func (h *BookingHandler) LockSlot(c *gin.Context) {
	var req lockSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	start, err := models.ParseTimeOfDay(req.Start)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid start time", err.Error())
		return
	}
	end, err := models.ParseTimeOfDay(req.End)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid end time", err.Error())
		return
	}
	holderID := c.GetString("userID")

	lock, err := h.Slots.LockSlot(c.Request.Context(), req.FieldID, req.Date, start, end, holderID)
	if err != nil {
		var conflict *booking.ConflictError
		if errors.As(err, &conflict) {
			c.JSON(http.StatusConflict, gin.H{"error": conflict.Reason})
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "Failed to lock slot", err.Error())
		return
	}
	c.JSON(http.StatusOK, lock)
}

// ReleaseSlot abandons the caller's locks for a field and day.
func (h *BookingHandler) ReleaseSlot(c *gin.Context) {
	fieldID := c.Param("fieldId")
	date := c.Query("date")
	holderID := c.GetString("userID")

	if err := h.Slots.ReleaseSlot(c.Request.Context(), holderID, fieldID, date); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to release slot", err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckAvailability reports whether a time range on a field is free.
func (h *BookingHandler) CheckAvailability(c *gin.Context) {
	start, err := models.ParseTimeOfDay(c.Query("start"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid start time", err.Error())
		return
	}
	end, err := models.ParseTimeOfDay(c.Query("end"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid end time", err.Error())
		return
	}
	date, err := models.NormalizeDate(c.Query("date"))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid date", err.Error())
		return
	}

	free, reason, err := h.Availability.IsAvailable(c.Request.Context(), booking.AvailabilityQuery{
		FieldID:         c.Param("fieldId"),
		Date:            date,
		Start:           start,
		End:             end,
		ExcludeHolderID: c.GetString("userID"),
	})
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Availability check failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": free, "reason": reason})
}

// ListLocks lists the live locks on a field for a day.
func (h *BookingHandler) ListLocks(c *gin.Context) {
	locks, err := h.Slots.ActiveLocks(c.Request.Context(), c.Param("fieldId"), c.Query("date"))
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to list locks", err.Error())
		return
	}
	c.JSON(http.StatusOK, locks)
}
