package handlers

import (
	"net/http"
	"strconv"

	"fieldbook/services/notification"
	"fieldbook/utils"

	"github.com/gin-gonic/gin"
)

const defaultNotificationLimit = 20

// NotificationHandler exposes the caller's in-app notification feed.
type NotificationHandler struct {
	Service notification.NotificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(svc notification.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: svc}
}

// List returns the caller's notifications, newest first. The optional "limit"
// query parameter caps the page size.
func (h *NotificationHandler) List(c *gin.Context) {
	limit := defaultNotificationLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.JSONError(c, http.StatusBadRequest, "Invalid limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	items, err := h.Service.ListForRecipient(c.Request.Context(), c.GetString("userID"), limit)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to list notifications", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}
