package routes

import (
	"time"

	"fieldbook/handlers"
	"fieldbook/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the HTTP edge. Webhooks bypass user auth; everything
// else requires a bearer token.
func RegisterRoutes(
	router *gin.Engine,
	bookingHandler *handlers.BookingHandler,
	subscriptionHandler *handlers.SubscriptionHandler,
	notificationHandler *handlers.NotificationHandler,
	webhookHandler *handlers.WebhookHandler,
) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.POST("/webhooks/stripe", webhookHandler.HandleStripeEvent)

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		api.POST("/slots/lock", bookingHandler.LockSlot)
		api.DELETE("/fields/:fieldId/locks", bookingHandler.ReleaseSlot)
		api.GET("/fields/:fieldId/availability", bookingHandler.CheckAvailability)
		api.GET("/fields/:fieldId/locks", bookingHandler.ListLocks)

		api.POST("/subscriptions", subscriptionHandler.Create)
		api.POST("/subscriptions/:id/cancel", subscriptionHandler.Cancel)
		api.GET("/subscriptions/:id/bookings", subscriptionHandler.ListUpcomingBookings)
		api.POST("/bookings/:bookingId/refund", subscriptionHandler.RefundOccurrence)

		api.GET("/notifications", notificationHandler.List)
	}
}
