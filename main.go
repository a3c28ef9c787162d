// File: fieldbook/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldbook/config"
	"fieldbook/cron"
	"fieldbook/database"
	bookingRepo "fieldbook/database/repository/booking"
	counterRepo "fieldbook/database/repository/counter"
	fieldRepo "fieldbook/database/repository/field"
	recordsRepo "fieldbook/database/repository/records"
	slotlockRepo "fieldbook/database/repository/slotlock"
	subscriptionRepo "fieldbook/database/repository/subscription"
	"fieldbook/handlers"
	"fieldbook/middleware"
	"fieldbook/routes"
	"fieldbook/services/booking"
	"fieldbook/services/notification"
	"fieldbook/services/payment"
	"fieldbook/services/subscription"
	"fieldbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitWebhookCache()
	stripe.Key = config.AppConfig.StripeKey

	if err := slotlockRepo.EnsureIndexes(context.Background()); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure slot lock indexes: %v", err)
	}

	// repositories.
	locks := slotlockRepo.NewMongoSlotLockRepo()
	bookings := bookingRepo.NewMongoBookingRepo()
	subs := subscriptionRepo.NewMongoSubscriptionRepo()
	fields := fieldRepo.NewMongoFieldRepo()
	counters := counterRepo.NewMongoCounterRepo()
	records := recordsRepo.NewMongoRecordRepo()

	// services.
	notifier := notification.NewDefaultNotificationService()
	gateway := payment.NewStripeGateway()

	availability := &booking.AvailabilityChecker{
		Bookings:      bookings,
		Locks:         locks,
		Subscriptions: subs,
	}
	generator := &booking.Generator{
		Fields:         fields,
		Bookings:       bookings,
		Subscriptions:  subs,
		Counters:       counters,
		Records:        records,
		Availability:   availability,
		Notifier:       notifier,
		CommissionRate: config.AppConfig.CommissionRate,
	}
	slotService := &booking.SlotService{
		Locks:        locks,
		Availability: availability,
		LockTTL:      time.Duration(config.AppConfig.SlotLockTTLMinutes) * time.Minute,
	}

	scheduler := cron.NewAsynqScheduler()
	defer scheduler.Close()

	subscriptionService := &subscription.DefaultSubscriptionService{
		Subscriptions: subs,
		Bookings:      bookings,
		Fields:        fields,
		Records:       records,
		Gateway:       gateway,
		Generator:     generator,
		Notifier:      notifier,
		Scheduler:     scheduler,
		LookAheadDays: config.AppConfig.LookAheadDays,
		RetryDelay:    24 * time.Hour,
	}

	// background work: deferred occurrences plus the sweep loops.
	cron.InitDeferredWorker(subscriptionService)
	sweeper := &cron.SweepWorker{
		Locks:         locks,
		Subscriptions: subscriptionService,
		LockInterval:  time.Duration(config.AppConfig.SlotLockSweepMinutes) * time.Minute,
		RetryInterval: time.Duration(config.AppConfig.RetrySweepHours) * time.Hour,
	}
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	// HTTP edge.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	bookingHandler := handlers.NewBookingHandler(slotService, availability)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService)
	notificationHandler := handlers.NewNotificationHandler(notifier)
	webhookHandler := handlers.NewWebhookHandler(subscriptionService)
	routes.RegisterRoutes(router, bookingHandler, subscriptionHandler, notificationHandler, webhookHandler)

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.AppPort,
		Handler: router,
	}

	go func() {
		logger.Sugar().Infof("main: listening on :%s", config.AppConfig.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: forced shutdown: %v", err)
	}
}
