package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"fieldbook/config"
	"fieldbook/services/subscription"
	"fieldbook/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeDeferredOccurrence = "subscription:deferred_occurrence"

// DeferredOccurrencePayload identifies an occurrence whose generation was
// pushed out past the look-ahead window.
type DeferredOccurrencePayload struct {
	SubscriptionID string `json:"subscriptionId"`
	OccurrenceDate string `json:"occurrenceDate"`
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// AsynqScheduler enqueues deferred-occurrence tasks; it implements
// subscription.TaskScheduler.
type AsynqScheduler struct {
	client *asynq.Client
}

// NewAsynqScheduler constructs the queue client from app config.
func NewAsynqScheduler() *AsynqScheduler {
	return &AsynqScheduler{client: asynq.NewClient(redisOpts())}
}

// Close releases the queue client.
func (s *AsynqScheduler) Close() error {
	return s.client.Close()
}

func (s *AsynqScheduler) ScheduleOccurrence(ctx context.Context, subscriptionID, occurrenceDate string, processAt time.Time) error {
	payload, err := json.Marshal(DeferredOccurrencePayload{
		SubscriptionID: subscriptionID,
		OccurrenceDate: occurrenceDate,
	})
	if err != nil {
		return fmt.Errorf("failed to encode deferred occurrence: %w", err)
	}
	task := asynq.NewTask(TypeDeferredOccurrence, payload)
	_, err = s.client.EnqueueContext(ctx, task,
		asynq.ProcessAt(processAt),
		asynq.MaxRetry(5),
		asynq.TaskID(fmt.Sprintf("%s:%s:%s", TypeDeferredOccurrence, subscriptionID, occurrenceDate)),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue deferred occurrence: %w", err)
	}
	return nil
}

// InitDeferredWorker runs the async worker in background.
func InitDeferredWorker(subSvc subscription.SubscriptionService) {
	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeDeferredOccurrence, handleDeferredOccurrence(subSvc))

	go func() {
		log.Println("[DeferredWorker] starting async worker...")
		if err := srv.Run(mux); err != nil {
			log.Fatalf("[DeferredWorker] failed to start worker: %v", err)
		}
	}()
}

func handleDeferredOccurrence(subSvc subscription.SubscriptionService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		logger := utils.GetLogger()

		var p DeferredOccurrencePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid deferred occurrence payload", zap.Error(err))
			return err
		}

		logger.Info("generating deferred occurrence",
			zap.String("subscriptionId", p.SubscriptionID), zap.String("date", p.OccurrenceDate))
		if err := subSvc.GenerateDeferred(ctx, p.SubscriptionID, p.OccurrenceDate); err != nil {
			logger.Error("deferred occurrence generation failed",
				zap.String("subscriptionId", p.SubscriptionID), zap.Error(err))
			return err
		}
		return nil
	}
}
