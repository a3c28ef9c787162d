// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"fieldbook/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient is the generic cache client.
	CacheClient *redis.Client
	// WebhookCacheClient is the dedicated client for webhook-event dedupe.
	WebhookCacheClient *redis.Client
)

// InitCache initializes the generic Redis cache client (using DB from AppConfig for general caching).
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := CacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// InitWebhookCache initializes the Redis client used to dedupe inbound gateway events.
func InitWebhookCache() {
	WebhookCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisWebhookDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := WebhookCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Webhook Cache): %v", err)
	}
}

// GetWebhookCacheClient returns the Redis client for webhook-event dedupe.
func GetWebhookCacheClient() *redis.Client {
	if WebhookCacheClient == nil {
		InitWebhookCache()
	}
	return WebhookCacheClient
}

// MarkEventProcessed records a gateway event ID with a TTL and reports whether
// this call was the first to see it. A second delivery of the same event
// returns false so the caller can skip reprocessing.
func MarkEventProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	client := GetWebhookCacheClient()
	return client.SetNX(ctx, "webhook:event:"+eventID, 1, ttl).Result()
}
