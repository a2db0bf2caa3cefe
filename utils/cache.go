// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"lumident/config"

	"github.com/go-redis/redis/v8"
)

// BookingCacheClient holds in-flight booking drafts between intent submission
// and the gateway callback.
var BookingCacheClient *redis.Client

// InitBookingCache initializes the Redis client backing the transient draft store.
func InitBookingCache() {
	BookingCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisBookingDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := BookingCacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Booking Cache): %v", err)
	}
}

// GetBookingCacheClient returns the booking cache client.
func GetBookingCacheClient() *redis.Client {
	if BookingCacheClient == nil {
		InitBookingCache()
	}
	return BookingCacheClient
}
