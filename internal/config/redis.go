package config

// Redis backs two optional concerns: short-TTL caching of the
// availability listing and rate limiting of claim attempts.  When no
// server can be reached at startup the client is nil and both
// concerns are disabled; the scheduler itself never depends on Redis
// for correctness.

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient instantiates a Redis client from environment
// variables:
//
//	REDIS_ADDR     - host:port (default "localhost:6379")
//	REDIS_PASSWORD - optional password
//	REDIS_DB       - database number (default 0)
//
// The returned client is nil when the server does not answer a ping
// within two seconds; callers should treat nil as "feature off".
func NewRedisClient() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	dbNum := 0
	if s := os.Getenv("REDIS_DB"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			dbNum = n
		}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       dbNum,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}

// AvailabilityCacheTTL returns how long cached availability responses
// stay fresh.  Default three seconds: spot counts may lag the ledger
// by that much because claims re-validate against live state anyway.
func AvailabilityCacheTTL() time.Duration {
	if s := os.Getenv("AVAILABILITY_CACHE_TTL"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			return d
		}
	}
	return 3 * time.Second
}

// ClaimRateLimit returns the per-user claim budget and its window.
// Defaults allow 20 claim attempts per minute, enough for a busy
// human and far below anything that would hammer the coordinator.
func ClaimRateLimit() (limit int, window time.Duration) {
	limit, window = 20, time.Minute
	if s := os.Getenv("CLAIM_RATE_LIMIT"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	if s := os.Getenv("CLAIM_RATE_WINDOW"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			window = d
		}
	}
	return limit, window
}
