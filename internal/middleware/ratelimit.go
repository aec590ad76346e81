package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// ClaimRateLimit returns a middleware that caps how many claim
// attempts a single user may make per window, counted in Redis with a
// fixed window per user.  A claim storm from one client cannot starve
// the coordinator's instance locks for everyone else.  Exceeding the
// budget yields 429 with a retry hint.
//
// When client is nil the limiter is disabled.  Redis failures fail
// open: a broken limiter must not take claiming down with it.
func ClaimRateLimit(client *redis.Client, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if client == nil {
				return next(c)
			}
			uid := fmt.Sprint(c.Get("user_id"))
			key := fmt.Sprintf("rl:claim:%s:%d", uid, time.Now().Unix()/int64(window.Seconds()))

			ctx, cancel := context.WithTimeout(c.Request().Context(), 200*time.Millisecond)
			defer cancel()
			n, err := client.Incr(ctx, key).Result()
			if err != nil {
				return next(c)
			}
			if n == 1 {
				client.Expire(ctx, key, window)
			}
			if n > int64(limit) {
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too many claim attempts",
					"retry_after": window.String(),
				})
			}
			return next(c)
		}
	}
}
