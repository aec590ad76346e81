package middleware

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// CacheAvailability returns a middleware that serves the shift
// availability listing from Redis for a short TTL.  Availability is
// identical for every caller and is the hottest read in the system:
// staff poll it while deciding what to claim.  Spot counts may lag
// the ledger by at most the TTL, which the claim path tolerates by
// re-validating against live state, so a stale cache can cause a 409
// but never an oversubscribed shift.
//
// Only successful JSON responses are cached.  When client is nil the
// middleware is a no-op passthrough.
func CacheAvailability(client *redis.Client, ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if client == nil || c.Request().Method != http.MethodGet {
				return next(c)
			}
			key := "cache:availability:" + c.Request().URL.RequestURI()
			ctx, cancel := context.WithTimeout(c.Request().Context(), 200*time.Millisecond)
			defer cancel()
			if body, err := client.Get(ctx, key).Bytes(); err == nil {
				return c.JSONBlob(http.StatusOK, body)
			}

			rec := &responseRecorder{ResponseWriter: c.Response().Writer}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				return err
			}
			if rec.status == http.StatusOK {
				// Write-through on a fresh context: the request context may
				// already be done by the time the response has flushed.
				wctx, wcancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
				defer wcancel()
				client.Set(wctx, key, rec.body.Bytes(), ttl)
			}
			return nil
		}
	}
}

// responseRecorder tees the response body so it can be cached after
// it has been sent to the client.
type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	if r.status == http.StatusOK {
		r.body.Write(b)
	}
	return r.ResponseWriter.Write(b)
}
