package middleware

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRatePerMinute = 30
	rateLimitPrefix      = "rl:"
)

// RateLimit caps requests per client IP in fixed one-minute windows using
// Redis counters under the given scope. It is a no-op without Redis and
// fails open on cache errors.
func RateLimit(cache *redis.Client, maxPerMin int, scope string) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = defaultRatePerMinute
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		ctx := c.UserContext()
		key := rateLimitPrefix + scope + ":" + c.IP()

		// EXPIRE NX in the same transaction gives a counter that lost its TTL
		// a new one instead of blocking the client forever.
		var incr *redis.IntCmd
		if _, err := cache.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			pipe.ExpireNX(ctx, key, time.Minute)
			return nil
		}); err != nil {
			return c.Next()
		}
		if incr.Val() > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many requests, try again later")
		}
		return c.Next()
	}
}
