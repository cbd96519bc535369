package middleware

import (
	"net/http"
	"time"

	"supplytrack/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// newStore keeps counters in Redis when available, so every replica shares the
// same budget, and in process memory otherwise.
func newStore(rdb *redis.Client, prefix string) limiter.Store {
	if rdb != nil {
		store, err := sredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: prefix})
		if err == nil {
			return store
		}
		log.Warn().Err(err).Str("prefix", prefix).Msg("rate limiter: redis store unavailable, using memory")
	}
	return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix, CleanUpInterval: 5 * time.Minute})
}

func newLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration, message string) gin.HandlerFunc {
	rate := limiter.Rate{Period: window, Limit: int64(limit)}
	return mgin.NewMiddleware(
		limiter.New(newStore(rdb, prefix), rate),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(message))
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// A broken counter store must not take the API down.
			log.Error().Err(err).Str("request_id", c.GetString(RequestIDKey)).Msg("rate limiter store error")
			c.Next()
		}),
	)
}

// LoginRateLimiter limits login attempts per client IP.
func LoginRateLimiter(rdb *redis.Client, perMinute int) gin.HandlerFunc {
	return newLimiter(rdb, "limiter:login", perMinute, time.Minute,
		"Too many login attempts. Try again in a minute.")
}

// RateLimiter is the general API limiter, per client IP.
func RateLimiter(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return newLimiter(rdb, "limiter:api", limit, window,
		"Too many requests. Try again shortly.")
}
