package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cryptovest.backend/internal/interfaces/http/response"
	"cryptovest.backend/pkg/logger"
	"cryptovest.backend/pkg/metrics"
	"cryptovest.backend/pkg/redis"
	"cryptovest.backend/pkg/utils"
)

const CodeRateLimited = "RATE_LIMITED"

var (
	rateLimitClient = redis.GetClient
	rateLimitNow    = time.Now
)

// RateLimitMiddleware applies a per-client-IP sliding window backed by a Redis sorted set.
// The limiter fails open when Redis is unreachable.
func RateLimitMiddleware(limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := rateLimitClient()
		if client == nil || limit <= 0 || window <= 0 {
			c.Next()
			return
		}

		key := "ratelimit:" + c.ClientIP()
		count, err := slideWindow(c.Request.Context(), client, key, window)
		if err != nil {
			logger.Warn(c.Request.Context(), "Rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		remaining := limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if int(count) > limit {
			metrics.RecordRateLimited()
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			response.ErrorWithError(c, http.StatusTooManyRequests, CodeRateLimited, "Too many requests, please try again later")
			return
		}
		c.Next()
	}
}

// slideWindow records the current hit and returns the number of hits inside the window.
func slideWindow(ctx context.Context, client *goredis.Client, key string, window time.Duration) (int64, error) {
	now := rateLimitNow()
	member := fmt.Sprintf("%d-%s", now.UnixNano(), utils.GenerateUUIDv7())

	pipe := client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(now.Add(-window).UnixNano(), 10))
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixNano()), Member: member})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return card.Val(), nil
}
