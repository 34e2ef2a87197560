package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/agentnetph/agent-network-backend/internal/common/response"
)

// RateLimitConfig rate limiting configuration
type RateLimitConfig struct {
	RedisClient *redis.Client
	KeyPrefix   string
	Limit       int
	Window      time.Duration
	KeyFunc     func(*gin.Context) string
}

// DefaultRateLimitConfig default rate limiting configuration
func DefaultRateLimitConfig(redisClient *redis.Client) *RateLimitConfig {
	return &RateLimitConfig{
		RedisClient: redisClient,
		KeyPrefix:   "ratelimit:",
		Limit:       300,
		Window:      time.Minute,
	}
}

// RateLimit fixed-window rate limiting middleware backed by Redis
func RateLimit(config *RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var key string
		if config.KeyFunc != nil {
			key = config.KeyFunc(c)
		} else {
			key = fmt.Sprintf("%s%s:%s", config.KeyPrefix, c.ClientIP(), c.Request.URL.Path)
		}

		ctx := context.Background()

		count, err := config.RedisClient.Incr(ctx, key).Result()
		if err != nil {
			// fail open on Redis errors
			c.Next()
			return
		}

		if count == 1 {
			config.RedisClient.Expire(ctx, key, config.Window)
		}

		if count > int64(config.Limit) {
			response.TooManyRequests(c, "")
			c.Abort()
			return
		}

		c.Next()
	}
}
