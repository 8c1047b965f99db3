package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plateful/server/internal/shared/cache"
	"go.uber.org/zap"
)

// RateLimit returns a middleware that limits requests per user for the
// route it is mounted on. A nil limiter disables limiting; limiter errors
// fail open.
func RateLimit(limiter cache.RateLimiter, limit int, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		key := GetUserID(c)
		if key == "" {
			key = c.ClientIP()
		}
		key = c.FullPath() + ":" + key

		allowed, err := limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			log.Warn("rate limit check failed", zap.Error(err), zap.String("key", key))
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests, slow down",
			})
			return
		}

		c.Next()
	}
}
