package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	grpcmiddleware "user-crud-service/internal/adapter/grpc/middleware"
	"user-crud-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter returns a Gin middleware for rate limiting using the shared token bucket.
// Buckets are keyed by route and client IP. Redis errors let the request through.
func RateLimiter(limiter *grpcmiddleware.RateLimiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Enabled() {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		scope := c.Request.Method + " " + route
		clientIP := c.ClientIP()

		allowed, err := limiter.Allow(c.Request.Context(), scope, clientIP)
		if err != nil {
			logger.WithContext(c.Request.Context(), log).Warn("rate limiter redis error, allowing request",
				zap.String("client_ip", clientIP),
				zap.String("route", scope),
				zap.Error(err),
			)
			c.Next()
			return
		}

		cfg := limiter.Config()
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.BurstCapacity))

		if !allowed {
			logger.WithContext(c.Request.Context(), log).Warn("rate limit exceeded",
				zap.String("client_ip", clientIP),
				zap.String("route", scope),
			)
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"detail": fmt.Sprintf("rate limit exceeded: %.2f requests/second (burst capacity: %d)",
					cfg.RequestsPerSecond, cfg.BurstCapacity),
			})
			return
		}

		c.Next()
	}
}
