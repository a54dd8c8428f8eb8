// Package ratelimit throttles requests with a token bucket per client key.
package ratelimit

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gymbook/reservation-api/internal/auth"
	"github.com/gymbook/reservation-api/internal/config"
	"github.com/gymbook/reservation-api/internal/pkg/response"
)

// Decision is the outcome of taking one token from a bucket.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter takes a token from the bucket identified by key.
type Limiter interface {
	Take(ctx context.Context, key string) (Decision, error)
}

// Middleware rejects requests with 429 once the caller's bucket is empty.
// Limiter errors fail open.
func Middleware(l Limiter, cfg config.RateLimitConfig, log *zap.Logger) gin.HandlerFunc {
	if !cfg.Enabled || l == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := buildKey(cfg.Prefix, c)

		d, err := l.Take(c.Request.Context(), key)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

		if !d.Allowed {
			secs := int(math.Ceil(d.RetryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.ErrorResponse{Error: "rate limit exceeded"})
			return
		}

		c.Next()
	}
}

// buildKey identifies the caller by IP and, when authenticated, by user, scoped to the route.
func buildKey(prefix string, c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := auth.GetUserID(c)
	if uid == "" {
		uid = "anon"
	}
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return strings.Join([]string{prefix, "ip", ip, "user", uid, "route", c.Request.Method + " " + route}, ":")
}
