package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	CouponApplyMaxRequests = 10
	CartMaxRequests        = 20
	rateWindow             = time.Minute
)

// Counter increments a windowed counter and returns the new count and the time left in the window.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RateLimit allows limit requests per window for each shopper, or each IP before login.
// When the counter store is down requests are let through.
func RateLimit(counter Counter, scope string, limit int64, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.GetString(KeyUserID)
		if subject == "" {
			subject = "ip:" + c.ClientIP()
		}
		key := fmt.Sprintf("rate:%s:%s", scope, subject)

		n, ttl, err := counter.Hit(c.Request.Context(), key, window)
		if err != nil {
			log.Warn("⚠️ rate limit check failed", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", max(limit-n, 0)))

		if n > limit {
			retry := int(ttl.Seconds())
			if retry <= 0 {
				retry = int(window.Seconds())
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many requests, slow down",
				"retry_after": retry,
			})
			return
		}

		c.Next()
	}
}

// CouponApplyRateLimit throttles coupon code guessing.
func CouponApplyRateLimit(counter Counter, log *zap.Logger) gin.HandlerFunc {
	return RateLimit(counter, "coupon_apply", CouponApplyMaxRequests, rateWindow, log)
}

// CartRateLimit throttles cart additions.
func CartRateLimit(counter Counter, log *zap.Logger) gin.HandlerFunc {
	return RateLimit(counter, "cart_add", CartMaxRequests, rateWindow, log)
}
