package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cryptbill/cryptbill/internal/infrastructure/ratelimit"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
	"github.com/cryptbill/cryptbill/internal/shared/utils"
)

// PaymentCheckRateLimitMiddleware bounds how often one client may ask the chain
// about one invoice. Each check costs explorer API quota shared by every user.
type PaymentCheckRateLimitMiddleware struct {
	limiter           ratelimit.RateLimiter
	requestsPerMinute int
	logger            logger.Interface
}

func NewPaymentCheckRateLimitMiddleware(
	limiter ratelimit.RateLimiter,
	requestsPerMinute int,
	logger logger.Interface,
) *PaymentCheckRateLimitMiddleware {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}
	return &PaymentCheckRateLimitMiddleware{
		limiter:           limiter,
		requestsPerMinute: requestsPerMinute,
		logger:            logger,
	}
}

// Limit keys the budget by client IP and the :id path parameter. When the
// limiter itself fails the request is let through.
func (m *PaymentCheckRateLimitMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		invoiceID := c.Param("id")
		key := fmt.Sprintf("check_payment:%s:%s", c.ClientIP(), invoiceID)
		config := ratelimit.RateLimitConfig{
			RequestsPerMinute: m.requestsPerMinute,
			RequestsPerHour:   m.requestsPerMinute * 20,
		}

		ctx := c.Request.Context()
		allowed, err := m.limiter.Allow(ctx, key, config)
		if err != nil {
			m.logger.Warnw("rate limit check failed, allowing request",
				"error", err,
				"invoice_id", invoiceID,
			)
			c.Next()
			return
		}

		used, err := m.limiter.Used(ctx, key, time.Minute)
		if err != nil {
			m.logger.Warnw("failed to get used rate limit",
				"error", err,
				"invoice_id", invoiceID,
			)
			used = int64(m.requestsPerMinute)
		}

		limit := int64(m.requestsPerMinute)
		remaining := limit - used
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10))

		if !allowed {
			m.logger.Warnw("payment check rate limit exceeded",
				"invoice_id", invoiceID,
				"client_ip", c.ClientIP(),
				"limit", m.requestsPerMinute,
			)

			c.Header("Retry-After", strconv.Itoa(int(time.Minute.Seconds())))
			utils.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
			c.Abort()
			return
		}

		c.Next()
	}
}
