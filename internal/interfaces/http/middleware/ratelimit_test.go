package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptbill/cryptbill/internal/infrastructure/ratelimit"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
)

func newRateLimitedEngine(t *testing.T, perMinute int) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	m := NewPaymentCheckRateLimitMiddleware(ratelimit.NewRedisRateLimiter(client), perMinute, logger.NewDiscard())
	engine := gin.New()
	engine.POST("/api/invoices/:id/check-payment", m.Limit(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return engine, mr
}

func checkPayment(engine *gin.Engine, invoiceID string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/invoices/"+invoiceID+"/check-payment", nil)
	req.RemoteAddr = "203.0.113.7:5000"
	engine.ServeHTTP(w, req)
	return w
}

func TestPaymentCheckRateLimit(t *testing.T) {
	engine, _ := newRateLimitedEngine(t, 2)

	w := checkPayment(engine, "inv_a")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	require.Equal(t, http.StatusOK, checkPayment(engine, "inv_a").Code)

	w = checkPayment(engine, "inv_a")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, checkPayment(engine, "inv_b").Code, "budget is per invoice")
}

func TestPaymentCheckRateLimit_FailsOpen(t *testing.T) {
	engine, mr := newRateLimitedEngine(t, 1)
	mr.Close()

	assert.Equal(t, http.StatusOK, checkPayment(engine, "inv_a").Code)
	assert.Equal(t, http.StatusOK, checkPayment(engine, "inv_a").Code)
}
