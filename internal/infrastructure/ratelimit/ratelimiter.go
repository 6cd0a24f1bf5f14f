package ratelimit

import (
	"context"
	"time"
)

// RateLimitConfig holds the request ceilings per sliding window. A window
// with a non-positive limit is not enforced.
type RateLimitConfig struct {
	RequestsPerMinute int
	RequestsPerHour   int
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, config RateLimitConfig) (bool, error)
	// Used reports how many requests fall inside the window ending now.
	Used(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
}
