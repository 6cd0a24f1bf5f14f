package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cryptbill/cryptbill/internal/application/invoice/serieslock"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
)

const (
	// seriesLockKeyPrefix is the prefix for recurring series spawn locks
	seriesLockKeyPrefix = "invoice_series_lock:"
	releaseTimeout      = 2 * time.Second
)

// releaseSeriesLockScript deletes the lock only while it still holds our token.
// KEYS[1] = lock key, ARGV[1] = token
// Returns 1 if released, 0 if the lock expired or belongs to another holder
var releaseSeriesLockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisSeriesLocker claims recurring series across every worker sharing the Redis instance.
type RedisSeriesLocker struct {
	client redis.Cmdable
	logger logger.Interface
}

func NewRedisSeriesLocker(client redis.Cmdable, logger logger.Interface) *RedisSeriesLocker {
	return &RedisSeriesLocker{client: client, logger: logger}
}

var _ serieslock.Locker = (*RedisSeriesLocker)(nil)

// buildKey builds the Redis key for a series lock
// Format: invoice_series_lock:{series_id}
func (l *RedisSeriesLocker) buildKey(seriesID string) string {
	return seriesLockKeyPrefix + seriesID
}

// TryLock acquires the series lock with SET NX PX. The returned unlock is
// safe to call more than once and after the lock expired.
func (l *RedisSeriesLocker) TryLock(ctx context.Context, seriesID string, ttl time.Duration) (func(), bool, error) {
	key := l.buildKey(seriesID)
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire series lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			// the caller's context may already be cancelled by the time it releases
			releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()

			if err := releaseSeriesLockScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
				l.logger.Warnw("failed to release series lock, it will expire on its own",
					"series_id", seriesID,
					"error", err,
				)
			}
		})
	}
	return unlock, true, nil
}
