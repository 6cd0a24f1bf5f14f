package serieslock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerExcludesConcurrentHolder(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	unlock, ok, err := l.TryLock(ctx, "inv_series", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, "inv_series", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, _ = l.TryLock(ctx, "inv_other", time.Minute)
	assert.True(t, ok, "different series are independent")

	unlock()
	unlock()

	_, ok, _ = l.TryLock(ctx, "inv_series", time.Minute)
	assert.True(t, ok)
}

func TestLocalLockerExpiredClaimCanBeTaken(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	l := NewLocalLocker()
	l.now = func() time.Time { return now }
	ctx := context.Background()

	staleUnlock, ok, _ := l.TryLock(ctx, "inv_series", time.Second)
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, _ = l.TryLock(ctx, "inv_series", time.Minute)
	require.True(t, ok)

	staleUnlock()
	_, ok, _ = l.TryLock(ctx, "inv_series", time.Minute)
	assert.False(t, ok, "stale holder must not release the newer claim")
}
