// Package serieslock provides per-series mutual exclusion for successor spawning.
package serieslock

import (
	"context"
	"sync"
	"time"
)

// Locker claims a recurring series for the duration of one spawn attempt.
// TryLock never blocks: ok is false when another holder owns the claim.
type Locker interface {
	TryLock(ctx context.Context, seriesID string, ttl time.Duration) (unlock func(), ok bool, err error)
}

// LocalLocker is an in-process Locker for single-instance deployments.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		held: make(map[string]time.Time),
		now:  time.Now,
	}
}

func (l *LocalLocker) TryLock(_ context.Context, seriesID string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if expiresAt, ok := l.held[seriesID]; ok && l.now().Before(expiresAt) {
		return nil, false, nil
	}
	expiresAt := l.now().Add(ttl)
	l.held[seriesID] = expiresAt

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			// a holder whose claim expired must not release a newer claim
			if l.held[seriesID].Equal(expiresAt) {
				delete(l.held, seriesID)
			}
		})
	}, true, nil
}
