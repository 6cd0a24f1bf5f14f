package directory

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/cryptbill/cryptbill/internal/application/invoice/directory"
	"github.com/cryptbill/cryptbill/internal/domain/invoice"
)

const (
	defaultCacheSize = 1024
	defaultCacheTTL  = time.Minute
)

// CachedDirectory memoises existence and name lookups for ttl. Errors are
// never cached. Payment addresses always go to the backing directory so a
// newly configured address is used by the next invoice.
type CachedDirectory struct {
	next    directory.Directory
	staff   *expirable.LRU[string, bool]
	clients *expirable.LRU[string, bool]
	names   *expirable.LRU[string, string]
}

func NewCachedDirectory(next directory.Directory, size int, ttl time.Duration) *CachedDirectory {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedDirectory{
		next:    next,
		staff:   expirable.NewLRU[string, bool](size, nil, ttl),
		clients: expirable.NewLRU[string, bool](size, nil, ttl),
		names:   expirable.NewLRU[string, string](size, nil, ttl),
	}
}

var _ directory.Directory = (*CachedDirectory)(nil)

func (c *CachedDirectory) ResolveStaffAddresses(ctx context.Context, staffID string) (invoice.StaffAddresses, error) {
	return c.next.ResolveStaffAddresses(ctx, staffID)
}

func (c *CachedDirectory) StaffExists(ctx context.Context, staffID string) (bool, error) {
	return cachedLookup(ctx, c.staff, staffID, c.next.StaffExists)
}

func (c *CachedDirectory) ClientExists(ctx context.Context, clientID string) (bool, error) {
	return cachedLookup(ctx, c.clients, clientID, c.next.ClientExists)
}

func (c *CachedDirectory) StaffName(ctx context.Context, staffID string) (string, error) {
	return cachedLookup(ctx, c.names, "staff:"+staffID, func(ctx context.Context, _ string) (string, error) {
		return c.next.StaffName(ctx, staffID)
	})
}

func (c *CachedDirectory) ClientName(ctx context.Context, clientID string) (string, error) {
	return cachedLookup(ctx, c.names, "client:"+clientID, func(ctx context.Context, _ string) (string, error) {
		return c.next.ClientName(ctx, clientID)
	})
}

// InvalidateStaff drops every cached entry of a staff member.
func (c *CachedDirectory) InvalidateStaff(staffID string) {
	c.staff.Remove(staffID)
	c.names.Remove("staff:" + staffID)
}

func (c *CachedDirectory) InvalidateClient(clientID string) {
	c.clients.Remove(clientID)
	c.names.Remove("client:" + clientID)
}

func cachedLookup[V any](ctx context.Context, cache *expirable.LRU[string, V], key string, load func(context.Context, string) (V, error)) (V, error) {
	if v, ok := cache.Get(key); ok {
		return v, nil
	}
	v, err := load(ctx, key)
	if err != nil {
		return v, err
	}
	cache.Add(key, v)
	return v, nil
}
