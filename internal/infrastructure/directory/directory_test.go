package directory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptbill/cryptbill/internal/domain/invoice"
	vo "github.com/cryptbill/cryptbill/internal/domain/invoice/valueobjects"
	"github.com/cryptbill/cryptbill/internal/infrastructure/database"
	"github.com/cryptbill/cryptbill/internal/infrastructure/migration"
	"github.com/cryptbill/cryptbill/internal/shared/config"
)

func newGormDirectory(t *testing.T) *GormDirectory {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", Database: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, migration.NewManager("goose").Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewGormDirectory(db)
}

func TestGormDirectory(t *testing.T) {
	ctx := context.Background()
	d := newGormDirectory(t)

	require.NoError(t, d.UpsertStaff(ctx, "S1", "Sam Staff", true))
	require.NoError(t, d.UpsertStaff(ctx, "S2", "Former Staff", false))
	require.NoError(t, d.UpsertClient(ctx, "C1", "Casey Client", "casey@example.com"))
	require.NoError(t, d.SetStaffAddress(ctx, "S1", vo.AssetLTC, "ltc1qExample"))
	require.NoError(t, d.SetStaffAddress(ctx, "S1", vo.AssetUSDC, "0xold"))
	require.NoError(t, d.SetStaffAddress(ctx, "S1", vo.AssetUSDC, "0xnew"))

	addrs, err := d.ResolveStaffAddresses(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, invoice.StaffAddresses{LTC: "ltc1qExample", USDC: "0xnew"}, addrs)

	ok, err := d.StaffExists(ctx, "S1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = d.StaffExists(ctx, "S2")
	require.NoError(t, err)
	assert.False(t, ok, "inactive staff cannot invoice")

	ok, err = d.ClientExists(ctx, "C1")
	require.NoError(t, err)
	assert.True(t, ok)

	name, err := d.StaffName(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, "Sam Staff", name)
	name, err = d.ClientName(ctx, "C404")
	require.NoError(t, err)
	assert.Empty(t, name)

	require.NoError(t, d.SetStaffAddress(ctx, "S1", vo.AssetLTC, ""))
	addrs, err = d.ResolveStaffAddresses(ctx, "S1")
	require.NoError(t, err)
	assert.Empty(t, addrs.LTC)

	assert.Error(t, d.SetStaffAddress(ctx, "S1", vo.Asset("DOGE"), "D123"))
}

type countingDirectory struct {
	addressCalls atomic.Int32
	staffCalls   atomic.Int32
	failNext     atomic.Bool
	addrs        invoice.StaffAddresses
}

func (d *countingDirectory) ResolveStaffAddresses(context.Context, string) (invoice.StaffAddresses, error) {
	d.addressCalls.Add(1)
	return d.addrs, nil
}

func (d *countingDirectory) StaffExists(context.Context, string) (bool, error) {
	d.staffCalls.Add(1)
	if d.failNext.CompareAndSwap(true, false) {
		return false, errors.New("directory offline")
	}
	return true, nil
}

func (d *countingDirectory) ClientExists(context.Context, string) (bool, error) { return true, nil }
func (d *countingDirectory) StaffName(context.Context, string) (string, error)  { return "Sam", nil }
func (d *countingDirectory) ClientName(context.Context, string) (string, error) { return "Casey", nil }

func TestCachedDirectory(t *testing.T) {
	ctx := context.Background()
	next := &countingDirectory{addrs: invoice.StaffAddresses{LTC: "ltc1qExample"}}
	cached := NewCachedDirectory(next, 16, time.Minute)

	next.failNext.Store(true)
	_, err := cached.StaffExists(ctx, "S1")
	require.Error(t, err)

	for i := 0; i < 3; i++ {
		ok, err := cached.StaffExists(ctx, "S1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, int32(2), next.staffCalls.Load(), "errors are not cached")

	cached.InvalidateStaff("S1")
	_, err = cached.StaffExists(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, int32(3), next.staffCalls.Load())

	name, err := cached.ClientName(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, "Casey", name)
}

func TestCachedDirectoryResolvesAddressesUncached(t *testing.T) {
	ctx := context.Background()
	next := &countingDirectory{addrs: invoice.StaffAddresses{LTC: "ltc1qExample"}}
	cached := NewCachedDirectory(next, 16, time.Minute)

	_, err := cached.ResolveStaffAddresses(ctx, "S1")
	require.NoError(t, err)

	next.addrs = invoice.StaffAddresses{USDT: "0xabc"}
	addrs, err := cached.ResolveStaffAddresses(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", addrs.USDT)
	assert.Equal(t, int32(2), next.addressCalls.Load())
}

func TestCachedDirectoryExpires(t *testing.T) {
	next := &countingDirectory{}
	cached := NewCachedDirectory(next, 16, 20*time.Millisecond)

	_, err := cached.StaffExists(context.Background(), "S1")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, _ = cached.StaffExists(context.Background(), "S1")
		return next.staffCalls.Load() >= 2
	}, time.Second, 10*time.Millisecond)
}
