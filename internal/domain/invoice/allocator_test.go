package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/cryptbill/cryptbill/internal/domain/invoice/valueobjects"
)

func TestAllocateAddress(t *testing.T) {
	full := StaffAddresses{LTC: "ltc1qExample", USDT: "0xusdt", USDC: "0xusdc"}

	tests := []struct {
		name      string
		currency  vo.Currency
		addresses StaffAddresses
		want      Allocation
		wantErr   error
	}{
		{"concrete ltc", vo.CurrencyLTC, full, Allocation{vo.AssetLTC, "ltc1qExample"}, nil},
		{"concrete usdc", vo.CurrencyUSDC, full, Allocation{vo.AssetUSDC, "0xusdc"}, nil},
		{"concrete missing", vo.CurrencyUSDT, StaffAddresses{LTC: "ltc1q"}, Allocation{}, ErrNoAddressConfigured},
		{"whitespace counts as missing", vo.CurrencyLTC, StaffAddresses{LTC: "  "}, Allocation{}, ErrNoAddressConfigured},
		{"wildcard prefers ltc", vo.CurrencyAny, full, Allocation{vo.AssetLTC, "ltc1qExample"}, nil},
		{"wildcard falls back to usdt", vo.CurrencyAny, StaffAddresses{USDT: "0xusdt", USDC: "0xusdc"}, Allocation{vo.AssetUSDT, "0xusdt"}, nil},
		{"wildcard falls back to usdc", vo.CurrencyAny, StaffAddresses{USDC: "0xusdc"}, Allocation{vo.AssetUSDC, "0xusdc"}, nil},
		{"wildcard nothing configured", vo.CurrencyAny, StaffAddresses{}, Allocation{}, ErrNoAddressConfigured},
		{"zero currency", vo.Currency{}, full, Allocation{}, ErrInvalidInvoice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AllocateAddress(tt.currency, tt.addresses)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllocateAddressIsDeterministic(t *testing.T) {
	addrs := StaffAddresses{USDT: "0xusdt", USDC: "0xusdc"}

	first, err := AllocateAddress(vo.CurrencyAny, addrs)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := AllocateAddress(vo.CurrencyAny, addrs)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
