package invoice

import (
	"fmt"
	"strings"

	vo "github.com/cryptbill/cryptbill/internal/domain/invoice/valueobjects"
)

// StaffAddresses are the receiving addresses a staff member has configured.
// Empty means not configured.
type StaffAddresses struct {
	LTC  string
	USDT string
	USDC string
}

func (a StaffAddresses) For(asset vo.Asset) string {
	switch asset {
	case vo.AssetLTC:
		return strings.TrimSpace(a.LTC)
	case vo.AssetUSDT:
		return strings.TrimSpace(a.USDT)
	case vo.AssetUSDC:
		return strings.TrimSpace(a.USDC)
	default:
		return ""
	}
}

// Allocation is the asset and address chosen for an invoice.
type Allocation struct {
	Asset   vo.Asset
	Address string
}

// AllocateAddress picks the address to present for a currency selection. A concrete
// asset needs that exact address. The wildcard takes the first configured address
// in AllocationPriority, so repeated calls for the same staff configuration agree.
func AllocateAddress(currency vo.Currency, addresses StaffAddresses) (Allocation, error) {
	if asset, ok := currency.Asset(); ok {
		addr := addresses.For(asset)
		if addr == "" {
			return Allocation{}, fmt.Errorf("%w for %s", ErrNoAddressConfigured, asset)
		}
		return Allocation{Asset: asset, Address: addr}, nil
	}

	if !currency.IsWildcard() {
		return Allocation{}, fmt.Errorf("%w: unsupported currency %q", ErrInvalidInvoice, currency)
	}

	for _, asset := range vo.AllocationPriority {
		if addr := addresses.For(asset); addr != "" {
			return Allocation{Asset: asset, Address: addr}, nil
		}
	}
	return Allocation{}, fmt.Errorf("%w for any supported currency", ErrNoAddressConfigured)
}
