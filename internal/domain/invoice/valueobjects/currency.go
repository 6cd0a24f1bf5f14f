package valueobjects

import (
	"fmt"
	"strings"
)

// Asset is a concrete settlement asset an address can receive.
type Asset string

const (
	AssetLTC  Asset = "LTC"
	AssetUSDT Asset = "USDT"
	AssetUSDC Asset = "USDC"
)

// Network identifies the chain an asset settles on.
type Network string

const (
	NetworkLitecoin Network = "litecoin"
	NetworkPolygon  Network = "polygon"
)

// AllocationPriority is the order in which a wildcard selection picks a staff address.
var AllocationPriority = []Asset{AssetLTC, AssetUSDT, AssetUSDC}

func (a Asset) IsValid() bool {
	switch a {
	case AssetLTC, AssetUSDT, AssetUSDC:
		return true
	default:
		return false
	}
}

// Decimals is the number of fractional digits of the asset's smallest on-chain unit.
func (a Asset) Decimals() int32 {
	switch a {
	case AssetLTC:
		return 8
	case AssetUSDT, AssetUSDC:
		return 6
	default:
		return 0
	}
}

func (a Asset) Network() Network {
	switch a {
	case AssetLTC:
		return NetworkLitecoin
	default:
		return NetworkPolygon
	}
}

func (a Asset) String() string {
	return string(a)
}

// Currency is the selection made at invoice creation: a concrete asset or the
// wildcard meaning "any address the staff member has configured".
type Currency struct {
	asset    Asset
	wildcard bool
}

const wildcardCode = "CRYPTO"

var (
	CurrencyLTC  = Currency{asset: AssetLTC}
	CurrencyUSDT = Currency{asset: AssetUSDT}
	CurrencyUSDC = Currency{asset: AssetUSDC}
	CurrencyAny  = Currency{wildcard: true}
)

// ParseCurrency accepts LTC, USDT, USDC or the wildcard CRYPTO (ANY is an alias), case-insensitively.
func ParseCurrency(s string) (Currency, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	switch code {
	case wildcardCode, "ANY":
		return CurrencyAny, nil
	}
	asset := Asset(code)
	if !asset.IsValid() {
		return Currency{}, fmt.Errorf("unsupported currency: %q", s)
	}
	return Currency{asset: asset}, nil
}

// CurrencyOf returns the concrete selection for asset.
func CurrencyOf(asset Asset) Currency {
	return Currency{asset: asset}
}

func (c Currency) IsWildcard() bool {
	return c.wildcard
}

// Asset returns the concrete asset and false for the wildcard.
func (c Currency) Asset() (Asset, bool) {
	if c.wildcard {
		return "", false
	}
	return c.asset, c.asset.IsValid()
}

func (c Currency) IsZero() bool {
	return !c.wildcard && c.asset == ""
}

func (c Currency) String() string {
	if c.wildcard {
		return wildcardCode
	}
	return string(c.asset)
}
