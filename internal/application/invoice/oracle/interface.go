// Package oracle defines the payment confirmation capability the verifier consumes.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	vo "github.com/cryptbill/cryptbill/internal/domain/invoice/valueobjects"
)

// ErrOracleUnavailable marks a transient failure. It never means "not paid".
var ErrOracleUnavailable = errors.New("payment oracle unavailable")

// Query asks whether Address received at least MinAmount of Asset at or after Since.
type Query struct {
	Address   string
	Asset     vo.Asset
	MinAmount decimal.Decimal
	Since     time.Time
}

// Result is the oracle's answer. TxReference and ObservedAmount are set only when Paid.
type Result struct {
	Paid           bool
	TxReference    string
	ObservedAmount decimal.Decimal
	Confirmations  int
	ObservedAt     time.Time
}

func NotPaid() *Result {
	return &Result{}
}

type PaymentOracle interface {
	CheckPayment(ctx context.Context, q Query) (*Result, error)
}

// Unavailable wraps cause so that errors.Is(err, ErrOracleUnavailable) holds.
func Unavailable(cause error) error {
	return fmt.Errorf("%w: %w", ErrOracleUnavailable, cause)
}

func IsUnavailable(err error) bool {
	return errors.Is(err, ErrOracleUnavailable)
}
