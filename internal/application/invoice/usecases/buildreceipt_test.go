package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptbill/cryptbill/internal/domain/invoice"
	apperrors "github.com/cryptbill/cryptbill/internal/shared/errors"
)

func TestBuildReceiptRequiresPaid(t *testing.T) {
	repo := newMemoryRepo()
	inv := seedPending(t, repo, "ltc1qExample")
	uc := NewBuildReceiptUseCase(repo, newMockDirectory(), testLogger())

	receipt, err := uc.Execute(context.Background(), inv.ID())

	assert.Nil(t, receipt)
	assert.ErrorIs(t, err, invoice.ErrNotPaid)
	assert.True(t, apperrors.IsConflictError(err))
}

func TestBuildReceipt(t *testing.T) {
	repo := newMemoryRepo()
	inv := seedPending(t, repo, "ltc1qExample")
	paidAt := time.Date(2025, 5, 3, 12, 0, 0, 0, time.UTC)
	require.NoError(t, inv.MarkAsPaid("tx123", decimal.NewFromInt(50), 6, paidAt))
	repo.put(inv)
	uc := NewBuildReceiptUseCase(repo, newMockDirectory(), testLogger())

	receipt, err := uc.Execute(context.Background(), inv.ID())
	require.NoError(t, err)

	assert.Equal(t, inv.ID(), receipt.InvoiceID)
	assert.True(t, receipt.Amount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "LTC", receipt.Currency)
	assert.Equal(t, "May retainer", receipt.Description)
	assert.Equal(t, "ltc1qExample", receipt.PaymentAddress)
	assert.Equal(t, paidAt, receipt.PaidAt)
	assert.Equal(t, "tx123", receipt.TxReference)
	assert.Equal(t, "Sam Staff", receipt.StaffName)
	assert.Equal(t, "Casey Client", receipt.ClientName)
}

func TestBuildReceiptNotFound(t *testing.T) {
	uc := NewBuildReceiptUseCase(newMemoryRepo(), newMockDirectory(), testLogger())

	_, err := uc.Execute(context.Background(), "inv_missing")

	assert.True(t, apperrors.IsNotFoundError(err))
}
