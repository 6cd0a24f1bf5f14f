package usecases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptbill/cryptbill/internal/application/invoice/oracle"
	"github.com/cryptbill/cryptbill/internal/domain/invoice"
	vo "github.com/cryptbill/cryptbill/internal/domain/invoice/valueobjects"
	apperrors "github.com/cryptbill/cryptbill/internal/shared/errors"
)

var verifyNow = time.Date(2025, 5, 3, 12, 0, 0, 0, time.UTC)

type verifyFixture struct {
	repo      *memoryRepo
	oracle    *mockOracle
	publisher *recordingPublisher
	uc        *VerifyPaymentUseCase
}

func newVerifyFixture(o *mockOracle, cfg VerifyPaymentConfig) *verifyFixture {
	f := &verifyFixture{
		repo:      newMemoryRepo(),
		oracle:    o,
		publisher: &recordingPublisher{},
	}
	confirm := NewConfirmPaymentUseCase(f.repo, f.publisher, testLogger())
	f.uc = NewVerifyPaymentUseCase(f.repo, o, confirm, cfg, testLogger())
	f.uc.now = fixedClock(verifyNow)
	return f
}

func seedPending(t *testing.T, repo *memoryRepo, address string) *invoice.Invoice {
	t.Helper()
	inv, err := invoice.NewInvoice(invoice.CreateParams{
		StaffID:        "S1",
		ClientID:       "C1",
		Amount:         decimal.NewFromInt(50),
		Currency:       vo.CurrencyLTC,
		Asset:          vo.AssetLTC,
		PaymentAddress: address,
		Description:    "May retainer",
		CreatedAt:      verifyNow.Add(-time.Hour),
	})
	require.NoError(t, err)
	repo.put(inv)
	return inv
}

func TestCheckOneConfirmsPayment(t *testing.T) {
	f := newVerifyFixture(paidOracle("tx123"), VerifyPaymentConfig{})
	inv := seedPending(t, f.repo, "ltc1qExample")

	result, err := f.uc.CheckOne(context.Background(), inv.ID())
	require.NoError(t, err)

	assert.Equal(t, CheckOutcomeConfirmed, result.Outcome)
	assert.Equal(t, vo.InvoiceStatusPaid, result.Status)
	require.NotNil(t, result.TxReference)
	assert.Equal(t, "tx123", *result.TxReference)

	stored, err := f.repo.GetByID(context.Background(), inv.ID())
	require.NoError(t, err)
	assert.True(t, stored.IsPaid())
	assert.Equal(t, verifyNow, *stored.PaidAt(), "paidAt is the verification time")
	assert.Equal(t, []string{invoice.EventTypeInvoicePaid}, f.publisher.types())
}

func TestCheckOneQueriesWithInvoiceTerms(t *testing.T) {
	f := newVerifyFixture(&mockOracle{}, VerifyPaymentConfig{})
	inv := seedPending(t, f.repo, "ltc1qExample")

	_, err := f.uc.CheckOne(context.Background(), inv.ID())
	require.NoError(t, err)

	require.Len(t, f.oracle.queries, 1)
	q := f.oracle.queries[0]
	assert.Equal(t, "ltc1qExample", q.Address)
	assert.Equal(t, vo.AssetLTC, q.Asset)
	assert.True(t, q.MinAmount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, inv.CreatedAt(), q.Since)
}

func TestCheckOneNotPaidLeavesPending(t *testing.T) {
	f := newVerifyFixture(&mockOracle{}, VerifyPaymentConfig{})
	inv := seedPending(t, f.repo, "ltc1qExample")

	result, err := f.uc.CheckOne(context.Background(), inv.ID())
	require.NoError(t, err)

	assert.Equal(t, CheckOutcomeStillPending, result.Outcome)
	assert.Nil(t, result.TxReference)
	stored, _ := f.repo.GetByID(context.Background(), inv.ID())
	assert.Equal(t, vo.InvoiceStatusPending, stored.Status())
}

func TestCheckOneOracleUnavailableIsRetryable(t *testing.T) {
	o := &mockOracle{check: func(context.Context, oracle.Query) (*oracle.Result, error) {
		return nil, oracle.Unavailable(errors.New("503 from explorer"))
	}}
	f := newVerifyFixture(o, VerifyPaymentConfig{})
	inv := seedPending(t, f.repo, "ltc1qExample")

	_, err := f.uc.CheckOne(context.Background(), inv.ID())

	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailableError(err))
	assert.True(t, oracle.IsUnavailable(err))
	stored, _ := f.repo.GetByID(context.Background(), inv.ID())
	assert.Equal(t, vo.InvoiceStatusPending, stored.Status())
}

func TestCheckOneOracleTimeoutLeavesPending(t *testing.T) {
	slow := &mockOracle{check: func(ctx context.Context, _ oracle.Query) (*oracle.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	f := newVerifyFixture(slow, VerifyPaymentConfig{OracleTimeout: 20 * time.Millisecond})
	inv := seedPending(t, f.repo, "ltc1qExample")

	_, err := f.uc.CheckOne(context.Background(), inv.ID())

	require.Error(t, err)
	assert.True(t, oracle.IsUnavailable(err))
	stored, _ := f.repo.GetByID(context.Background(), inv.ID())
	assert.Equal(t, vo.InvoiceStatusPending, stored.Status())
	assert.Nil(t, stored.PaidAt())
}

func TestCheckOneAlreadyPaidIsNoop(t *testing.T) {
	f := newVerifyFixture(paidOracle("tx-other"), VerifyPaymentConfig{})
	inv := seedPending(t, f.repo, "ltc1qExample")
	require.NoError(t, inv.MarkAsPaid("tx123", decimal.NewFromInt(50), 6, verifyNow.Add(-time.Minute)))
	f.repo.put(inv)

	result, err := f.uc.CheckOne(context.Background(), inv.ID())
	require.NoError(t, err)

	assert.Equal(t, CheckOutcomeAlreadyPaid, result.Outcome)
	assert.Equal(t, "tx123", *result.TxReference)
	assert.Equal(t, int32(0), f.oracle.calls.Load(), "paid invoices are never polled")
}

func TestCheckOneNotFound(t *testing.T) {
	f := newVerifyFixture(&mockOracle{}, VerifyPaymentConfig{})

	_, err := f.uc.CheckOne(context.Background(), "inv_missing")

	assert.True(t, apperrors.IsNotFoundError(err))
	assert.ErrorIs(t, err, invoice.ErrInvoiceNotFound)
}

func TestConcurrentChecksConfirmOnce(t *testing.T) {
	f := newVerifyFixture(paidOracle("tx123"), VerifyPaymentConfig{})
	inv := seedPending(t, f.repo, "ltc1qExample")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.CheckOne(context.Background(), inv.ID())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{invoice.EventTypeInvoicePaid}, f.publisher.types())
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	publisher := &recordingPublisher{}
	uc := NewConfirmPaymentUseCase(repo, publisher, testLogger())
	inv := seedPending(t, repo, "ltc1qExample")
	first := verifyNow

	r1, err := uc.Execute(context.Background(), ConfirmPaymentCommand{InvoiceID: inv.ID(), TxReference: "tx123", VerifiedAt: first})
	require.NoError(t, err)
	r2, err := uc.Execute(context.Background(), ConfirmPaymentCommand{InvoiceID: inv.ID(), TxReference: "tx456", VerifiedAt: first.Add(time.Hour)})
	require.NoError(t, err)

	assert.True(t, r1.Applied)
	assert.False(t, r2.Applied)
	assert.Equal(t, "tx123", *r2.Invoice.TxReference())
	assert.Equal(t, first, *r2.Invoice.PaidAt())
	assert.Len(t, publisher.types(), 1)
}

func TestSweepAggregatesOutcomes(t *testing.T) {
	o := &mockOracle{check: func(_ context.Context, q oracle.Query) (*oracle.Result, error) {
		switch q.Address {
		case "addr-paid":
			return &oracle.Result{Paid: true, TxReference: "tx-paid", ObservedAmount: q.MinAmount}, nil
		case "addr-down":
			return nil, oracle.Unavailable(errors.New("rate limited"))
		default:
			return oracle.NotPaid(), nil
		}
	}}
	f := newVerifyFixture(o, VerifyPaymentConfig{Concurrency: 2})
	paid := seedPending(t, f.repo, "addr-paid")
	seedPending(t, f.repo, "addr-waiting")
	down := seedPending(t, f.repo, "addr-down")

	report, err := f.uc.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Checked)
	assert.Equal(t, 1, report.Confirmed)
	assert.Equal(t, 1, report.StillPending)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, down.ID(), report.Failures[0].InvoiceID)
	assert.True(t, report.Failures[0].Retryable)

	pending, err := f.repo.ListPending(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	for _, inv := range pending {
		assert.NotEqual(t, paid.ID(), inv.ID(), "paid invoices are never listed as pending")
	}

	again, err := f.uc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, again.Checked)
}

func TestSweepCancelledSkipsRemaining(t *testing.T) {
	f := newVerifyFixture(&mockOracle{}, VerifyPaymentConfig{})
	seedPending(t, f.repo, "a")
	seedPending(t, f.repo, "b")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.uc.Sweep(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, int32(0), f.oracle.calls.Load())
}

func TestSweepListFailure(t *testing.T) {
	f := newVerifyFixture(&mockOracle{}, VerifyPaymentConfig{})
	f.repo.listErr = errors.New("db down")

	_, err := f.uc.Sweep(context.Background())

	assert.Error(t, err)
}

func TestSweepRespectsBatchSize(t *testing.T) {
	f := newVerifyFixture(&mockOracle{}, VerifyPaymentConfig{BatchSize: 2})
	for i := 0; i < 5; i++ {
		seedPending(t, f.repo, "addr")
	}

	confirmed, err := f.uc.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, confirmed)
	assert.Equal(t, int32(2), f.oracle.calls.Load())
}
