package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/cryptbill/cryptbill/internal/application/invoice/oracle"
	"github.com/cryptbill/cryptbill/internal/domain/invoice"
	vo "github.com/cryptbill/cryptbill/internal/domain/invoice/valueobjects"
	"github.com/cryptbill/cryptbill/internal/shared/biztime"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
)

const (
	defaultOracleTimeout    = 15 * time.Second
	defaultSweepConcurrency = 4
	defaultSweepBatchSize   = 500
)

type CheckOutcome string

const (
	CheckOutcomeConfirmed    CheckOutcome = "confirmed"
	CheckOutcomeStillPending CheckOutcome = "still_pending"
	CheckOutcomeAlreadyPaid  CheckOutcome = "already_paid"
)

type CheckResult struct {
	InvoiceID   string
	Status      vo.InvoiceStatus
	TxReference *string
	Outcome     CheckOutcome
}

type SweepFailure struct {
	InvoiceID string
	Error     string
	Retryable bool
}

// SweepReport summarises one pass over the pending invoices.
type SweepReport struct {
	Checked      int
	Confirmed    int
	StillPending int
	Failed       int
	Skipped      int
	Failures     []SweepFailure
	Duration     time.Duration
}

type VerifyPaymentConfig struct {
	OracleTimeout time.Duration
	Concurrency   int
	BatchSize     int
}

// VerifyPaymentUseCase asks the oracle whether pending invoices were paid.
// Manual checks and scheduled sweeps both go through CheckOne.
type VerifyPaymentUseCase struct {
	repo     invoice.Repository
	oracle   oracle.PaymentOracle
	confirm  *ConfirmPaymentUseCase
	cfg      VerifyPaymentConfig
	now      func() time.Time
	inflight singleflight.Group
	logger   logger.Interface
}

func NewVerifyPaymentUseCase(
	repo invoice.Repository,
	paymentOracle oracle.PaymentOracle,
	confirm *ConfirmPaymentUseCase,
	cfg VerifyPaymentConfig,
	logger logger.Interface,
) *VerifyPaymentUseCase {
	if cfg.OracleTimeout <= 0 {
		cfg.OracleTimeout = defaultOracleTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultSweepConcurrency
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultSweepBatchSize
	}
	return &VerifyPaymentUseCase{
		repo:    repo,
		oracle:  paymentOracle,
		confirm: confirm,
		cfg:     cfg,
		now:     biztime.NowUTC,
		logger:  logger,
	}
}

// CheckOne verifies a single invoice. A paid invoice is reported as is without
// contacting the oracle. Concurrent calls for the same invoice share one check.
func (uc *VerifyPaymentUseCase) CheckOne(ctx context.Context, invoiceID string) (*CheckResult, error) {
	v, err, _ := uc.inflight.Do(invoiceID, func() (interface{}, error) {
		return uc.checkOne(ctx, invoiceID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*CheckResult), nil
}

func (uc *VerifyPaymentUseCase) checkOne(ctx context.Context, invoiceID string) (*CheckResult, error) {
	inv, err := uc.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, toAppError(err, "failed to load invoice")
	}

	if inv.IsPaid() {
		return resultFor(inv, CheckOutcomeAlreadyPaid), nil
	}

	res, err := uc.askOracle(ctx, inv)
	if err != nil {
		uc.logger.Warnw("payment check failed",
			"invoice_id", inv.ID(),
			"asset", inv.Asset().String(),
			"error", err,
		)
		return nil, toAppError(err, "failed to check payment")
	}

	if !res.Paid {
		return resultFor(inv, CheckOutcomeStillPending), nil
	}

	confirmed, err := uc.confirm.Execute(ctx, ConfirmPaymentCommand{
		InvoiceID:      inv.ID(),
		TxReference:    res.TxReference,
		ObservedAmount: res.ObservedAmount,
		Confirmations:  res.Confirmations,
		VerifiedAt:     uc.now(),
	})
	if err != nil {
		return nil, err
	}

	outcome := CheckOutcomeConfirmed
	if !confirmed.Applied {
		outcome = CheckOutcomeAlreadyPaid
	}
	return resultFor(confirmed.Invoice, outcome), nil
}

// askOracle bounds the oracle call by the configured timeout. Running out of
// that time is an outage, not an answer.
func (uc *VerifyPaymentUseCase) askOracle(ctx context.Context, inv *invoice.Invoice) (*oracle.Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, uc.cfg.OracleTimeout)
	defer cancel()

	res, err := uc.oracle.CheckPayment(callCtx, oracle.Query{
		Address:   inv.PaymentAddress(),
		Asset:     inv.Asset(),
		MinAmount: inv.Amount(),
		Since:     inv.CreatedAt(),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, oracle.Unavailable(fmt.Errorf("oracle call exceeded %s", uc.cfg.OracleTimeout))
		}
		if errors.Is(err, context.Canceled) {
			return nil, oracle.Unavailable(err)
		}
		return nil, err
	}
	if res == nil {
		return oracle.NotPaid(), nil
	}
	return res, nil
}

// Sweep checks every pending invoice, isolating per-invoice failures. Once ctx
// is cancelled the remaining invoices are skipped; in-flight checks finish.
func (uc *VerifyPaymentUseCase) Sweep(ctx context.Context) (*SweepReport, error) {
	start := time.Now()

	pending, err := uc.repo.ListPending(ctx, uc.cfg.BatchSize)
	if err != nil {
		return nil, toAppError(err, "failed to list pending invoices")
	}

	report := &SweepReport{}
	var mu sync.Mutex
	record := func(fn func(r *SweepReport)) {
		mu.Lock()
		defer mu.Unlock()
		fn(report)
	}

	var g errgroup.Group
	g.SetLimit(uc.cfg.Concurrency)

	for _, inv := range pending {
		if ctx.Err() != nil {
			record(func(r *SweepReport) { r.Skipped++ })
			continue
		}

		invoiceID := inv.ID()
		g.Go(func() error {
			if ctx.Err() != nil {
				record(func(r *SweepReport) { r.Skipped++ })
				return nil
			}

			result, err := uc.CheckOne(ctx, invoiceID)
			record(func(r *SweepReport) {
				r.Checked++
				switch {
				case err != nil:
					r.Failed++
					r.Failures = append(r.Failures, SweepFailure{
						InvoiceID: invoiceID,
						Error:     err.Error(),
						Retryable: oracle.IsUnavailable(err),
					})
				case result.Outcome == CheckOutcomeConfirmed:
					r.Confirmed++
				case result.Outcome == CheckOutcomeStillPending:
					r.StillPending++
				}
			})
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(start)
	uc.logger.Infow("payment sweep finished",
		"pending", len(pending),
		"confirmed", report.Confirmed,
		"still_pending", report.StillPending,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"duration", report.Duration,
	)
	return report, nil
}

// Execute runs one sweep and returns the number of confirmed invoices.
func (uc *VerifyPaymentUseCase) Execute(ctx context.Context) (int, error) {
	report, err := uc.Sweep(ctx)
	if err != nil {
		return 0, err
	}
	return report.Confirmed, nil
}

func resultFor(inv *invoice.Invoice, outcome CheckOutcome) *CheckResult {
	return &CheckResult{
		InvoiceID:   inv.ID(),
		Status:      inv.Status(),
		TxReference: inv.TxReference(),
		Outcome:     outcome,
	}
}
