package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/cryptbill/cryptbill/internal/application/invoice/serieslock"
	"github.com/cryptbill/cryptbill/internal/domain/invoice"
	"github.com/cryptbill/cryptbill/internal/shared/biztime"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
)

const defaultSeriesClaimTTL = 2 * time.Minute

type SpawnFailure struct {
	SeriesID string
	Error    string
}

// SpawnReport summarises one recurrence tick.
type SpawnReport struct {
	Scanned        int
	Spawned        int
	NotDue         int
	AlreadySpawned int
	Contended      int
	Failed         int
	SpawnedIDs     []string
	Failures       []SpawnFailure
	Duration       time.Duration
}

// SpawnRecurringInvoicesUseCase creates the successor of every recurring series
// whose period has elapsed since its latest invoice. A series is claimed through
// the locker before spawning and the insert itself is conditional on
// (series, period), so overlapping ticks create at most one successor.
type SpawnRecurringInvoicesUseCase struct {
	repo     invoice.Repository
	creator  *CreateInvoiceUseCase
	locker   serieslock.Locker
	claimTTL time.Duration
	now      func() time.Time
	logger   logger.Interface
}

func NewSpawnRecurringInvoicesUseCase(
	repo invoice.Repository,
	creator *CreateInvoiceUseCase,
	locker serieslock.Locker,
	logger logger.Interface,
) *SpawnRecurringInvoicesUseCase {
	return &SpawnRecurringInvoicesUseCase{
		repo:     repo,
		creator:  creator,
		locker:   locker,
		claimTTL: defaultSeriesClaimTTL,
		now:      biztime.NowUTC,
		logger:   logger,
	}
}

// Tick runs one pass. Missed periods are not backfilled: a series that was
// overdue by several periods gets one successor dated now.
func (uc *SpawnRecurringInvoicesUseCase) Tick(ctx context.Context) (*SpawnReport, error) {
	start := time.Now()

	heads, err := uc.repo.ListRecurring(ctx)
	if err != nil {
		return nil, toAppError(err, "failed to list recurring invoices")
	}

	now := uc.now()
	report := &SpawnReport{Scanned: len(heads)}

	for _, latest := range heads {
		if ctx.Err() != nil {
			break
		}
		if !latest.IsDueForSuccessor(now) {
			report.NotDue++
			continue
		}
		uc.spawn(ctx, latest, now, report)
	}

	report.Duration = time.Since(start)
	if report.Spawned > 0 || report.Failed > 0 {
		uc.logger.Infow("recurrence tick finished",
			"scanned", report.Scanned,
			"spawned", report.Spawned,
			"already_spawned", report.AlreadySpawned,
			"contended", report.Contended,
			"failed", report.Failed,
			"duration", report.Duration,
		)
	}
	return report, nil
}

func (uc *SpawnRecurringInvoicesUseCase) spawn(ctx context.Context, latest *invoice.Invoice, now time.Time, report *SpawnReport) {
	seriesID := *latest.SeriesID()

	unlock, ok, err := uc.locker.TryLock(ctx, seriesID, uc.claimTTL)
	if err != nil {
		uc.fail(report, seriesID, err)
		return
	}
	if !ok {
		report.Contended++
		return
	}
	defer unlock()

	next, err := uc.creator.ExecuteSuccessor(ctx, latest, now)
	switch {
	case errors.Is(err, invoice.ErrPeriodAlreadySpawned):
		report.AlreadySpawned++
	case err != nil:
		uc.fail(report, seriesID, err)
	default:
		report.Spawned++
		report.SpawnedIDs = append(report.SpawnedIDs, next.ID())
	}
}

// fail records a failure. The series stays as is and is retried on the next tick.
func (uc *SpawnRecurringInvoicesUseCase) fail(report *SpawnReport, seriesID string, err error) {
	report.Failed++
	report.Failures = append(report.Failures, SpawnFailure{SeriesID: seriesID, Error: err.Error()})
	uc.logger.Warnw("failed to spawn recurring invoice, retrying next tick",
		"series_id", seriesID,
		"error", err,
	)
}

// Execute runs one tick and returns the number of spawned invoices.
func (uc *SpawnRecurringInvoicesUseCase) Execute(ctx context.Context) (int, error) {
	report, err := uc.Tick(ctx)
	if err != nil {
		return 0, err
	}
	return report.Spawned, nil
}
