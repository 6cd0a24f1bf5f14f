// Package scheduler runs the background invoice jobs using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/cryptbill/cryptbill/internal/shared/biztime"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
)

const (
	defaultSweepInterval      = 2 * time.Minute
	defaultRecurrenceInterval = time.Hour
)

// BatchJob defines the interface for a scheduled batch processing job.
// Each Execute call processes a batch and returns the number of items processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// SchedulerManager owns the single gocron scheduler of the process. Every job
// runs in singleton mode: a tick that fires while the previous run is still
// going is rescheduled instead of overlapping it.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	// Track whether the scheduler has been started
	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance.
func NewSchedulerManager(log logger.Interface, opts ...gocron.SchedulerOption) (*SchedulerManager, error) {
	opts = append([]gocron.SchedulerOption{gocron.WithLocation(biztime.Location())}, opts...)
	scheduler, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterPaymentSweepJob re-checks pending invoices against the chain every
// interval, starting immediately.
func (m *SchedulerManager) RegisterPaymentSweepJob(job BatchJob, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return m.registerBatchJob("payment-sweep", []string{"invoice", "payment"}, job, interval, "invoices confirmed")
}

// RegisterRecurrenceJob spawns the due successors of recurring invoices every
// interval, starting immediately.
func (m *SchedulerManager) RegisterRecurrenceJob(job BatchJob, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultRecurrenceInterval
	}
	return m.registerBatchJob("invoice-recurrence", []string{"invoice", "recurrence"}, job, interval, "recurring invoices spawned")
}

func (m *SchedulerManager) registerBatchJob(name string, tags []string, job BatchJob, interval time.Duration, doneMsg string) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			// a run never outlives its own interval
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			m.runBatchJob(ctx, name, job, doneMsg)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags(tags...),
		gocron.WithName(name),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered job", "name", name, "interval", interval.String())
	return nil
}

func (m *SchedulerManager) runBatchJob(ctx context.Context, name string, job BatchJob, doneMsg string) {
	m.logger.Debugw("job started", "name", name)

	startTime := biztime.NowUTC()

	count, err := job.Execute(ctx)
	if err != nil {
		m.logger.Errorw("job failed",
			"name", name,
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if count > 0 {
		m.logger.Infow(doneMsg,
			"name", name,
			"count", count,
			"duration", time.Since(startTime),
		)
	} else {
		m.logger.Debugw("job finished with nothing to do",
			"name", name,
			"duration", time.Since(startTime),
		)
	}
}

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop gracefully stops the scheduler.
// It waits for all running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
