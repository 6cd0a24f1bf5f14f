package http

import (
	"context"
	"fmt"

	"github.com/cryptbill/cryptbill/internal/infrastructure/ratelimit"
	"github.com/cryptbill/cryptbill/internal/infrastructure/scheduler"
	"github.com/cryptbill/cryptbill/internal/interfaces/http/handlers"
	"github.com/cryptbill/cryptbill/internal/interfaces/http/middleware"
)

// ============================================================
// Section 3: Handlers and middlewares
// ============================================================

func (c *Container) initHandlers() {
	ucs := c.ucs

	c.invoiceHandler = handlers.NewInvoiceHandler(
		ucs.createInvoice,
		ucs.getInvoice,
		ucs.listInvoices,
		ucs.invoiceStats,
		ucs.verifyPayment,
		ucs.buildReceipt,
		c.log.Named("invoice-handler"),
	)

	checks := map[string]handlers.Pinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := c.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if c.redis != nil {
		redisClient := c.redis
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	c.healthHandler = handlers.NewHealthHandler(checks, c.log.Named("health"))

	if c.redis != nil {
		c.paymentCheckLimit = middleware.NewPaymentCheckRateLimitMiddleware(
			ratelimit.NewRedisRateLimiter(c.redis),
			c.cfg.RateLimit.CheckPaymentPerMinute,
			c.log.Named("ratelimit"),
		)
	}
}

// ============================================================
// Section 4: Scheduler jobs
// ============================================================

func (c *Container) initScheduler() error {
	manager, err := scheduler.NewSchedulerManager(c.log.Named("scheduler"))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	if err := manager.RegisterPaymentSweepJob(c.ucs.verifyPayment, c.cfg.Scheduler.SweepInterval()); err != nil {
		return fmt.Errorf("failed to register payment sweep job: %w", err)
	}
	if err := manager.RegisterRecurrenceJob(c.ucs.spawnRecurring, c.cfg.Scheduler.RecurrenceInterval()); err != nil {
		return fmt.Errorf("failed to register recurrence job: %w", err)
	}

	c.schedulerManager = manager
	return nil
}
