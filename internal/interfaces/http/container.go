package http

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/cryptbill/cryptbill/internal/application/invoice/eventbus"
	"github.com/cryptbill/cryptbill/internal/application/invoice/oracle"
	"github.com/cryptbill/cryptbill/internal/application/invoice/serieslock"
	"github.com/cryptbill/cryptbill/internal/application/invoice/usecases"
	"github.com/cryptbill/cryptbill/internal/domain/invoice"
	"github.com/cryptbill/cryptbill/internal/infrastructure/config"
	infraDirectory "github.com/cryptbill/cryptbill/internal/infrastructure/directory"
	"github.com/cryptbill/cryptbill/internal/infrastructure/pubsub"
	"github.com/cryptbill/cryptbill/internal/infrastructure/scheduler"
	"github.com/cryptbill/cryptbill/internal/interfaces/http/handlers"
	"github.com/cryptbill/cryptbill/internal/interfaces/http/middleware"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
)

// Container holds all infrastructure components, use cases, handlers and
// background jobs. It wires everything together and provides Shutdown for
// graceful termination.
type Container struct {
	// Core infrastructure
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client

	// Storage and external collaborators
	invoiceRepo      invoice.Repository
	directoryStore   *infraDirectory.GormDirectory
	directory        *infraDirectory.CachedDirectory
	publisher        eventbus.Publisher
	eventBus         *pubsub.RedisEventBus
	publisherClosers []io.Closer
	paymentOracle    oracle.PaymentOracle
	seriesLocker     serieslock.Locker

	// Use cases
	ucs *allUseCases

	// Handlers
	invoiceHandler *handlers.InvoiceHandler
	healthHandler  *handlers.HealthHandler

	// Middlewares
	paymentCheckLimit *middleware.PaymentCheckRateLimitMiddleware

	// Background jobs
	schedulerManager *scheduler.SchedulerManager
}

// NewContainer creates a Container with all dependencies wired together.
// Routes are not installed until SetupRoutes is called.
func NewContainer(db *gorm.DB, cfg *config.Config, log logger.Interface) (*Container, error) {
	c := &Container{
		engine: gin.New(),
		db:     db,
		cfg:    cfg,
		log:    log,
	}

	// Section 1: Infrastructure - Redis, repository, directory, oracle, publisher
	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}

	// Section 2: Use cases
	c.initUseCases()

	// Section 3: Handlers and middlewares
	c.initHandlers()

	// Section 4: Scheduler jobs (registered, not started)
	if err := c.initScheduler(); err != nil {
		_ = c.closeInfrastructure()
		return nil, err
	}

	return c, nil
}

// Engine returns the gin engine
func (c *Container) Engine() *gin.Engine {
	return c.engine
}

// VerifyPayment returns the payment verification use case for one-shot sweeps
func (c *Container) VerifyPayment() *usecases.VerifyPaymentUseCase {
	return c.ucs.verifyPayment
}

// SpawnRecurring returns the recurrence use case for one-shot ticks
func (c *Container) SpawnRecurring() *usecases.SpawnRecurringInvoicesUseCase {
	return c.ucs.spawnRecurring
}

// Directory returns the writable directory store together with its cache so
// callers can invalidate entries they change.
func (c *Container) Directory() (*infraDirectory.GormDirectory, *infraDirectory.CachedDirectory) {
	return c.directoryStore, c.directory
}

// EventBus returns the Redis event relay, or nil when Redis is disabled.
func (c *Container) EventBus() *pubsub.RedisEventBus {
	return c.eventBus
}

// StartSchedulers starts the payment sweep and recurrence jobs
func (c *Container) StartSchedulers() {
	c.schedulerManager.Start()
}

// Shutdown stops background jobs first, then releases publishers and Redis.
// The database connection is owned by the caller.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error

	if c.schedulerManager != nil && c.schedulerManager.IsStarted() {
		done := make(chan error, 1)
		go func() { done <- c.schedulerManager.Stop() }()
		select {
		case err := <-done:
			if err != nil {
				errs = append(errs, err)
			}
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
		}
	}

	if err := c.closeInfrastructure(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Container) closeInfrastructure() error {
	var errs []error
	for _, closer := range c.publisherClosers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.publisherClosers = nil

	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			errs = append(errs, err)
		}
		c.redis = nil
	}
	return errors.Join(errs...)
}
