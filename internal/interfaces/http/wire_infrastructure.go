package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cryptbill/cryptbill/internal/application/invoice/eventbus"
	"github.com/cryptbill/cryptbill/internal/application/invoice/serieslock"
	"github.com/cryptbill/cryptbill/internal/infrastructure/blockchain"
	"github.com/cryptbill/cryptbill/internal/infrastructure/cache"
	"github.com/cryptbill/cryptbill/internal/infrastructure/config"
	infraDirectory "github.com/cryptbill/cryptbill/internal/infrastructure/directory"
	"github.com/cryptbill/cryptbill/internal/infrastructure/messaging"
	"github.com/cryptbill/cryptbill/internal/infrastructure/pubsub"
	"github.com/cryptbill/cryptbill/internal/infrastructure/repository"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
)

// ============================================================
// Section 1: Infrastructure
// ============================================================

// initInfrastructure connects Redis (when enabled) and builds the repository,
// the cached directory, the payment oracle, the event publisher and the
// series locker.
func (c *Container) initInfrastructure() error {
	cfg := c.cfg
	log := c.log

	if cfg.Redis.Enabled {
		client, err := initRedis(cfg, log)
		if err != nil {
			return err
		}
		c.redis = client
	}

	c.invoiceRepo = repository.NewInvoiceRepository(c.db)

	c.directoryStore = infraDirectory.NewGormDirectory(c.db)
	c.directory = infraDirectory.NewCachedDirectory(
		c.directoryStore,
		cfg.Directory.CacheSize,
		cfg.Directory.CacheTTL(),
	)

	// The per-check deadline is set by the verifier; the client timeout only
	// bounds a single explorer round trip.
	httpClient := &http.Client{Timeout: cfg.Oracle.Timeout()}
	c.paymentOracle = blockchain.NewCompositeMonitorFromConfig(cfg.Oracle, httpClient, log.Named("oracle"))

	c.publisher = c.initPublisher()
	c.seriesLocker = c.initSeriesLocker()

	return nil
}

func initRedis(cfg *config.Config, log logger.Interface) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Redis.GetAddr(), err)
	}
	log.Infow("Redis connection established successfully", "addr", cfg.Redis.GetAddr())

	return redisClient, nil
}

// initPublisher fans events out to Kafka and the Redis relay, whichever are
// configured. With neither, events only reach the log.
func (c *Container) initPublisher() eventbus.Publisher {
	var publishers []eventbus.Publisher

	if c.cfg.Kafka.Enabled() {
		kafkaPublisher := messaging.NewKafkaPublisher(c.cfg.Kafka, c.log.Named("kafka"))
		c.publisherClosers = append(c.publisherClosers, kafkaPublisher)
		publishers = append(publishers, kafkaPublisher)
		c.log.Infow("invoice events will be published to Kafka",
			"brokers", c.cfg.Kafka.Brokers,
			"topic", c.cfg.Kafka.Topic,
		)
	}

	if c.redis != nil {
		c.eventBus = pubsub.NewRedisEventBus(c.redis, c.log.Named("eventbus"))
		publishers = append(publishers, c.eventBus)
	}

	switch len(publishers) {
	case 0:
		c.log.Infow("no event broker configured, invoice events are logged only")
		return eventbus.NewLogPublisher(c.log.Named("events"))
	case 1:
		return publishers[0]
	default:
		return eventbus.NewFanoutPublisher(publishers...)
	}
}

// initSeriesLocker shares recurrence claims across instances through Redis.
// Without Redis the claim only guards this process.
func (c *Container) initSeriesLocker() serieslock.Locker {
	if c.redis != nil {
		return cache.NewRedisSeriesLocker(c.redis, c.log.Named("serieslock"))
	}
	c.log.Warnw("redis disabled, recurrence claims are local to this process")
	return serieslock.NewLocalLocker()
}
