// Package pubsub relays invoice events over Redis Pub/Sub for deployments without Kafka.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cryptbill/cryptbill/internal/application/invoice/eventbus"
	"github.com/cryptbill/cryptbill/internal/domain/invoice"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
	"github.com/cryptbill/cryptbill/internal/shared/utils/logutil"
)

const invoiceEventChannel = "cryptbill:invoice:events"

// ReceivedEvent is an envelope as read back from the channel. Data stays raw
// because its shape depends on Type.
type ReceivedEvent struct {
	EventID    string          `json:"event_id"`
	Type       string          `json:"type"`
	InvoiceID  string          `json:"invoice_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// RedisEventBus publishes invoice events to a Redis channel and lets
// operators follow them. Pub/Sub is fire and forget: nobody listening means
// the event is dropped.
type RedisEventBus struct {
	client *redis.Client
	logger logger.Interface
}

func NewRedisEventBus(client *redis.Client, logger logger.Interface) *RedisEventBus {
	return &RedisEventBus{
		client: client,
		logger: logger,
	}
}

var _ eventbus.Publisher = (*RedisEventBus)(nil)

func (b *RedisEventBus) Publish(ctx context.Context, event invoice.Event) error {
	envelope := eventbus.NewEnvelope(event)
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal invoice event: %w", err)
	}

	if err := b.client.Publish(ctx, invoiceEventChannel, data).Err(); err != nil {
		b.logger.Errorw("failed to publish invoice event",
			"event_type", envelope.Type,
			"invoice_id", envelope.InvoiceID,
			"error", err,
		)
		return fmt.Errorf("failed to publish invoice event: %w", err)
	}

	b.logger.Debugw("invoice event published to Redis",
		"event_type", envelope.Type,
		"invoice_id", envelope.InvoiceID,
	)
	return nil
}

// Subscribe delivers events to handler until ctx is cancelled, reconnecting
// with exponential backoff when the subscription drops. ready, when non-nil,
// is closed once the first subscription is confirmed.
func (b *RedisEventBus) Subscribe(ctx context.Context, ready chan<- struct{}, handler func(ReceivedEvent)) error {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		err := b.subscribe(ctx, ready, func(payload string) {
			var event ReceivedEvent
			if err := json.Unmarshal([]byte(payload), &event); err != nil {
				b.logger.Warnw("failed to unmarshal invoice event",
					"payload", logutil.TruncateForLog(payload, 256),
					"error", err,
				)
				return
			}
			handler(event)
		})
		ready = nil
		if ctx.Err() != nil {
			return ctx.Err()
		}

		b.logger.Warnw("invoice event subscription disconnected, reconnecting",
			"channel", invoiceEventChannel,
			"error", err,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxBackoff)
	}
}

func (b *RedisEventBus) subscribe(ctx context.Context, ready chan<- struct{}, handler func(payload string)) error {
	sub := b.client.Subscribe(ctx, invoiceEventChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel %s: %w", invoiceEventChannel, err)
	}
	if ready != nil {
		close(ready)
	}

	b.logger.Infow("subscribed to invoice event channel",
		"channel", invoiceEventChannel,
	)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			handler(msg.Payload)
		}
	}
}
