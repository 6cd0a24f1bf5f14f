// Package messaging publishes invoice events to Kafka.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/cryptbill/cryptbill/internal/application/invoice/eventbus"
	"github.com/cryptbill/cryptbill/internal/domain/invoice"
	"github.com/cryptbill/cryptbill/internal/shared/config"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
)

// Writer is the subset of kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes invoice events keyed by invoice id, so every event of
// one invoice lands on the same partition in order.
type KafkaPublisher struct {
	writer Writer
	logger logger.Interface
}

func NewKafkaPublisher(cfg config.KafkaConfig, logger logger.Interface) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return NewKafkaPublisherWithWriter(w, logger)
}

// NewKafkaPublisherWithWriter allows injecting a test writer.
func NewKafkaPublisherWithWriter(w Writer, logger logger.Interface) *KafkaPublisher {
	return &KafkaPublisher{writer: w, logger: logger}
}

var _ eventbus.Publisher = (*KafkaPublisher)(nil)

func (p *KafkaPublisher) Publish(ctx context.Context, event invoice.Event) error {
	envelope := eventbus.NewEnvelope(event)
	value, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal invoice event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(envelope.InvoiceID),
		Value: value,
		Time:  envelope.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(envelope.Type)},
			{Key: "event_id", Value: []byte(envelope.EventID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Errorw("kafka write failed",
			"event_type", envelope.Type,
			"invoice_id", envelope.InvoiceID,
			"error", err,
		)
		return fmt.Errorf("failed to publish invoice event: %w", err)
	}

	p.logger.Debugw("invoice event published",
		"event_type", envelope.Type,
		"invoice_id", envelope.InvoiceID,
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
