// Package eventbus defines how invoice events leave the process.
package eventbus

import (
	"context"

	"github.com/cryptbill/cryptbill/internal/domain/invoice"
	"github.com/cryptbill/cryptbill/internal/shared/logger"
)

type Publisher interface {
	Publish(ctx context.Context, event invoice.Event) error
}

// LogPublisher writes events to the log. It is the fallback when no broker is configured.
type LogPublisher struct {
	logger logger.Interface
}

func NewLogPublisher(log logger.Interface) *LogPublisher {
	return &LogPublisher{logger: log}
}

func (p *LogPublisher) Publish(_ context.Context, event invoice.Event) error {
	p.logger.Infow("invoice event",
		"type", event.EventType(),
		"invoice_id", event.AggregateID(),
		"occurred_at", event.OccurredAt(),
	)
	return nil
}
