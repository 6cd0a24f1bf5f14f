package eventbus

import (
	"context"
	"errors"

	"github.com/cryptbill/cryptbill/internal/domain/invoice"
)

// FanoutPublisher hands every event to each publisher in turn. A failing
// publisher does not stop the rest; the failures are joined.
type FanoutPublisher struct {
	publishers []Publisher
}

func NewFanoutPublisher(publishers ...Publisher) *FanoutPublisher {
	return &FanoutPublisher{publishers: publishers}
}

func (f *FanoutPublisher) Publish(ctx context.Context, event invoice.Event) error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
