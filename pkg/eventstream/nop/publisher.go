package nop

import (
	"context"

	"github.com/arborhq/arbor/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishEdit validates input and otherwise does nothing.
func (p *Publisher) PublishEdit(_ context.Context, event *eventstream.NodeEditEvent) error {
	if event == nil {
		return eventstream.ErrNilEditEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
