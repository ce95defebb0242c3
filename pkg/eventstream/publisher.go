package eventstream

import "context"

// Publisher publishes node edit events to an event stream backend.
type Publisher interface {
	PublishEdit(ctx context.Context, event *NodeEditEvent) error
	Close() error
}
