// Package kafka publishes node edit events to a Kafka topic, keyed by
// node id so edits to one node stay ordered within a partition.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/arborhq/arbor/pkg/eventstream"
)

// Config holds the Kafka publisher settings.
type Config struct {
	Brokers []string
	Topic   string
}

// Publisher writes edit events to Kafka.
type Publisher struct {
	writer *kafkago.Writer
	logger *zap.Logger
}

func NewPublisher(cfg Config, logger *zap.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
	}

	return &Publisher{writer: writer, logger: logger}, nil
}

// PublishEdit marshals the event and writes it keyed by node id.
func (p *Publisher) PublishEdit(ctx context.Context, event *eventstream.NodeEditEvent) error {
	if event == nil {
		return eventstream.ErrNilEditEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling edit event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(strconv.FormatUint(event.Node.ID, 10)),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing edit event: %w", err)
	}

	p.logger.Debug("published edit event",
		zap.String("event_id", event.EventID),
		zap.String("kind", string(event.Edit.Kind)),
		zap.Uint64("node_id", event.Node.ID))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
