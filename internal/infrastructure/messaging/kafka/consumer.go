package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/BryServices/auradhom-v2/internal/config"
	"github.com/BryServices/auradhom-v2/internal/domain/order"
	"github.com/BryServices/auradhom-v2/pkg/logger"
)

type EventHandler interface {
	HandleEvent(ctx context.Context, evt order.Event)
}

// EventConsumer feeds lifecycle events read from Kafka to a handler.
type EventConsumer struct {
	reader  *kafkago.Reader
	handler EventHandler
	logger  logger.Logger
}

func NewEventConsumer(cfg config.KafkaConfig, handler EventHandler, log logger.Logger) *EventConsumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.ConsumerGroup,
		Topic:    cfg.EventTopic,
		MinBytes: 1e3,
		MaxBytes: 1e6,
	})

	return &EventConsumer{
		reader:  reader,
		handler: handler,
		logger:  log,
	}
}

// Start blocks until ctx is cancelled or the reader fails. Undecodable
// messages are logged and skipped.
func (c *EventConsumer) Start(ctx context.Context) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		evt, err := DecodeEvent(msg.Value)
		if err != nil {
			c.logger.Warn("skip undecodable event",
				logger.Int64("offset", msg.Offset),
				logger.Int("partition", msg.Partition),
				logger.Error(err),
			)
			continue
		}

		c.handler.HandleEvent(ctx, evt)
	}
}

func DecodeEvent(value []byte) (order.Event, error) {
	var evt order.Event
	if err := json.Unmarshal(value, &evt); err != nil {
		return order.Event{}, fmt.Errorf("decode message: %w", err)
	}
	if evt.Type == "" || evt.OrderID == "" {
		return order.Event{}, fmt.Errorf("decode message: missing type or order id")
	}
	return evt, nil
}

func (c *EventConsumer) Close() {
	_ = c.reader.Close()
}
