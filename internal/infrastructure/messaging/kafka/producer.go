package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/BryServices/auradhom-v2/internal/config"
	"github.com/BryServices/auradhom-v2/internal/domain/order"
	"github.com/BryServices/auradhom-v2/pkg/logger"
)

const headerEventType = "event_type"

// EventProducer publishes lifecycle events to Kafka. Delivery is best
// effort: failures are logged, never returned to the engine.
type EventProducer struct {
	client *kgo.Client
	topic  string
	logger logger.Logger
}

func NewEventProducer(cfg config.KafkaConfig, log logger.Logger) (*EventProducer, error) {
	log.Info("Connecting Kafka producer",
		logger.Any("brokers", cfg.Brokers),
		logger.String("topic", cfg.EventTopic),
	)

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.EventTopic),
		kgo.RequiredAcks(kgo.AllISRAcks()), // Đợi tất cả ISR confirm
		kgo.DisableIdempotentWrite(),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &EventProducer{
		client: client,
		topic:  cfg.EventTopic,
		logger: log,
	}, nil
}

// buildRecord keys by order id so every event of one order lands on the same partition.
func (p *EventProducer) buildRecord(evt order.Event) (*kgo.Record, error) {
	if evt.OrderID == "" {
		return nil, fmt.Errorf("event %s has no order id", evt.ID)
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return &kgo.Record{
		Topic:     p.topic,
		Key:       []byte(evt.OrderID),
		Value:     payload,
		Timestamp: evt.OccurredAt,
		Headers: []kgo.RecordHeader{
			{Key: headerEventType, Value: []byte(evt.Type)},
		},
	}, nil
}

func (p *EventProducer) HandleEvent(ctx context.Context, evt order.Event) {
	rec, err := p.buildRecord(evt)
	if err != nil {
		p.logger.Error("Failed to build Kafka record", logger.String("event_id", evt.ID), logger.Error(err))
		return
	}

	// Produce bất đồng bộ để không chặn request; lỗi chỉ được log
	p.client.Produce(context.WithoutCancel(ctx), rec, func(r *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("Failed to publish event",
				logger.String("topic", p.topic),
				logger.String("event_type", string(evt.Type)),
				logger.String("order_id", evt.OrderID),
				logger.Int("payload_size", len(r.Value)),
				logger.Error(err),
			)
		}
	})
}

func (p *EventProducer) Close(ctx context.Context) error {
	p.logger.Info("Closing Kafka producer", logger.String("topic", p.topic))
	if p.client == nil {
		return nil
	}
	if err := p.client.Flush(ctx); err != nil {
		p.logger.Warn("Kafka producer flush incomplete", logger.Error(err))
	}
	p.client.Close()
	return nil
}
