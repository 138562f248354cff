package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BryServices/auradhom-v2/internal/config"
	"github.com/BryServices/auradhom-v2/internal/domain/order"
	"github.com/BryServices/auradhom-v2/pkg/logger"
)

// StatusUpdate is the compact message pushed for every lifecycle event.
type StatusUpdate struct {
	OrderID     string           `json:"order_id"`
	OrderNumber string           `json:"order_number"`
	Event       order.EventType  `json:"event"`
	Status      order.Status     `json:"status"`
	SyncStatus  order.SyncStatus `json:"sync_status"`
	Timestamp   int64            `json:"timestamp"`
}

func NewStatusUpdate(evt order.Event) StatusUpdate {
	u := StatusUpdate{
		OrderID:     evt.OrderID,
		OrderNumber: evt.OrderNumber,
		Event:       evt.Type,
		Timestamp:   evt.OccurredAt.UnixMilli(),
	}
	if evt.Order != nil {
		u.Status = evt.Order.Status
		u.SyncStatus = evt.Order.SyncStatus
	}
	return u
}

// Publisher pushes status updates to a Redis channel for dashboards.
type Publisher struct {
	client  *redis.Client
	channel string
	timeout time.Duration
	logger  logger.Logger
}

func NewPublisher(ctx context.Context, cfg config.RedisConfig, log logger.Logger) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newPublisher(client, cfg.Channel, log), nil
}

func newPublisher(client *redis.Client, channel string, log logger.Logger) *Publisher {
	return &Publisher{
		client:  client,
		channel: channel,
		timeout: 2 * time.Second,
		logger:  log,
	}
}

func (p *Publisher) Publish(ctx context.Context, u StatusUpdate) error {
	msg, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal status update: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, msg).Err(); err != nil {
		return fmt.Errorf("failed to publish status update: %w", err)
	}
	return nil
}

// HandleEvent is best effort; failures are logged.
func (p *Publisher) HandleEvent(ctx context.Context, evt order.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.Publish(ctx, NewStatusUpdate(evt)); err != nil {
		p.logger.Warn("redis status update dropped",
			logger.String("channel", p.channel),
			logger.String("order_id", evt.OrderID),
			logger.Error(err),
		)
	}
}

// Subscribe is used by tests and tools that follow the channel.
func (p *Publisher) Subscribe(ctx context.Context) *redis.PubSub {
	return p.client.Subscribe(ctx, p.channel)
}

func (p *Publisher) Close() error {
	return p.client.Close()
}
