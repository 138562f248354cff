package order

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/BryServices/auradhom-v2/internal/domain/order"
	"github.com/BryServices/auradhom-v2/pkg/logger"
)

// Subscriber nhận lifecycle event. Các subscriber độc lập với nhau.
type Subscriber interface {
	HandleEvent(ctx context.Context, evt domain.Event)
}

type SubscriberFunc func(ctx context.Context, evt domain.Event)

func (f SubscriberFunc) HandleEvent(ctx context.Context, evt domain.Event) { f(ctx, evt) }

type subscription struct {
	id  int
	sub Subscriber
}

// EventBus dispatches synchronously, in subscription order. A panicking
// subscriber is logged and skipped.
type EventBus struct {
	log logger.Logger

	mu     sync.RWMutex
	nextID int
	subs   []subscription
}

func NewEventBus(log logger.Logger) *EventBus {
	return &EventBus{log: log}
}

// Subscribe registers sub and returns its unsubscribe func.
func (b *EventBus) Subscribe(sub Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, sub: sub})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

func (b *EventBus) Publish(ctx context.Context, evt domain.Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(ctx, s.sub, evt)
	}
}

func (b *EventBus) deliver(ctx context.Context, sub Subscriber, evt domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event subscriber panicked",
				logger.String("event_type", string(evt.Type)),
				logger.String("order_id", evt.OrderID),
				logger.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	sub.HandleEvent(ctx, evt)
}
