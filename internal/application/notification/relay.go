// Package notification turns order lifecycle events into admin
// notifications, one new_order notification per order id.
package notification

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/BryServices/auradhom-v2/internal/domain/notification"
	"github.com/BryServices/auradhom-v2/internal/domain/order"
	"github.com/BryServices/auradhom-v2/internal/domain/repository"
	"github.com/BryServices/auradhom-v2/pkg/logger"
)

// Relay keeps the notification set in memory; the repository mirrors it and
// its failures are only logged.
type Relay struct {
	repo repository.NotificationRepository
	log  logger.Logger
	now  func() time.Time

	mu          sync.Mutex
	items       map[string]*domain.Notification
	notified    map[string]struct{}
	lastOrderID string
}

func NewRelay(ctx context.Context, repo repository.NotificationRepository, log logger.Logger) (*Relay, error) {
	r := &Relay{
		repo:     repo,
		log:      log,
		now:      time.Now,
		items:    make(map[string]*domain.Notification),
		notified: make(map[string]struct{}),
	}
	if err := r.Reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload replaces the in-memory set with the stored one. Used when another
// process (the Kafka notifier) owns the writes. Notified order ids are only
// ever added.
func (r *Relay) Reload(ctx context.Context) error {
	existing, err := r.repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load notifications: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[string]*domain.Notification, len(existing))
	for _, n := range existing {
		r.items[n.ID] = n
		if n.Kind == domain.KindNewOrder && n.OrderID != "" {
			r.notified[n.OrderID] = struct{}{}
			r.lastOrderID = n.OrderID
		}
	}
	return nil
}

// HandleEvent reacts to order.created only; repeats for an order id are dropped.
func (r *Relay) HandleEvent(ctx context.Context, evt order.Event) {
	if evt.Type != order.EventOrderCreated || evt.OrderID == "" {
		return
	}

	r.mu.Lock()
	if evt.OrderID == r.lastOrderID {
		r.mu.Unlock()
		return
	}
	if _, ok := r.notified[evt.OrderID]; ok {
		r.mu.Unlock()
		return
	}
	customer := ""
	if evt.Order != nil {
		customer = evt.Order.Customer.FullName()
	}
	n, err := domain.NewNotification(uuid.NewString(), domain.KindNewOrder,
		fmt.Sprintf("New order %s from %s", evt.OrderNumber, customer), evt.OrderID, r.now())
	if err != nil {
		r.mu.Unlock()
		r.log.Error("build notification failed", logger.String("order_id", evt.OrderID), logger.Error(err))
		return
	}
	r.items[n.ID] = n
	r.notified[evt.OrderID] = struct{}{}
	r.lastOrderID = evt.OrderID
	saved := *n
	r.mu.Unlock()

	r.persist(ctx, &saved)
}

// Create adds a free-form notification.
func (r *Relay) Create(ctx context.Context, kind domain.Kind, message, orderID string) (*domain.Notification, error) {
	n, err := domain.NewNotification(uuid.NewString(), kind, message, orderID, r.now())
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.items[n.ID] = n
	saved := *n
	r.mu.Unlock()

	r.persist(ctx, &saved)
	return &saved, nil
}

func (r *Relay) MarkRead(ctx context.Context, id string) error {
	r.mu.Lock()
	n, ok := r.items[id]
	if !ok {
		r.mu.Unlock()
		return domain.ErrNotFound
	}
	n.Read = true
	r.mu.Unlock()

	if err := r.repo.SetRead(ctx, id, true); err != nil {
		r.log.Warn("persist read flag failed", logger.String("notification_id", id), logger.Error(err))
	}
	return nil
}

// MarkAllRead returns how many notifications flipped.
func (r *Relay) MarkAllRead(ctx context.Context) int {
	r.mu.Lock()
	var flipped []string
	for id, n := range r.items {
		if !n.Read {
			n.Read = true
			flipped = append(flipped, id)
		}
	}
	r.mu.Unlock()

	for _, id := range flipped {
		if err := r.repo.SetRead(ctx, id, true); err != nil {
			r.log.Warn("persist read flag failed", logger.String("notification_id", id), logger.Error(err))
		}
	}
	return len(flipped)
}

// Remove deletes a notification on explicit user request. The order stays
// marked as notified.
func (r *Relay) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	if _, ok := r.items[id]; !ok {
		r.mu.Unlock()
		return domain.ErrNotFound
	}
	delete(r.items, id)
	r.mu.Unlock()

	if err := r.repo.Delete(ctx, id); err != nil {
		r.log.Warn("persist notification delete failed", logger.String("notification_id", id), logger.Error(err))
	}
	return nil
}

// List returns copies, newest first.
func (r *Relay) List() []*domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.Notification, 0, len(r.items))
	for _, n := range r.items {
		cp := *n
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *Relay) UnreadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]*domain.Notification, 0, len(r.items))
	for _, n := range r.items {
		items = append(items, n)
	}
	return domain.UnreadCount(items)
}

func (r *Relay) persist(ctx context.Context, n *domain.Notification) {
	if err := r.repo.Save(ctx, n); err != nil {
		r.log.Warn("persist notification failed",
			logger.String("notification_id", n.ID),
			logger.String("order_id", n.OrderID),
			logger.Error(err),
		)
	}
}
