package persistence

import (
	"context"
	"fmt"
	"sort"

	"github.com/BryServices/auradhom-v2/internal/domain/notification"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/persistence/gateway"
)

type NotificationRepository struct {
	gw gateway.Gateway
}

func NewNotificationRepository(gw gateway.Gateway) *NotificationRepository {
	return &NotificationRepository{gw: gw}
}

func (r *NotificationRepository) Save(ctx context.Context, n *notification.Notification) error {
	if n == nil {
		return fmt.Errorf("notification is nil")
	}
	rec, err := gateway.NewRecord(n.ID, n)
	if err != nil {
		return err
	}
	return r.gw.Put(ctx, gateway.Notifications, rec)
}

func (r *NotificationRepository) SetRead(ctx context.Context, id string, read bool) error {
	return r.gw.Update(ctx, gateway.Notifications, id, map[string]any{"read": read})
}

func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	return r.gw.Delete(ctx, gateway.Notifications, id)
}

// FindAll returns every stored notification, oldest first.
func (r *NotificationRepository) FindAll(ctx context.Context) ([]*notification.Notification, error) {
	recs, err := r.gw.GetAll(ctx, gateway.Notifications, nil)
	if err != nil {
		return nil, err
	}
	out := make([]*notification.Notification, 0, len(recs))
	for _, rec := range recs {
		var n notification.Notification
		if err := rec.Decode(&n); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
