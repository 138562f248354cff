package repository

import (
	"context"

	"github.com/BryServices/auradhom-v2/internal/domain/notification"
)

type NotificationRepository interface {
	Save(ctx context.Context, n *notification.Notification) error
	SetRead(ctx context.Context, id string, read bool) error
	Delete(ctx context.Context, id string) error
	FindAll(ctx context.Context) ([]*notification.Notification, error)
}
