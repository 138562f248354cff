package repository

import (
	"context"

	"github.com/BryServices/auradhom-v2/internal/domain/order"
)

// BackupRepository is the local copy of every order, independent of the
// primary store.
type BackupRepository interface {
	// Upsert replaces the entry with the same id or order number, or appends.
	Upsert(ctx context.Context, o *order.Order) error
	FindAll(ctx context.Context) ([]*order.Order, error)
}
