package repository

import (
	"context"

	"github.com/BryServices/auradhom-v2/internal/domain/order"
)

// OrderRepository lưu order theo 3 view pending/validated/rejected.
// Find* trả về (nil, nil) khi không tìm thấy.
type OrderRepository interface {
	// Insert writes a new pending order; the view is updated only after the
	// store acknowledges.
	Insert(ctx context.Context, o *order.Order) error
	// Admit puts an order into the pending view without a store write.
	Admit(o *order.Order)
	// Transition persists o (already stamped) and moves it out of the from view.
	Transition(ctx context.Context, o *order.Order, from order.Status) error
	// Save rewrites o in the collection of its current status.
	Save(ctx context.Context, o *order.Order) error

	FindByID(ctx context.Context, id string) (*order.Order, error)
	FindByOrderNumber(ctx context.Context, number string) (*order.Order, error)

	List(status order.Status) []*order.Order
	All() []*order.Order
	Unsynced() []*order.Order
	ViewsOf(id string) []order.Status

	RefreshFromStore(ctx context.Context) error
}
