package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/BryServices/auradhom-v2/internal/domain/order"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/persistence/gateway"
)

// BackupRepository keeps one entry per order in the orders_backup collection
// of its own gateway, normally a local store separate from the primary one.
type BackupRepository struct {
	gw gateway.Gateway
}

func NewBackupRepository(gw gateway.Gateway) *BackupRepository {
	return &BackupRepository{gw: gw}
}

// Upsert replaces the entry matching o's id or order number.
func (r *BackupRepository) Upsert(ctx context.Context, o *order.Order) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}
	same, err := r.gw.GetAll(ctx, gateway.OrdersBackup, &gateway.Filter{Field: "order_number", Value: o.OrderNumber})
	if err != nil {
		return err
	}
	for _, rec := range same {
		if rec.ID == o.ID {
			continue
		}
		if err := r.gw.Delete(ctx, gateway.OrdersBackup, rec.ID); err != nil && !errors.Is(err, gateway.ErrNotFound) {
			return err
		}
	}
	rec, err := gateway.NewRecord(o.ID, o)
	if err != nil {
		return err
	}
	return r.gw.Put(ctx, gateway.OrdersBackup, rec)
}

func (r *BackupRepository) FindAll(ctx context.Context) ([]*order.Order, error) {
	recs, err := r.gw.GetAll(ctx, gateway.OrdersBackup, nil)
	if err != nil {
		return nil, err
	}
	out := make([]*order.Order, 0, len(recs))
	for _, rec := range recs {
		o, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	order.SortNewestFirst(out)
	return out, nil
}
