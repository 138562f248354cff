package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/BryServices/auradhom-v2/internal/domain/order"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/persistence/gateway"
	"github.com/BryServices/auradhom-v2/pkg/logger"
)

var viewCollections = map[order.Status]gateway.Collection{
	order.StatusPending:   gateway.OrdersPending,
	order.StatusValidated: gateway.OrdersValidated,
	order.StatusRejected:  gateway.OrdersRejected,
}

func collectionFor(s order.Status) (gateway.Collection, error) {
	c, ok := viewCollections[s]
	if !ok {
		return "", fmt.Errorf("no collection for status %q", s)
	}
	return c, nil
}

// OrderRepository keeps the pending/validated/rejected views as a
// write-through cache over the gateway. One lock guards all three views, so
// an order is never observed in two of them.
type OrderRepository struct {
	gw  gateway.Gateway
	log logger.Logger

	mu    sync.RWMutex
	views map[order.Status]map[string]*order.Order
}

func NewOrderRepository(gw gateway.Gateway, log logger.Logger) *OrderRepository {
	return &OrderRepository{
		gw:    gw,
		log:   log,
		views: newViews(),
	}
}

func newViews() map[order.Status]map[string]*order.Order {
	v := make(map[order.Status]map[string]*order.Order, len(order.Statuses))
	for _, s := range order.Statuses {
		v[s] = make(map[string]*order.Order)
	}
	return v
}

// Insert writes o to the pending collection. On success o is marked synced
// and cached; on failure the views are untouched.
func (r *OrderRepository) Insert(ctx context.Context, o *order.Order) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}
	rec, err := toRecord(o)
	if err != nil {
		return err
	}
	if err := r.gw.Put(ctx, gateway.OrdersPending, rec); err != nil {
		return err
	}
	o.SyncStatus = order.SyncSynced
	r.cache(o)
	return nil
}

// Admit caches o in the view of its status without writing to the store.
func (r *OrderRepository) Admit(o *order.Order) {
	if o == nil {
		return
	}
	r.cache(o)
}

func (r *OrderRepository) Transition(ctx context.Context, o *order.Order, from order.Status) error {
	src, err := collectionFor(from)
	if err != nil {
		return err
	}
	dst, err := collectionFor(o.Status)
	if err != nil {
		return err
	}
	wasSynced := o.SyncStatus == order.SyncSynced
	rec, err := toRecord(o)
	if err != nil {
		return err
	}

	if wasSynced {
		err = r.gw.Move(ctx, src, dst, rec)
		if errors.Is(err, gateway.ErrNotFound) {
			r.log.Warn("order missing from source collection, writing target directly",
				logger.String("order_id", o.ID),
				logger.String("from", string(src)),
			)
			err = r.gw.Put(ctx, dst, rec)
		}
	} else {
		err = r.gw.Put(ctx, dst, rec)
		if err == nil {
			// a timed out insert may still have landed
			if derr := r.gw.Delete(ctx, src, o.ID); derr != nil && !errors.Is(derr, gateway.ErrNotFound) {
				r.log.Warn("stale source record not removed",
					logger.String("order_id", o.ID),
					logger.Error(derr),
				)
			}
		}
	}
	if err != nil {
		return err
	}

	o.SyncStatus = order.SyncSynced
	r.cache(o)
	return nil
}

// Save rewrites o in the collection of its current status.
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	c, err := collectionFor(o.Status)
	if err != nil {
		return err
	}
	rec, err := toRecord(o)
	if err != nil {
		return err
	}
	if err := r.gw.Put(ctx, c, rec); err != nil {
		return err
	}
	o.SyncStatus = order.SyncSynced
	r.cache(o)
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	for _, s := range order.Statuses {
		if o, ok := r.views[s][id]; ok {
			r.mu.RUnlock()
			return o.Clone(), nil
		}
	}
	r.mu.RUnlock()

	for _, s := range order.Statuses {
		rec, err := r.gw.GetOne(ctx, viewCollections[s], id)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			continue
		}
		o, err := fromRecord(*rec)
		if err != nil {
			return nil, err
		}
		r.cacheIfAbsent(o)
		return o.Clone(), nil
	}
	return nil, nil
}

func (r *OrderRepository) FindByOrderNumber(ctx context.Context, number string) (*order.Order, error) {
	r.mu.RLock()
	for _, s := range order.Statuses {
		for _, o := range r.views[s] {
			if o.OrderNumber == number {
				r.mu.RUnlock()
				return o.Clone(), nil
			}
		}
	}
	r.mu.RUnlock()

	f := &gateway.Filter{Field: "order_number", Value: number}
	for _, s := range order.Statuses {
		recs, err := r.gw.GetAll(ctx, viewCollections[s], f)
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			continue
		}
		o, err := fromRecord(recs[0])
		if err != nil {
			return nil, err
		}
		r.cacheIfAbsent(o)
		return o.Clone(), nil
	}
	return nil, nil
}

// List returns the view of one status, newest first.
func (r *OrderRepository) List(status order.Status) []*order.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*order.Order, 0, len(r.views[status]))
	for _, o := range r.views[status] {
		out = append(out, o.Clone())
	}
	order.SortNewestFirst(out)
	return out
}

func (r *OrderRepository) All() []*order.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*order.Order
	for _, s := range order.Statuses {
		for _, o := range r.views[s] {
			out = append(out, o.Clone())
		}
	}
	order.SortNewestFirst(out)
	return out
}

// Unsynced returns cached orders the store has not acknowledged yet.
func (r *OrderRepository) Unsynced() []*order.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*order.Order
	for _, s := range order.Statuses {
		for _, o := range r.views[s] {
			if o.SyncStatus != order.SyncSynced {
				out = append(out, o.Clone())
			}
		}
	}
	order.SortNewestFirst(out)
	return out
}

// ViewsOf lists the views currently holding id.
func (r *OrderRepository) ViewsOf(id string) []order.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []order.Status
	for _, s := range order.Statuses {
		if _, ok := r.views[s][id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// RefreshFromStore rebuilds the views from the store. Orders the store has
// never acknowledged are kept from the local cache. On error nothing changes.
func (r *OrderRepository) RefreshFromStore(ctx context.Context) error {
	fresh := newViews()
	seen := make(map[string]order.Status)

	for _, s := range order.Statuses {
		recs, err := r.gw.GetAll(ctx, viewCollections[s], nil)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			o, err := fromRecord(rec)
			if err != nil {
				r.log.Warn("skip undecodable order record",
					logger.String("collection", string(viewCollections[s])),
					logger.String("id", rec.ID),
					logger.Error(err),
				)
				continue
			}
			o.Status = s
			o.SyncStatus = order.SyncSynced
			if prev, ok := seen[o.ID]; ok {
				if prev.Terminal() {
					continue
				}
				delete(fresh[prev], o.ID)
			}
			fresh[s][o.ID] = o
			seen[o.ID] = s
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := 0
	for _, s := range order.Statuses {
		for id, o := range r.views[s] {
			if o.SyncStatus == order.SyncSynced {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			fresh[s][id] = o
			kept++
		}
	}
	r.views = fresh
	r.log.Info("order views refreshed from store",
		logger.String("backend", r.gw.Name()),
		logger.Int("orders", len(seen)),
		logger.Int("unsynced_kept", kept),
	)
	return nil
}

func (r *OrderRepository) cache(o *order.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(o.Clone())
}

func (r *OrderRepository) cacheIfAbsent(o *order.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range order.Statuses {
		if _, ok := r.views[s][o.ID]; ok {
			return
		}
	}
	r.put(o)
}

// put drops id from every view then stores it under its status. Caller holds mu.
func (r *OrderRepository) put(o *order.Order) {
	for _, s := range order.Statuses {
		delete(r.views[s], o.ID)
	}
	if view, ok := r.views[o.Status]; ok {
		view[o.ID] = o
	}
}

func toRecord(o *order.Order) (gateway.Record, error) {
	stored := o.Clone()
	stored.SyncStatus = order.SyncSynced
	return gateway.NewRecord(o.ID, stored)
}

func fromRecord(rec gateway.Record) (*order.Order, error) {
	var o order.Order
	if err := rec.Decode(&o); err != nil {
		return nil, err
	}
	if o.ID == "" {
		o.ID = rec.ID
	}
	return &o, nil
}
