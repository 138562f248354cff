// Package gatewaytest provides gateway doubles for tests.
package gatewaytest

import (
	"context"
	"sync"

	"github.com/BryServices/auradhom-v2/internal/infrastructure/persistence/gateway"
)

// Faulty wraps a gateway and fails the configured operations.
type Faulty struct {
	gateway.Gateway

	mu     sync.Mutex
	fails  map[string]error
	stalls map[string]bool
	calls  map[string]int
}

func NewFaulty(inner gateway.Gateway) *Faulty {
	return &Faulty{
		Gateway: inner,
		fails:   make(map[string]error),
		stalls:  make(map[string]bool),
		calls:   make(map[string]int),
	}
}

// FailOn makes op ("put", "get_all", "get_one", "update", "move", "delete")
// return err until Heal is called.
func (f *Faulty) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails[op] = err
}

// StallOn makes op block until its context is done, like a backend that
// stopped answering.
func (f *Faulty) StallOn(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stalls[op] = true
}

func (f *Faulty) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails = make(map[string]error)
	f.stalls = make(map[string]bool)
}

// Calls reports how many times op reached the wrapper.
func (f *Faulty) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *Faulty) check(ctx context.Context, op string, c gateway.Collection) error {
	f.mu.Lock()
	f.calls[op]++
	err, failing := f.fails[op]
	stalled := f.stalls[op]
	f.mu.Unlock()

	if stalled {
		<-ctx.Done()
		err, failing = ctx.Err(), true
	}
	if failing {
		return &gateway.Error{Backend: "faulty", Op: op, Collection: c, Err: err}
	}
	return nil
}

func (f *Faulty) Put(ctx context.Context, c gateway.Collection, r gateway.Record) error {
	if err := f.check(ctx, "put", c); err != nil {
		return err
	}
	return f.Gateway.Put(ctx, c, r)
}

func (f *Faulty) GetAll(ctx context.Context, c gateway.Collection, flt *gateway.Filter) ([]gateway.Record, error) {
	if err := f.check(ctx, "get_all", c); err != nil {
		return nil, err
	}
	return f.Gateway.GetAll(ctx, c, flt)
}

func (f *Faulty) GetOne(ctx context.Context, c gateway.Collection, id string) (*gateway.Record, error) {
	if err := f.check(ctx, "get_one", c); err != nil {
		return nil, err
	}
	return f.Gateway.GetOne(ctx, c, id)
}

func (f *Faulty) Update(ctx context.Context, c gateway.Collection, id string, patch map[string]any) error {
	if err := f.check(ctx, "update", c); err != nil {
		return err
	}
	return f.Gateway.Update(ctx, c, id, patch)
}

func (f *Faulty) Move(ctx context.Context, from, to gateway.Collection, r gateway.Record) error {
	if err := f.check(ctx, "move", from); err != nil {
		return err
	}
	return f.Gateway.Move(ctx, from, to, r)
}

func (f *Faulty) Delete(ctx context.Context, c gateway.Collection, id string) error {
	if err := f.check(ctx, "delete", c); err != nil {
		return err
	}
	return f.Gateway.Delete(ctx, c, id)
}
