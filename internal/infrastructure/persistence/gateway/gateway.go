// Package gateway defines the storage contract shared by the durable and the
// local backend. Records are opaque JSON documents grouped in collections.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type Collection string

const (
	OrdersPending   Collection = "orders_pending"
	OrdersValidated Collection = "orders_validated"
	OrdersRejected  Collection = "orders_rejected"
	Notifications   Collection = "notifications"
	OrdersBackup    Collection = "orders_backup"
)

var ErrNotFound = errors.New("record not found")

type Record struct {
	ID        string          `json:"id"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewRecord marshals v into a record.
func NewRecord(id string, v any) (Record, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Record{}, fmt.Errorf("marshal record %s: %w", id, err)
	}
	return Record{ID: id, Data: raw, UpdatedAt: time.Now().UTC()}, nil
}

func (r Record) Decode(v any) error {
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decode record %s: %w", r.ID, err)
	}
	return nil
}

// Filter matches records whose top-level field equals Value.
type Filter struct {
	Field string
	Value string
}

type Gateway interface {
	Name() string
	Put(ctx context.Context, c Collection, r Record) error
	GetAll(ctx context.Context, c Collection, f *Filter) ([]Record, error)
	// GetOne returns (nil, nil) when the id is absent.
	GetOne(ctx context.Context, c Collection, id string) (*Record, error)
	// Update merges patch into the top level of the stored document.
	Update(ctx context.Context, c Collection, id string, patch map[string]any) error
	// Move relocates r from one collection to another in a single step.
	Move(ctx context.Context, from, to Collection, r Record) error
	Delete(ctx context.Context, c Collection, id string) error
	Close() error
}

// Error is the uniform failure returned by every backend. Gateways never retry.
type Error struct {
	Backend    string
	Op         string
	Collection Collection
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Backend, e.Op, e.Collection, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
