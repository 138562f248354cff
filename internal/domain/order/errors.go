package order

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyLineItems       = errors.New("order must contain at least one line item")
	ErrMissingPhone         = errors.New("customer phone is required")
	ErrInvalidQuantity      = errors.New("quantity must be greater than zero")
	ErrInvalidPrice         = errors.New("amount must not be negative")
	ErrEmptyRejectionReason = errors.New("rejection reason is required")
	ErrMissingActor         = errors.New("actor identity is required")
	ErrMissingField         = errors.New("required field is missing")
)

// ValidationError: input không hợp lệ, không retry, trả về ngay cho caller.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Err.Error()
	}
	return fmt.Sprintf("validation failed on %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

// DuplicateOrderError carries the order already stored under the same natural key.
type DuplicateOrderError struct {
	OrderNumber string
	Existing    *Order
}

func (e *DuplicateOrderError) Error() string {
	return fmt.Sprintf("order %s already exists", e.OrderNumber)
}

// InvalidTransitionError is returned for transitions out of a non-pending or
// unknown order. From is empty when the order does not exist.
type InvalidTransitionError struct {
	OrderID string
	From    Status
	To      Status
}

func (e *InvalidTransitionError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("cannot move order %s to %s: order not found", e.OrderID, e.To)
	}
	return fmt.Sprintf("cannot move order %s from %s to %s", e.OrderID, e.From, e.To)
}

// PersistenceError means the durable store failed or rejected a write.
type PersistenceError struct {
	Op      string
	OrderID string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist order %s (%s): %v", e.OrderID, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// BackupError is only ever logged.
type BackupError struct {
	OrderID string
	Err     error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backup order %s: %v", e.OrderID, e.Err)
}

func (e *BackupError) Unwrap() error { return e.Err }
