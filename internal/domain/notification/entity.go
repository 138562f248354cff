package notification

import (
	"errors"
	"time"
)

type Kind string

const (
	KindNewOrder Kind = "new_order"
	KindInfo     Kind = "info"
	KindSuccess  Kind = "success"
	KindError    Kind = "error"
)

func (k Kind) Valid() bool {
	switch k {
	case KindNewOrder, KindInfo, KindSuccess, KindError:
		return true
	}
	return false
}

var (
	ErrNotFound     = errors.New("notification not found")
	ErrInvalidKind  = errors.New("unknown notification kind")
	ErrEmptyMessage = errors.New("notification message is empty")
)

type Notification struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	OrderID   string    `json:"order_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

func NewNotification(id string, kind Kind, message, orderID string, now time.Time) (*Notification, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	if message == "" {
		return nil, ErrEmptyMessage
	}
	return &Notification{
		ID:        id,
		Kind:      kind,
		Message:   message,
		OrderID:   orderID,
		CreatedAt: now.UTC(),
	}, nil
}

// UnreadCount is computed from the live set every time.
func UnreadCount(items []*Notification) int {
	n := 0
	for _, it := range items {
		if !it.Read {
			n++
		}
	}
	return n
}
