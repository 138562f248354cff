package order

import "time"

type EventType string

const (
	// EventOrderCreated fires once per order id, whether or not the durable
	// write succeeded.
	EventOrderCreated   EventType = "order.created"
	EventOrderValidated EventType = "order.validated"
	EventOrderRejected  EventType = "order.rejected"
	EventOrderSynced    EventType = "order.synced"
)

// Event is a lifecycle fact with a snapshot of the order after the change.
type Event struct {
	ID          string    `json:"event_id"`
	Type        EventType `json:"type"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Order       *Order    `json:"order"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func NewEvent(id string, typ EventType, o *Order, at time.Time) Event {
	return Event{
		ID:          id,
		Type:        typ,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Order:       o.Clone(),
		OccurredAt:  at.UTC(),
	}
}
