package order

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Status là vòng đời của một đơn hàng: pending -> validated | rejected.
type Status string

const (
	StatusPending   Status = "pending"
	StatusValidated Status = "validated"
	StatusRejected  Status = "rejected"
)

// Statuses lists every status in dashboard order.
var Statuses = []Status{StatusPending, StatusValidated, StatusRejected}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusValidated, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusValidated || s == StatusRejected
}

func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && next.Terminal()
}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown order status %q", raw)
	}
	return s, nil
}

// SyncStatus tells whether the durable store has acknowledged the latest write.
type SyncStatus string

const (
	SyncSynced      SyncStatus = "synced"
	SyncPendingSync SyncStatus = "pending_sync"
	SyncFailed      SyncStatus = "failed"
)

// Customer is the delivery contact captured when the order is placed.
type Customer struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Address    string `json:"address"`
	Department string `json:"department"`
	City       string `json:"city"`
	District   string `json:"district"`
	Phone      string `json:"phone"`
}

func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// LineItem is a frozen copy of a cart line.
type LineItem struct {
	ProductID   string            `json:"product_id"`
	ProductName string            `json:"product_name"`
	Variant     map[string]string `json:"variant,omitempty"`
	Quantity    int               `json:"quantity"`
	UnitPrice   decimal.Decimal   `json:"unit_price"`
}

func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

func (li LineItem) clone() LineItem {
	out := li
	if li.Variant != nil {
		out.Variant = make(map[string]string, len(li.Variant))
		for k, v := range li.Variant {
			out.Variant[k] = v
		}
	}
	return out
}
