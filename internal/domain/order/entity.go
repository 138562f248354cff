package order

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_number"`
	Customer        Customer        `json:"customer"`
	LineItems       []LineItem      `json:"line_items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	Total           decimal.Decimal `json:"total"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	ValidatedAt     *time.Time      `json:"validated_at,omitempty"`
	ValidatedBy     string          `json:"validated_by,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	RejectedBy      string          `json:"rejected_by,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	OutboundMessage string          `json:"outbound_message"`
	SyncStatus      SyncStatus      `json:"sync_status"`
}

// NewOrder builds a pending order and freezes its totals from items.
func NewOrder(
	id, orderNumber string,
	customer Customer,
	items []LineItem,
	shipping decimal.Decimal,
	message string,
	now time.Time,
) (*Order, error) {
	if err := ValidateDraft(customer, items, shipping); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, invalid("id", ErrMissingField)
	}
	if orderNumber == "" {
		return nil, invalid("order_number", ErrMissingField)
	}

	snapshot := make([]LineItem, len(items))
	subtotal := decimal.Zero
	for i, it := range items {
		snapshot[i] = it.clone()
		subtotal = subtotal.Add(it.LineTotal())
	}

	o := &Order{
		ID:              id,
		OrderNumber:     orderNumber,
		Customer:        customer,
		LineItems:       snapshot,
		Subtotal:        subtotal,
		ShippingCost:    shipping,
		Total:           subtotal.Add(shipping),
		Status:          StatusPending,
		CreatedAt:       now.UTC(),
		OutboundMessage: message,
		SyncStatus:      SyncPendingSync,
	}
	if o.OutboundMessage == "" {
		o.OutboundMessage = FormatSummary(o)
	}
	return o, nil
}

// ValidateDraft checks the checkout input without building an order.
func ValidateDraft(customer Customer, items []LineItem, shipping decimal.Decimal) error {
	if len(items) == 0 {
		return invalid("line_items", ErrEmptyLineItems)
	}
	if strings.TrimSpace(customer.Phone) == "" {
		return invalid("customer.phone", ErrMissingPhone)
	}
	for i, it := range items {
		if it.Quantity <= 0 {
			return invalid(fmt.Sprintf("line_items[%d].quantity", i), ErrInvalidQuantity)
		}
		if it.UnitPrice.IsNegative() {
			return invalid(fmt.Sprintf("line_items[%d].unit_price", i), ErrInvalidPrice)
		}
	}
	if shipping.IsNegative() {
		return invalid("shipping_cost", ErrInvalidPrice)
	}
	return nil
}

// MarkValidated moves a pending order to validated.
func (o *Order) MarkValidated(by string, at time.Time) error {
	if !o.Status.CanTransitionTo(StatusValidated) {
		return &InvalidTransitionError{OrderID: o.ID, From: o.Status, To: StatusValidated}
	}
	if strings.TrimSpace(by) == "" {
		return invalid("validated_by", ErrMissingActor)
	}
	t := at.UTC()
	o.Status = StatusValidated
	o.ValidatedAt = &t
	o.ValidatedBy = by
	return nil
}

// MarkRejected moves a pending order to rejected; reason is mandatory.
func (o *Order) MarkRejected(by, reason string, at time.Time) error {
	if !o.Status.CanTransitionTo(StatusRejected) {
		return &InvalidTransitionError{OrderID: o.ID, From: o.Status, To: StatusRejected}
	}
	if strings.TrimSpace(by) == "" {
		return invalid("rejected_by", ErrMissingActor)
	}
	if strings.TrimSpace(reason) == "" {
		return invalid("rejection_reason", ErrEmptyRejectionReason)
	}
	t := at.UTC()
	o.Status = StatusRejected
	o.RejectedAt = &t
	o.RejectedBy = by
	o.RejectionReason = reason
	return nil
}

var errInvariant = errors.New("order invariant violated")

// CheckInvariants verifies that the transition stamps match the status.
func (o *Order) CheckInvariants() error {
	validated := o.ValidatedAt != nil || o.ValidatedBy != ""
	rejected := o.RejectedAt != nil || o.RejectedBy != "" || o.RejectionReason != ""

	switch o.Status {
	case StatusPending:
		if validated || rejected {
			return fmt.Errorf("%w: pending order %s carries transition stamps", errInvariant, o.ID)
		}
	case StatusValidated:
		if o.ValidatedAt == nil || o.ValidatedBy == "" || rejected {
			return fmt.Errorf("%w: validated order %s", errInvariant, o.ID)
		}
	case StatusRejected:
		if o.RejectedAt == nil || o.RejectedBy == "" || o.RejectionReason == "" || validated {
			return fmt.Errorf("%w: rejected order %s", errInvariant, o.ID)
		}
	default:
		return fmt.Errorf("%w: unknown status %q", errInvariant, o.Status)
	}
	if !o.Total.Equal(o.Subtotal.Add(o.ShippingCost)) {
		return fmt.Errorf("%w: total mismatch on %s", errInvariant, o.ID)
	}
	return nil
}

// Clone returns a deep copy safe to hand out of a cache.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	out := *o
	out.LineItems = make([]LineItem, len(o.LineItems))
	for i, it := range o.LineItems {
		out.LineItems[i] = it.clone()
	}
	if o.ValidatedAt != nil {
		t := *o.ValidatedAt
		out.ValidatedAt = &t
	}
	if o.RejectedAt != nil {
		t := *o.RejectedAt
		out.RejectedAt = &t
	}
	return &out
}

// WhatsAppLink returns the wa.me link carrying the stored outbound message.
func (o *Order) WhatsAppLink() string {
	var digits strings.Builder
	for _, r := range o.Customer.Phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return fmt.Sprintf("https://wa.me/%s?text=%s", digits.String(), url.QueryEscape(o.OutboundMessage))
}

// FormatSummary renders the human readable order recap sent over WhatsApp.
func FormatSummary(o *Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s\n", o.OrderNumber)
	fmt.Fprintf(&b, "Customer: %s (%s)\n", o.Customer.FullName(), o.Customer.Phone)
	fmt.Fprintf(&b, "Delivery: %s, %s, %s, %s\n",
		o.Customer.Address, o.Customer.District, o.Customer.City, o.Customer.Department)
	for _, it := range o.LineItems {
		fmt.Fprintf(&b, "- %s", it.ProductName)
		if len(it.Variant) > 0 {
			fmt.Fprintf(&b, " [%s]", formatVariant(it.Variant))
		}
		fmt.Fprintf(&b, " x%d @ %s = %s\n", it.Quantity, it.UnitPrice.String(), it.LineTotal().String())
	}
	fmt.Fprintf(&b, "Subtotal: %s\n", o.Subtotal.String())
	fmt.Fprintf(&b, "Shipping: %s\n", o.ShippingCost.String())
	fmt.Fprintf(&b, "Total: %s", o.Total.String())
	return b.String()
}

func formatVariant(v map[string]string) string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return strings.Join(parts, ", ")
}
