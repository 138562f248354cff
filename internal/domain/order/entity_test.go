package order

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var createdAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func testCustomer() Customer {
	return Customer{
		FirstName:  "Grace",
		LastName:   "Mabiala",
		Address:    "12 rue Mbochi",
		Department: "Brazzaville",
		City:       "Brazzaville",
		District:   "Poto-Poto",
		Phone:      "+242 06 123 4567",
	}
}

func testItems() []LineItem {
	return []LineItem{
		{ProductID: "tee-01", ProductName: "Tee", Variant: map[string]string{"size": "M"}, Quantity: 1, UnitPrice: decimal.NewFromInt(10000)},
		{ProductID: "cap-02", ProductName: "Cap", Quantity: 2, UnitPrice: decimal.NewFromInt(5000)},
	}
}

func TestNewOrder_ComputesTotals(t *testing.T) {
	o, err := NewOrder("id-1", "ADH-1-1", testCustomer(), testItems(), decimal.Zero, "hello", createdAt)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, decimal.NewFromInt(20000).Equal(o.Subtotal))
	assert.True(t, decimal.NewFromInt(20000).Equal(o.Total))
	assert.Equal(t, "hello", o.OutboundMessage)
	assert.NoError(t, o.CheckInvariants())
}

func TestNewOrder_WithShipping(t *testing.T) {
	o, err := NewOrder("id-1", "ADH-1-1", testCustomer(), testItems(), decimal.NewFromInt(1500), "", createdAt)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(21500).Equal(o.Total))
	assert.Contains(t, o.OutboundMessage, "ADH-1-1")
	assert.Contains(t, o.OutboundMessage, "Tee [size: M] x1")
}

func TestNewOrder_SnapshotIsDetached(t *testing.T) {
	items := testItems()
	o, err := NewOrder("id-1", "ADH-1-1", testCustomer(), items, decimal.Zero, "m", createdAt)
	require.NoError(t, err)

	items[0].UnitPrice = decimal.NewFromInt(99999)
	items[0].Variant["size"] = "XL"

	assert.True(t, decimal.NewFromInt(10000).Equal(o.LineItems[0].UnitPrice))
	assert.Equal(t, "M", o.LineItems[0].Variant["size"])
}

func TestNewOrder_ValidationErrors(t *testing.T) {
	noPhone := testCustomer()
	noPhone.Phone = "  "
	badQty := testItems()
	badQty[1].Quantity = 0

	tests := []struct {
		name     string
		customer Customer
		items    []LineItem
		shipping decimal.Decimal
		wantErr  error
	}{
		{"empty items", testCustomer(), nil, decimal.Zero, ErrEmptyLineItems},
		{"missing phone", noPhone, testItems(), decimal.Zero, ErrMissingPhone},
		{"zero quantity", testCustomer(), badQty, decimal.Zero, ErrInvalidQuantity},
		{"negative shipping", testCustomer(), testItems(), decimal.NewFromInt(-1), ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := NewOrder("id", "n", tt.customer, tt.items, tt.shipping, "", createdAt)

			assert.Nil(t, o)
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestOrder_MarkValidated(t *testing.T) {
	o, err := NewOrder("id-1", "ADH-1-1", testCustomer(), testItems(), decimal.Zero, "m", createdAt)
	require.NoError(t, err)

	require.NoError(t, o.MarkValidated("Alice", createdAt.Add(time.Hour)))

	assert.Equal(t, StatusValidated, o.Status)
	assert.Equal(t, "Alice", o.ValidatedBy)
	require.NotNil(t, o.ValidatedAt)
	assert.NoError(t, o.CheckInvariants())

	err = o.MarkRejected("Bob", "too late", createdAt.Add(2*time.Hour))
	var tErr *InvalidTransitionError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, StatusValidated, tErr.From)
	assert.Equal(t, StatusValidated, o.Status)
	assert.Empty(t, o.RejectionReason)
}

func TestOrder_MarkRejected_RequiresReason(t *testing.T) {
	o, err := NewOrder("id-1", "ADH-1-1", testCustomer(), testItems(), decimal.Zero, "m", createdAt)
	require.NoError(t, err)

	err = o.MarkRejected("Alice", "   ", createdAt)

	assert.ErrorIs(t, err, ErrEmptyRejectionReason)
	assert.Equal(t, StatusPending, o.Status)
	assert.Nil(t, o.RejectedAt)
	assert.NoError(t, o.CheckInvariants())
}

func TestOrder_CheckInvariants_DetectsStrayStamps(t *testing.T) {
	o, err := NewOrder("id-1", "ADH-1-1", testCustomer(), testItems(), decimal.Zero, "m", createdAt)
	require.NoError(t, err)

	o.ValidatedBy = "Alice"

	assert.Error(t, o.CheckInvariants())
}

func TestOrder_Clone(t *testing.T) {
	o, err := NewOrder("id-1", "ADH-1-1", testCustomer(), testItems(), decimal.Zero, "m", createdAt)
	require.NoError(t, err)
	require.NoError(t, o.MarkValidated("Alice", createdAt))

	c := o.Clone()
	c.LineItems[0].Variant["size"] = "S"
	*c.ValidatedAt = createdAt.Add(time.Hour)

	assert.Equal(t, "M", o.LineItems[0].Variant["size"])
	assert.Equal(t, createdAt, *o.ValidatedAt)
}

func TestOrder_WhatsAppLink(t *testing.T) {
	o, err := NewOrder("id-1", "ADH-1-1", testCustomer(), testItems(), decimal.Zero, "Hi there", createdAt)
	require.NoError(t, err)

	link := o.WhatsAppLink()

	assert.True(t, strings.HasPrefix(link, "https://wa.me/242061234567?text="))
	assert.True(t, strings.HasSuffix(link, "Hi+there"))
}
