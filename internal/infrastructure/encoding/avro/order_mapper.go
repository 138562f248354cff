package avro

import (
	"time"

	"github.com/linkedin/goavro/v2"

	"github.com/BryServices/auradhom-v2/internal/domain/order"
)

// ToOrderNative converts an order to the goavro native form of OrderSchema.
// Union values are wrapped with goavro.Union.
func ToOrderNative(o *order.Order) map[string]interface{} {
	items := make([]interface{}, 0, len(o.LineItems))
	for _, it := range o.LineItems {
		variant := make(map[string]interface{}, len(it.Variant))
		for k, v := range it.Variant {
			variant[k] = v
		}
		items = append(items, map[string]interface{}{
			"product_id":   it.ProductID,
			"product_name": it.ProductName,
			"variant":      variant,
			"quantity":     int64(it.Quantity),
			"unit_price":   it.UnitPrice.String(),
		})
	}

	return map[string]interface{}{
		"id":           o.ID,
		"order_number": o.OrderNumber,
		"customer": map[string]interface{}{
			"first_name": o.Customer.FirstName,
			"last_name":  o.Customer.LastName,
			"address":    o.Customer.Address,
			"department": o.Customer.Department,
			"city":       o.Customer.City,
			"district":   o.Customer.District,
			"phone":      o.Customer.Phone,
		},
		"line_items":       items,
		"subtotal":         o.Subtotal.String(),
		"shipping_cost":    o.ShippingCost.String(),
		"total":            o.Total.String(),
		"status":           string(o.Status),
		"sync_status":      string(o.SyncStatus),
		"created_at":       o.CreatedAt.UTC().Format(time.RFC3339Nano),
		"validated_at":     optionalTime(o.ValidatedAt),
		"validated_by":     optionalString(o.ValidatedBy),
		"rejected_at":      optionalTime(o.RejectedAt),
		"rejected_by":      optionalString(o.RejectedBy),
		"rejection_reason": optionalString(o.RejectionReason),
		"outbound_message": o.OutboundMessage,
	}
}

func optionalString(s string) interface{} {
	if s == "" {
		return nil
	}
	return goavro.Union("string", s)
}

func optionalTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return goavro.Union("string", t.UTC().Format(time.RFC3339Nano))
}
