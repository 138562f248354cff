package avro

// OrderSchema is the Avro schema of an exported order.
// Money stays a decimal string and timestamps are RFC3339 strings so the
// export round-trips without float or timezone loss.
// Optional fields are ["null", "string"] unions.
const OrderSchema = `{
	"type": "record",
	"name": "Order",
	"namespace": "com.auradhom.order",
	"fields": [
		{"name": "id", "type": "string"},
		{"name": "order_number", "type": "string"},
		{"name": "customer", "type": {
			"type": "record",
			"name": "Customer",
			"fields": [
				{"name": "first_name", "type": "string"},
				{"name": "last_name", "type": "string"},
				{"name": "address", "type": "string"},
				{"name": "department", "type": "string"},
				{"name": "city", "type": "string"},
				{"name": "district", "type": "string"},
				{"name": "phone", "type": "string"}
			]
		}},
		{"name": "line_items", "type": {
			"type": "array",
			"items": {
				"type": "record",
				"name": "LineItem",
				"fields": [
					{"name": "product_id", "type": "string"},
					{"name": "product_name", "type": "string"},
					{"name": "variant", "type": {"type": "map", "values": "string"}},
					{"name": "quantity", "type": "long"},
					{"name": "unit_price", "type": "string"}
				]
			}
		}},
		{"name": "subtotal", "type": "string"},
		{"name": "shipping_cost", "type": "string"},
		{"name": "total", "type": "string"},
		{"name": "status", "type": "string"},
		{"name": "sync_status", "type": "string"},
		{"name": "created_at", "type": "string"},

		{"name": "validated_at", "type": ["null", "string"], "default": null},
		{"name": "validated_by", "type": ["null", "string"], "default": null},
		{"name": "rejected_at", "type": ["null", "string"], "default": null},
		{"name": "rejected_by", "type": ["null", "string"], "default": null},
		{"name": "rejection_reason", "type": ["null", "string"], "default": null},

		{"name": "outbound_message", "type": "string"}
	]
}`
