package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	app "github.com/BryServices/auradhom-v2/internal/application/order"
	"github.com/BryServices/auradhom-v2/internal/domain/order"
	"github.com/BryServices/auradhom-v2/pkg/logger"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type OrderHandler struct {
	svc *app.Service
	log logger.Logger
}

func NewOrderHandler(svc *app.Service, log logger.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, log: log}
}

type customerRequest struct {
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name"`
	Address    string `json:"address"`
	Department string `json:"department"`
	City       string `json:"city"`
	District   string `json:"district"`
	Phone      string `json:"phone" binding:"required"`
}

type lineItemRequest struct {
	ProductID   string            `json:"product_id" binding:"required"`
	ProductName string            `json:"product_name" binding:"required"`
	Variant     map[string]string `json:"variant"`
	Quantity    int               `json:"quantity" binding:"gt=0"`
	UnitPrice   decimal.Decimal   `json:"unit_price"`
}

type createOrderRequest struct {
	Customer        customerRequest   `json:"customer"`
	LineItems       []lineItemRequest `json:"line_items" binding:"required,min=1,dive"`
	ShippingCost    decimal.Decimal   `json:"shipping_cost"`
	OutboundMessage string            `json:"outbound_message"`
	OrderNumber     string            `json:"order_number"`
}

func (r createOrderRequest) command() app.CreateOrderCommand {
	items := make([]order.LineItem, 0, len(r.LineItems))
	for _, it := range r.LineItems {
		items = append(items, order.LineItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Variant:     it.Variant,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	return app.CreateOrderCommand{
		Customer: order.Customer{
			FirstName:  r.Customer.FirstName,
			LastName:   r.Customer.LastName,
			Address:    r.Customer.Address,
			Department: r.Customer.Department,
			City:       r.Customer.City,
			District:   r.Customer.District,
			Phone:      r.Customer.Phone,
		},
		LineItems:       items,
		ShippingCost:    r.ShippingCost,
		OutboundMessage: r.OutboundMessage,
		OrderNumber:     r.OrderNumber,
	}
}

type orderResponse struct {
	Order        *order.Order `json:"order"`
	WhatsAppLink string       `json:"whatsapp_link"`
	SyncStatus   string       `json:"sync_status,omitempty"`
	Warning      string       `json:"warning,omitempty"`
}

// CreateOrder: 201 khi store đã ghi, 202 khi order chỉ được admit local.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	cmd := req.command()
	if key := c.GetHeader(HeaderIdempotencyKey); key != "" && cmd.OrderNumber == "" {
		cmd.OrderNumber = key
	}

	o, err := h.svc.CreateOrder(c.Request.Context(), cmd)
	if err != nil {
		if app.IsWarning(err) {
			h.log.WithContext(c.Request.Context()).Warn("order accepted without durable write",
				logger.String("order_id", o.ID),
				logger.Error(err),
			)
			c.JSON(http.StatusAccepted, orderResponse{
				Order:        o,
				WhatsAppLink: o.WhatsAppLink(),
				SyncStatus:   "sync_pending",
				Warning:      err.Error(),
			})
			return
		}
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, orderResponse{Order: o, WhatsAppLink: o.WhatsAppLink()})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, ok := h.svc.GetOrder(c.Request.Context(), c.Param("id"))
	if !ok {
		respondError(c, http.StatusNotFound, "order not found")
		return
	}
	c.JSON(http.StatusOK, o)
}
