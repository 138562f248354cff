package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BryServices/auradhom-v2/internal/interfaces/http/handler"
)

type Handlers struct {
	Order        *handler.OrderHandler
	Admin        *handler.AdminHandler
	Notification *handler.NotificationHandler
	Events       *handler.EventStream
	Health       *handler.HealthHandler
	Metrics      http.Handler
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.GET("/health", h.Health.Health)
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics))
	}

	api := r.Group("/api")
	{
		api.POST("/orders", h.Order.CreateOrder)
		api.GET("/orders/:id", h.Order.GetOrder)
	}

	admin := api.Group("/admin")
	{
		admin.GET("/orders", h.Admin.ListOrders)
		admin.GET("/orders/stats", h.Admin.Stats)
		admin.GET("/orders/export", h.Admin.Export)
		admin.POST("/orders/resync", h.Admin.Resync)
		admin.POST("/orders/refresh", h.Admin.Refresh)
		admin.POST("/orders/:id/validate", h.Admin.ValidateOrder)
		admin.POST("/orders/:id/reject", h.Admin.RejectOrder)
		admin.GET("/orders/:id/whatsapp", h.Admin.WhatsApp)

		admin.GET("/events", h.Events.Serve)

		admin.GET("/notifications", h.Notification.List)
		admin.POST("/notifications", h.Notification.Create)
		admin.POST("/notifications/read-all", h.Notification.MarkAllRead)
		admin.POST("/notifications/:id/read", h.Notification.MarkRead)
		admin.DELETE("/notifications/:id", h.Notification.Delete)
	}
}
