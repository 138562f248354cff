package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BryServices/auradhom-v2/internal/application/notification"
	domain "github.com/BryServices/auradhom-v2/internal/domain/notification"
	"github.com/BryServices/auradhom-v2/pkg/logger"
)

type NotificationHandler struct {
	relay *notification.Relay
	log   logger.Logger
	// reload before reads when another process writes notifications
	reload bool
}

func NewNotificationHandler(relay *notification.Relay, reload bool, log logger.Logger) *NotificationHandler {
	return &NotificationHandler{relay: relay, reload: reload, log: log}
}

type createNotificationRequest struct {
	Kind    string `json:"kind" binding:"required,oneof=new_order info success error"`
	Message string `json:"message" binding:"required"`
	OrderID string `json:"order_id"`
}

func (h *NotificationHandler) sync(c *gin.Context) {
	if !h.reload {
		return
	}
	if err := h.relay.Reload(c.Request.Context()); err != nil {
		h.log.WithContext(c.Request.Context()).Warn("notification reload failed", logger.Error(err))
	}
}

func (h *NotificationHandler) List(c *gin.Context) {
	h.sync(c)
	c.JSON(http.StatusOK, gin.H{
		"items":  h.relay.List(),
		"unread": h.relay.UnreadCount(),
	})
}

func (h *NotificationHandler) Create(c *gin.Context) {
	var req createNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	n, err := h.relay.Create(c.Request.Context(), domain.Kind(req.Kind), req.Message, req.OrderID)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	h.sync(c)
	if err := h.relay.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		h.notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": h.relay.UnreadCount()})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	h.sync(c)
	flipped := h.relay.MarkAllRead(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"updated": flipped, "unread": h.relay.UnreadCount()})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	h.sync(c)
	if err := h.relay.Remove(c.Request.Context(), c.Param("id")); err != nil {
		h.notFoundOr500(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) notFoundOr500(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		respondError(c, http.StatusNotFound, err.Error())
		return
	}
	respondError(c, http.StatusInternalServerError, err.Error())
}
