package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BryServices/auradhom-v2/internal/application/backup"
	app "github.com/BryServices/auradhom-v2/internal/application/order"
	"github.com/BryServices/auradhom-v2/internal/domain/order"
	"github.com/BryServices/auradhom-v2/pkg/logger"
)

// HeaderAdminActor carries the admin identity set by the auth proxy.
const HeaderAdminActor = "X-Admin-Actor"

type AdminHandler struct {
	svc      *app.Service
	exporter *backup.Exporter
	log      logger.Logger
}

func NewAdminHandler(svc *app.Service, exporter *backup.Exporter, log logger.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, exporter: exporter, log: log}
}

type validateRequest struct {
	ValidatedBy string `json:"validated_by"`
}

type rejectRequest struct {
	RejectedBy string `json:"rejected_by"`
	Reason     string `json:"reason"`
}

// bindOptional accepts an empty body.
func bindOptional(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func actor(c *gin.Context, fromBody string) string {
	if strings.TrimSpace(fromBody) != "" {
		return fromBody
	}
	return c.GetHeader(HeaderAdminActor)
}

func (h *AdminHandler) ListOrders(c *gin.Context) {
	criteria, err := parseCriteria(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	orders := h.svc.FilterOrders(criteria)
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

func parseCriteria(c *gin.Context) (order.Criteria, error) {
	var crit order.Criteria
	if raw := c.Query("status"); raw != "" {
		s, err := order.ParseStatus(raw)
		if err != nil {
			return crit, err
		}
		crit.Status = s
	}
	for key, dst := range map[string]**time.Time{"from": &crit.From, "to": &crit.To} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return crit, fmt.Errorf("%s must be RFC3339: %w", key, err)
		}
		*dst = &t
	}
	crit.OrderNumber = c.Query("order_number")
	crit.CustomerName = c.Query("customer")
	return crit, nil
}

func (h *AdminHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Counts())
}

func (h *AdminHandler) ValidateOrder(c *gin.Context) {
	var req validateRequest
	if err := bindOptional(c, &req); err != nil {
		respondBindError(c, err)
		return
	}
	o, err := h.svc.ValidateOrder(c.Request.Context(), c.Param("id"), actor(c, req.ValidatedBy))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *AdminHandler) RejectOrder(c *gin.Context) {
	var req rejectRequest
	if err := bindOptional(c, &req); err != nil {
		respondBindError(c, err)
		return
	}
	o, err := h.svc.RejectOrder(c.Request.Context(), c.Param("id"), actor(c, req.RejectedBy), req.Reason)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *AdminHandler) Resync(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Resync(c.Request.Context()))
}

func (h *AdminHandler) Refresh(c *gin.Context) {
	if err := h.svc.RefreshFromStore(c.Request.Context()); err != nil {
		h.log.WithContext(c.Request.Context()).Error("refresh from store failed", logger.Error(err))
		respondError(c, http.StatusServiceUnavailable, err.Error())
		return
	}
	c.JSON(http.StatusOK, h.svc.Counts())
}

// Export downloads the backup as JSON (default) or an Avro container.
func (h *AdminHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()
	switch format := c.DefaultQuery("format", "json"); format {
	case "json":
		snap, err := h.exporter.ExportAll(ctx)
		if err != nil {
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, snap.FileName()))
		c.JSON(http.StatusOK, snap)
	case "avro":
		var buf bytes.Buffer
		if _, err := h.exporter.ExportAvro(ctx, &buf); err != nil {
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		name := fmt.Sprintf("orders-%s.avro", time.Now().UTC().Format("2006-01-02"))
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
		c.Data(http.StatusOK, "application/avro", buf.Bytes())
	default:
		respondError(c, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
	}
}

func (h *AdminHandler) WhatsApp(c *gin.Context) {
	o, ok := h.svc.GetOrder(c.Request.Context(), c.Param("id"))
	if !ok {
		respondError(c, http.StatusNotFound, "order not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id": o.ID,
		"phone":    o.Customer.Phone,
		"message":  o.OutboundMessage,
		"link":     o.WhatsAppLink(),
	})
}
