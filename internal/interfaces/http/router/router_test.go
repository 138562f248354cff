package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BryServices/auradhom-v2/internal/application/backup"
	"github.com/BryServices/auradhom-v2/internal/application/notification"
	app "github.com/BryServices/auradhom-v2/internal/application/order"
	"github.com/BryServices/auradhom-v2/internal/domain/order"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/encoding/avro"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/persistence"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/persistence/gateway/gatewaytest"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/persistence/local"
	"github.com/BryServices/auradhom-v2/internal/interfaces/http/handler"
	"github.com/BryServices/auradhom-v2/pkg/logger"
)

type testAPI struct {
	engine *gin.Engine
	gw     *gatewaytest.Faulty
	relay  *notification.Relay
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	log := logger.NewNop()

	gw := gatewaytest.NewFaulty(local.NewMemory())
	svc := app.NewService(persistence.NewOrderRepository(gw, log), app.NewEventBus(log), log, app.Options{WriteTimeout: time.Second})

	enc, err := avro.NewOrderEncoder()
	require.NoError(t, err)
	exporter := backup.NewExporter(persistence.NewBackupRepository(local.NewMemory()), enc, log)
	relay, err := notification.NewRelay(ctx, persistence.NewNotificationRepository(local.NewMemory()), log)
	require.NoError(t, err)
	svc.Subscribe(exporter)
	svc.Subscribe(relay)

	r := gin.New()
	RegisterRoutes(r, Handlers{
		Order:        handler.NewOrderHandler(svc, log),
		Admin:        handler.NewAdminHandler(svc, exporter, log),
		Notification: handler.NewNotificationHandler(relay, false, log),
		Events:       handler.NewEventStream(),
		Health:       handler.NewHealthHandler(gw.Name()),
	})
	return &testAPI{engine: r, gw: gw, relay: relay}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func checkoutBody() map[string]any {
	return map[string]any{
		"customer": map[string]any{
			"first_name": "Grace",
			"last_name":  "Mabiala",
			"city":       "Brazzaville",
			"phone":      "+242 06 123 4567",
		},
		"line_items": []map[string]any{
			{"product_id": "tee", "product_name": "Tee", "quantity": 1, "unit_price": "10000", "variant": map[string]string{"size": "M"}},
			{"product_id": "cap", "product_name": "Cap", "quantity": 2, "unit_price": 5000},
		},
		"shipping_cost": 0,
	}
}

type createdResponse struct {
	Order        order.Order `json:"order"`
	WhatsAppLink string      `json:"whatsapp_link"`
	SyncStatus   string      `json:"sync_status"`
}

func (a *testAPI) create(t *testing.T) order.Order {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/orders", checkoutBody(), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp createdResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Order
}

func TestCreateOrder(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/orders", checkoutBody(), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp createdResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, order.StatusPending, resp.Order.Status)
	assert.Equal(t, "20000", resp.Order.Total.String())
	assert.Contains(t, resp.WhatsAppLink, "https://wa.me/242061234567?text=")

	got := api.do(t, http.MethodGet, "/api/orders/"+resp.Order.ID, nil, nil)
	assert.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/api/orders/missing", nil, nil).Code)
}

func TestCreateOrder_Validation(t *testing.T) {
	api := newTestAPI(t)

	body := checkoutBody()
	body["line_items"] = []map[string]any{}
	w := api.do(t, http.MethodPost, "/api/orders", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "details")

	body = checkoutBody()
	body["shipping_cost"] = -5
	w = api.do(t, http.MethodPost, "/api/orders", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "shipping_cost")
}

func TestCreateOrder_IdempotencyKey(t *testing.T) {
	api := newTestAPI(t)
	headers := map[string]string{handler.HeaderIdempotencyKey: "ADH-CART-77"}

	first := api.do(t, http.MethodPost, "/api/orders", checkoutBody(), headers)
	require.Equal(t, http.StatusCreated, first.Code)

	second := api.do(t, http.MethodPost, "/api/orders", checkoutBody(), headers)
	assert.Equal(t, http.StatusConflict, second.Code)
	assert.Contains(t, second.Body.String(), "ADH-CART-77")
}

func TestCreateOrder_DegradedReturns202(t *testing.T) {
	api := newTestAPI(t)
	api.gw.FailOn("put", errors.New("connection refused"))

	w := api.do(t, http.MethodPost, "/api/orders", checkoutBody(), nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp createdResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sync_pending", resp.SyncStatus)
	assert.Equal(t, order.SyncPendingSync, resp.Order.SyncStatus)

	stats := api.do(t, http.MethodGet, "/api/admin/orders/stats", nil, nil)
	assert.Contains(t, stats.Body.String(), `"unsynced":1`)

	api.gw.Heal()
	resync := api.do(t, http.MethodPost, "/api/admin/orders/resync", nil, nil)
	assert.Contains(t, resync.Body.String(), `"synced":1`)
}

func TestAdminTransitions(t *testing.T) {
	api := newTestAPI(t)
	o := api.create(t)

	w := api.do(t, http.MethodPost, "/api/admin/orders/"+o.ID+"/reject", map[string]string{"reason": ""}, map[string]string{handler.HeaderAdminActor: "Alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/api/admin/orders/"+o.ID+"/validate", nil, map[string]string{handler.HeaderAdminActor: "Alice"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var validated order.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &validated))
	assert.Equal(t, "Alice", validated.ValidatedBy)

	w = api.do(t, http.MethodPost, "/api/admin/orders/"+o.ID+"/reject", map[string]string{"rejected_by": "Bob", "reason": "late"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(t, http.MethodPost, "/api/admin/orders/missing/validate", map[string]string{"validated_by": "Alice"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodGet, "/api/admin/orders?status=validated", nil, nil)
	assert.Contains(t, w.Body.String(), `"count":1`)
	w = api.do(t, http.MethodGet, "/api/admin/orders?status=shipped", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = api.do(t, http.MethodGet, "/api/admin/orders?from=yesterday", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminTransitions_PersistenceFailure(t *testing.T) {
	api := newTestAPI(t)
	o := api.create(t)
	api.gw.FailOn("move", errors.New("timeout"))

	w := api.do(t, http.MethodPost, "/api/admin/orders/"+o.ID+"/validate", map[string]string{"validated_by": "Alice"}, nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = api.do(t, http.MethodGet, "/api/admin/orders?status=pending", nil, nil)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestExport(t *testing.T) {
	api := newTestAPI(t)
	api.create(t)

	w := api.do(t, http.MethodGet, "/api/admin/orders/export", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "orders-")
	assert.Contains(t, w.Body.String(), `"totalOrders":1`)

	w = api.do(t, http.MethodGet, "/api/admin/orders/export?format=avro", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".avro")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("Obj\x01")))

	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/api/admin/orders/export?format=xml", nil, nil).Code)
}

func TestWhatsApp(t *testing.T) {
	api := newTestAPI(t)
	o := api.create(t)

	w := api.do(t, http.MethodGet, "/api/admin/orders/"+o.ID+"/whatsapp", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "wa.me/242061234567")
}

func TestNotifications(t *testing.T) {
	api := newTestAPI(t)
	api.create(t)
	api.create(t)

	w := api.do(t, http.MethodGet, "/api/admin/notifications", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
		Unread int `json:"unread"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Items, 2)
	assert.Equal(t, 2, list.Unread)

	w = api.do(t, http.MethodPost, "/api/admin/notifications/"+list.Items[0].ID+"/read", nil, nil)
	assert.Contains(t, w.Body.String(), `"unread":1`)

	w = api.do(t, http.MethodPost, "/api/admin/notifications/read-all", nil, nil)
	assert.Contains(t, w.Body.String(), `"unread":0`)

	w = api.do(t, http.MethodPost, "/api/admin/notifications", map[string]string{"kind": "alert", "message": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = api.do(t, http.MethodPost, "/api/admin/notifications", map[string]string{"kind": "info", "message": "stock imported"}, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodDelete, "/api/admin/notifications/"+list.Items[1].ID, nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, "/api/admin/notifications/"+list.Items[1].ID, nil, nil).Code)
	assert.Equal(t, 1, api.relay.UnreadCount())
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"backend":"local"`)
}
