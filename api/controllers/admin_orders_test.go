package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordersvc "github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

func adminRequest(method, target, body string, orderID string) *http.Request {
	params := map[string]string{}
	if orderID != "" {
		params["orderID"] = orderID
	}
	return shopperRequest(method, target, body, uuid.New(), params)
}

func TestAdminOrderList(t *testing.T) {
	svc := &stubOrderService{page: &pagination.Page[ordersvc.OrderView]{}}

	rec := httptest.NewRecorder()
	AdminOrderList(svc, testLogger()).ServeHTTP(rec, adminRequest(http.MethodGet, "/api/admin/v1/orders", "", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pagination.DefaultLimit, svc.params.Limit)
}

func TestAdminOrderDetailInvalidID(t *testing.T) {
	svc := &stubOrderService{}

	rec := httptest.NewRecorder()
	AdminOrderDetail(svc, testLogger()).ServeHTTP(rec, adminRequest(http.MethodGet, "/api/admin/v1/orders/bad", "", "bad"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, uuid.Nil, svc.orderID)
}

func TestAdminOrderUpdateStatus(t *testing.T) {
	orderID := uuid.New()

	t.Run("sanitizes detail", func(t *testing.T) {
		svc := &stubOrderService{view: &ordersvc.OrderView{ID: orderID, Status: enums.OrderStatusShipped}}
		body := `{"status":"shipped","status_detail":"  Tracking 1Z999  "}`

		rec := httptest.NewRecorder()
		AdminOrderUpdateStatus(svc, testLogger()).ServeHTTP(rec, adminRequest(http.MethodPatch, "/api/admin/v1/orders/x/status", body, orderID.String()))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, orderID, svc.orderID)
		assert.Equal(t, "shipped", svc.status)
		assert.Equal(t, "Tracking 1Z999", svc.detail)
	})

	t.Run("truncates long detail", func(t *testing.T) {
		svc := &stubOrderService{view: &ordersvc.OrderView{ID: orderID}}
		body := `{"status":"processing","status_detail":"` + strings.Repeat("a", maxStatusDetailLen+20) + `"}`

		rec := httptest.NewRecorder()
		AdminOrderUpdateStatus(svc, testLogger()).ServeHTTP(rec, adminRequest(http.MethodPatch, "/api/admin/v1/orders/x/status", body, orderID.String()))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, svc.detail, maxStatusDetailLen)
	})

	t.Run("missing status", func(t *testing.T) {
		svc := &stubOrderService{}

		rec := httptest.NewRecorder()
		AdminOrderUpdateStatus(svc, testLogger()).ServeHTTP(rec, adminRequest(http.MethodPatch, "/api/admin/v1/orders/x/status", `{"status_detail":"x"}`, orderID.String()))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, string(pkgerrors.CodeValidation), decodeErrorCode(t, rec))
	})

	t.Run("illegal transition", func(t *testing.T) {
		svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed")}

		rec := httptest.NewRecorder()
		AdminOrderUpdateStatus(svc, testLogger()).ServeHTTP(rec, adminRequest(http.MethodPatch, "/api/admin/v1/orders/x/status", `{"status":"pending"}`, orderID.String()))

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, string(pkgerrors.CodeStateConflict), decodeErrorCode(t, rec))
	})

	t.Run("unknown status", func(t *testing.T) {
		svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeInvalidStatus, "unknown order status")}

		rec := httptest.NewRecorder()
		AdminOrderUpdateStatus(svc, testLogger()).ServeHTTP(rec, adminRequest(http.MethodPatch, "/api/admin/v1/orders/x/status", `{"status":"lost"}`, orderID.String()))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, string(pkgerrors.CodeInvalidStatus), decodeErrorCode(t, rec))
	})
}

func TestAdminOrderDelete(t *testing.T) {
	orderID := uuid.New()

	t.Run("deleted", func(t *testing.T) {
		svc := &stubOrderService{}
		rec := httptest.NewRecorder()
		AdminOrderDelete(svc, testLogger()).ServeHTTP(rec, adminRequest(http.MethodDelete, "/api/admin/v1/orders/x", "", orderID.String()))

		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, svc.deleted)
	})

	t.Run("missing", func(t *testing.T) {
		svc := &stubOrderService{err: pkgerrors.NotFound(ordersvc.ResourceOrder, "order not found")}
		rec := httptest.NewRecorder()
		AdminOrderDelete(svc, testLogger()).ServeHTTP(rec, adminRequest(http.MethodDelete, "/api/admin/v1/orders/x", "", orderID.String()))

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}
