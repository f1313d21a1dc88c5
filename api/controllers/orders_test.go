package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordersvc "github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type stubOrderService struct {
	shopperID uuid.UUID
	orderID   uuid.UUID
	input     ordersvc.CreateOrderInput
	params    pagination.Params
	status    string
	detail    string
	deleted   bool
	view      *ordersvc.OrderView
	page      *pagination.Page[ordersvc.OrderView]
	err       error
}

func (s *stubOrderService) CreateOrder(ctx context.Context, shopperID uuid.UUID, input ordersvc.CreateOrderInput) (*ordersvc.OrderView, error) {
	s.shopperID, s.input = shopperID, input
	return s.view, s.err
}

func (s *stubOrderService) GetOrderForShopper(ctx context.Context, shopperID, orderID uuid.UUID) (*ordersvc.OrderView, error) {
	s.shopperID, s.orderID = shopperID, orderID
	return s.view, s.err
}

func (s *stubOrderService) ListOrdersForShopper(ctx context.Context, shopperID uuid.UUID, params pagination.Params) (*pagination.Page[ordersvc.OrderView], error) {
	s.shopperID, s.params = shopperID, params
	return s.page, s.err
}

func (s *stubOrderService) ListAllOrders(ctx context.Context, params pagination.Params) (*pagination.Page[ordersvc.OrderView], error) {
	s.params = params
	return s.page, s.err
}

func (s *stubOrderService) GetOrderDetail(ctx context.Context, orderID uuid.UUID) (*ordersvc.OrderView, error) {
	s.orderID = orderID
	return s.view, s.err
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status, detail string) (*ordersvc.OrderView, error) {
	s.orderID, s.status, s.detail = orderID, status, detail
	return s.view, s.err
}

func (s *stubOrderService) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	s.orderID, s.deleted = orderID, true
	return s.err
}

func TestOrderCreate(t *testing.T) {
	shopperID := uuid.New()
	lineID := uuid.New()
	svc := &stubOrderService{view: &ordersvc.OrderView{ID: uuid.New(), Status: enums.OrderStatusPending}}
	body := `{
		"line_ids": ["` + lineID.String() + `"],
		"shipping_address": {"first_name":"Ada","last_name":"Lovelace","phone":"555","city":"London","street":"1 Main","area":"North"},
		"shipping_price": "4.99"
	}`

	rec := httptest.NewRecorder()
	OrderCreate(svc, testLogger()).ServeHTTP(rec, shopperRequest(http.MethodPost, "/api/v1/orders", body, shopperID, nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, shopperID, svc.shopperID)
	assert.Equal(t, []uuid.UUID{lineID}, svc.input.LineIDs)
	assert.Equal(t, "London", svc.input.Address.City)
	require.NotNil(t, svc.input.ShippingPrice)
	assert.True(t, svc.input.ShippingPrice.Equal(decimal.RequireFromString("4.99")))
}

func TestOrderCreateWithoutShippingUsesDefault(t *testing.T) {
	svc := &stubOrderService{view: &ordersvc.OrderView{ID: uuid.New()}}
	body := `{"line_ids":["` + uuid.NewString() + `"],"shipping_address":{}}`

	rec := httptest.NewRecorder()
	OrderCreate(svc, testLogger()).ServeHTTP(rec, shopperRequest(http.MethodPost, "/api/v1/orders", body, uuid.New(), nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, svc.input.ShippingPrice)
}

func TestOrderCreateSurfacesAddressErrors(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeInvalidAddress, "shipping address incomplete").
		WithDetails(map[string]any{"fields": map[string]string{"city": "required"}})}
	body := `{"line_ids":["` + uuid.NewString() + `"],"shipping_address":{"first_name":"Ada"}}`

	rec := httptest.NewRecorder()
	OrderCreate(svc, testLogger()).ServeHTTP(rec, shopperRequest(http.MethodPost, "/api/v1/orders", body, uuid.New(), nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeInvalidAddress), decodeErrorCode(t, rec))
}

func TestOrderCreateRejectsUnknownFields(t *testing.T) {
	svc := &stubOrderService{}
	body := `{"line_ids":[],"coupon":"FREE"}`

	rec := httptest.NewRecorder()
	OrderCreate(svc, testLogger()).ServeHTTP(rec, shopperRequest(http.MethodPost, "/api/v1/orders", body, uuid.New(), nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, uuid.Nil, svc.shopperID)
}

func TestOrderListPassesPagination(t *testing.T) {
	shopperID := uuid.New()
	svc := &stubOrderService{page: &pagination.Page[ordersvc.OrderView]{
		Items:      []ordersvc.OrderView{{ID: uuid.New()}},
		NextCursor: "next",
	}}

	rec := httptest.NewRecorder()
	OrderList(svc, testLogger()).ServeHTTP(rec, shopperRequest(http.MethodGet, "/api/v1/orders?limit=5&cursor=abc", "", shopperID, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pagination.Params{Limit: 5, Cursor: "abc"}, svc.params)

	var envelope struct {
		Data pagination.Page[ordersvc.OrderView] `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Len(t, envelope.Data.Items, 1)
	assert.Equal(t, "next", envelope.Data.NextCursor)
}

func TestOrderListRejectsOutOfRangeLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	OrderList(&stubOrderService{}, testLogger()).ServeHTTP(rec, shopperRequest(http.MethodGet, "/api/v1/orders?limit=1000", "", uuid.New(), nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderDetail(t *testing.T) {
	shopperID := uuid.New()
	orderID := uuid.New()

	t.Run("found", func(t *testing.T) {
		svc := &stubOrderService{view: &ordersvc.OrderView{ID: orderID}}
		rec := httptest.NewRecorder()
		OrderDetail(svc, testLogger()).ServeHTTP(rec, shopperRequest(http.MethodGet, "/api/v1/orders/x", "", shopperID, map[string]string{"orderID": orderID.String()}))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, orderID, svc.orderID)
		assert.Equal(t, shopperID, svc.shopperID)
	})

	t.Run("other shopper", func(t *testing.T) {
		svc := &stubOrderService{err: pkgerrors.NotFound(ordersvc.ResourceOrder, "order not found")}
		rec := httptest.NewRecorder()
		OrderDetail(svc, testLogger()).ServeHTTP(rec, shopperRequest(http.MethodGet, "/api/v1/orders/x", "", shopperID, map[string]string{"orderID": orderID.String()}))

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}
