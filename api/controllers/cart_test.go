package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type stubCartService struct {
	addInput  cartsvc.AddLineInput
	shopperID uuid.UUID
	lineID    uuid.UUID
	increased bool
	decreased bool
	removed   bool
	cleared   bool
	view      *cartsvc.CartView
	line      *cartsvc.LineView
	err       error
}

func (s *stubCartService) AddOrMergeLine(ctx context.Context, shopperID uuid.UUID, input cartsvc.AddLineInput) (*cartsvc.LineView, error) {
	s.shopperID = shopperID
	s.addInput = input
	return s.line, s.err
}

func (s *stubCartService) IncreaseQuantity(ctx context.Context, shopperID, lineID uuid.UUID) (*cartsvc.LineView, error) {
	s.shopperID, s.lineID, s.increased = shopperID, lineID, true
	return s.line, s.err
}

func (s *stubCartService) DecreaseQuantity(ctx context.Context, shopperID, lineID uuid.UUID) (*cartsvc.LineView, error) {
	s.shopperID, s.lineID, s.decreased = shopperID, lineID, true
	return s.line, s.err
}

func (s *stubCartService) RemoveLine(ctx context.Context, shopperID, lineID uuid.UUID) error {
	s.shopperID, s.lineID, s.removed = shopperID, lineID, true
	return s.err
}

func (s *stubCartService) ClearCart(ctx context.Context, shopperID uuid.UUID) error {
	s.shopperID, s.cleared = shopperID, true
	return s.err
}

func (s *stubCartService) GetCartView(ctx context.Context, shopperID uuid.UUID) (*cartsvc.CartView, error) {
	s.shopperID = shopperID
	return s.view, s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func shopperRequest(method, target, body string, shopperID uuid.UUID, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := req.Context()
	if shopperID != uuid.Nil {
		ctx = middleware.WithUserID(ctx, shopperID.String())
	}
	routeCtx := chi.NewRouteContext()
	for k, v := range params {
		routeCtx.URLParams.Add(k, v)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	return req.WithContext(ctx)
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope.Error.Code
}

func TestCartFetchSuccess(t *testing.T) {
	shopperID := uuid.New()
	svc := &stubCartService{view: &cartsvc.CartView{ID: uuid.New(), TotalPrice: decimal.RequireFromString("12.50")}}

	rec := httptest.NewRecorder()
	CartFetch(svc, testLogger()).ServeHTTP(rec, shopperRequest(http.MethodGet, "/api/v1/cart", "", shopperID, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, shopperID, svc.shopperID)

	var envelope struct {
		Data cartsvc.CartView `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, svc.view.ID, envelope.Data.ID)
	assert.True(t, envelope.Data.TotalPrice.Equal(decimal.RequireFromString("12.5")))
}

func TestCartFetchMissingUser(t *testing.T) {
	rec := httptest.NewRecorder()
	CartFetch(&stubCartService{}, testLogger()).ServeHTTP(rec, shopperRequest(http.MethodGet, "/api/v1/cart", "", uuid.Nil, nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartFetchNilService(t *testing.T) {
	rec := httptest.NewRecorder()
	CartFetch(nil, testLogger()).ServeHTTP(rec, shopperRequest(http.MethodGet, "/api/v1/cart", "", uuid.New(), nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCartAddLinePassesColorNameVerbatim(t *testing.T) {
	shopperID := uuid.New()
	productID := uuid.New()
	svc := &stubCartService{line: &cartsvc.LineView{ID: uuid.New(), ProductID: productID, Quantity: 2}}
	body := `{"product_id":"` + productID.String() + `","color_name":"  red ","quantity":2}`

	rec := httptest.NewRecorder()
	CartAddLine(svc, testLogger()).ServeHTTP(rec, shopperRequest(http.MethodPost, "/api/v1/cart/lines", body, shopperID, nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, productID, svc.addInput.ProductID)
	assert.Equal(t, "  red ", svc.addInput.ColorName)
	assert.Equal(t, 2, svc.addInput.Quantity)
}

func TestCartAddLineRejectsMissingColor(t *testing.T) {
	body := `{"product_id":"` + uuid.NewString() + `","quantity":1}`

	rec := httptest.NewRecorder()
	CartAddLine(&stubCartService{}, testLogger()).ServeHTTP(rec, shopperRequest(http.MethodPost, "/api/v1/cart/lines", body, uuid.New(), nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), decodeErrorCode(t, rec))
}

func TestCartAddLineSurfacesInventoryConflict(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeInsufficientInventory, "only 3 left")}
	body := `{"product_id":"` + uuid.NewString() + `","color_name":"red","quantity":5}`

	rec := httptest.NewRecorder()
	CartAddLine(svc, testLogger()).ServeHTTP(rec, shopperRequest(http.MethodPost, "/api/v1/cart/lines", body, uuid.New(), nil))

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeInsufficientInventory), decodeErrorCode(t, rec))
}

func TestCartLineMutations(t *testing.T) {
	shopperID := uuid.New()
	lineID := uuid.New()
	params := map[string]string{"lineID": lineID.String()}

	t.Run("increase", func(t *testing.T) {
		svc := &stubCartService{line: &cartsvc.LineView{ID: lineID, Quantity: 3}}
		rec := httptest.NewRecorder()
		CartIncreaseLine(svc, testLogger()).ServeHTTP(rec, shopperRequest(http.MethodPost, "/api/v1/cart/lines/x/increase", "", shopperID, params))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, svc.increased)
		assert.Equal(t, lineID, svc.lineID)
	})

	t.Run("decrease below one", func(t *testing.T) {
		svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeInvalidQuantity, "cannot decrease below one")}
		rec := httptest.NewRecorder()
		CartDecreaseLine(svc, testLogger()).ServeHTTP(rec, shopperRequest(http.MethodPost, "/api/v1/cart/lines/x/decrease", "", shopperID, params))

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.True(t, svc.decreased)
	})

	t.Run("remove", func(t *testing.T) {
		svc := &stubCartService{}
		rec := httptest.NewRecorder()
		CartRemoveLine(svc, testLogger()).ServeHTTP(rec, shopperRequest(http.MethodDelete, "/api/v1/cart/lines/x", "", shopperID, params))

		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, svc.removed)
	})

	t.Run("invalid line id", func(t *testing.T) {
		svc := &stubCartService{}
		rec := httptest.NewRecorder()
		CartIncreaseLine(svc, testLogger()).ServeHTTP(rec, shopperRequest(http.MethodPost, "/api/v1/cart/lines/x/increase", "", shopperID, map[string]string{"lineID": "nope"}))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, svc.increased)
	})

	t.Run("nil service", func(t *testing.T) {
		rec := httptest.NewRecorder()
		CartDecreaseLine(nil, testLogger()).ServeHTTP(rec, shopperRequest(http.MethodPost, "/api/v1/cart/lines/x/decrease", "", shopperID, params))

		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestCartClear(t *testing.T) {
	shopperID := uuid.New()
	svc := &stubCartService{}

	rec := httptest.NewRecorder()
	CartClear(svc, testLogger()).ServeHTTP(rec, shopperRequest(http.MethodDelete, "/api/v1/cart", "", shopperID, nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, svc.cleared)
	assert.Equal(t, shopperID, svc.shopperID)
}
