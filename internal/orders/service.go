package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const ResourceOrder = "order"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type orderRecorder interface {
	ObserveOrderCreated(lines int, duration time.Duration)
	ObserveStatusChange(from, to string)
}

// Service assembles orders from carts and drives their status lifecycle.
type Service interface {
	CreateOrder(ctx context.Context, shopperID uuid.UUID, input CreateOrderInput) (*OrderView, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status, detail string) (*OrderView, error)
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
	GetOrderDetail(ctx context.Context, orderID uuid.UUID) (*OrderView, error)
	GetOrderForShopper(ctx context.Context, shopperID, orderID uuid.UUID) (*OrderView, error)
	ListOrdersForShopper(ctx context.Context, shopperID uuid.UUID, params pagination.Params) (*pagination.Page[OrderView], error)
	ListAllOrders(ctx context.Context, params pagination.Params) (*pagination.Page[OrderView], error)
}

// ServiceParams wires the order service.
type ServiceParams struct {
	Tx                   txRunner
	Repo                 Repository
	Carts                cart.Store
	Catalog              catalog.Provider
	Outbox               outboxEmitter
	Logger               *logger.Logger
	Metrics              orderRecorder
	DecrementOnCheckout  bool
	DefaultShippingPrice decimal.Decimal
}

type service struct {
	tx              txRunner
	repo            Repository
	carts           cart.Store
	catalog         catalog.Provider
	outbox          outboxEmitter
	logg            *logger.Logger
	metrics         orderRecorder
	decrement       bool
	defaultShipping decimal.Decimal
}

// NewService builds the order service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog provider required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DefaultShippingPrice.IsNegative() {
		return nil, fmt.Errorf("default shipping price must be non-negative")
	}
	recorder := params.Metrics
	if recorder == nil {
		recorder = (*metrics.StorefrontMetrics)(nil)
	}
	return &service{
		tx:              params.Tx,
		repo:            params.Repo,
		carts:           params.Carts,
		catalog:         params.Catalog,
		outbox:          params.Outbox,
		logg:            params.Logger,
		metrics:         recorder,
		decrement:       params.DecrementOnCheckout,
		defaultShipping: params.DefaultShippingPrice,
	}, nil
}

// UpdateStatus moves an order along the lifecycle and records the detail text.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status, detail string) (*OrderView, error) {
	next, err := enums.ParseOrderStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidStatus, err, "unknown order status").
			WithDetails(map[string]any{"status": status, "allowed": enums.OrderStatuses()})
	}
	detail = strings.TrimSpace(detail)
	if detail == "" {
		detail = DefaultDetail(next)
	}

	var (
		previous enums.OrderStatus
		view     OrderView
	)
	err = s.inTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderForUpdate(ctx, orderID)
		if err != nil {
			return mapOrderErr(err)
		}
		previous = order.Status
		if !CanTransition(order.Status, next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", order.Status, next)).
				WithDetails(map[string]any{"from": order.Status, "to": next, "allowed": NextStatuses(order.Status)})
		}
		if err := repo.UpdateStatus(ctx, orderID, next, detail); err != nil {
			return mapOrderErr(err)
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:        order.ID,
				UserID:         order.UserID,
				PreviousStatus: previous,
				Status:         next,
				StatusDetail:   detail,
			},
		}); err != nil {
			return err
		}
		updated, err := repo.FindOrder(ctx, orderID)
		if err != nil {
			return mapOrderErr(err)
		}
		view = toOrderView(*updated)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveStatusChange(previous.String(), next.String())
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id": orderID.String(),
		"from":     previous,
		"to":       next,
	})
	s.logg.Info(logCtx, "order status updated")
	return &view, nil
}

// DeleteOrder removes an order and its lines.
func (s *service) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrderForUpdate(ctx, orderID)
		if err != nil {
			return mapOrderErr(err)
		}
		if err := repo.DeleteOrder(ctx, orderID); err != nil {
			return mapOrderErr(err)
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderDeleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderDeletedEvent{
				OrderID: order.ID,
				UserID:  order.UserID,
				Status:  order.Status,
			},
		})
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "order_id", orderID.String()), "order deleted")
	return nil
}

func (s *service) GetOrderDetail(ctx context.Context, orderID uuid.UUID) (*OrderView, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, mapOrderErr(err)
	}
	view := toOrderView(*order)
	return &view, nil
}

// GetOrderForShopper hides orders owned by someone else behind NotFound.
func (s *service) GetOrderForShopper(ctx context.Context, shopperID, orderID uuid.UUID) (*OrderView, error) {
	if shopperID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotProvisioned, "shopper identity missing")
	}
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, mapOrderErr(err)
	}
	if order.UserID != shopperID {
		return nil, pkgerrors.NotFound(ResourceOrder, "order not found")
	}
	view := toOrderView(*order)
	return &view, nil
}

func (s *service) ListOrdersForShopper(ctx context.Context, shopperID uuid.UUID, params pagination.Params) (*pagination.Page[OrderView], error) {
	if shopperID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotProvisioned, "shopper identity missing")
	}
	return s.list(ctx, &shopperID, params)
}

func (s *service) ListAllOrders(ctx context.Context, params pagination.Params) (*pagination.Page[OrderView], error) {
	return s.list(ctx, nil, params)
}

func (s *service) list(ctx context.Context, userID *uuid.UUID, params pagination.Params) (*pagination.Page[OrderView], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListOrders(ctx, userID, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "list orders")
	}
	items := make([]OrderView, 0, len(rows))
	for _, row := range rows {
		items = append(items, toOrderView(row))
	}
	items, next := pagination.Split(items, params.Limit, func(v OrderView) pagination.Cursor {
		return pagination.Cursor{CreatedAt: v.CreatedAt, ID: v.ID}
	})
	return &pagination.Page[OrderView]{Items: items, NextCursor: next}, nil
}

func (s *service) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return pkgerrors.Persistence(s.tx.WithTx(ctx, fn), "order transaction")
}

func mapOrderErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.NotFound(ResourceOrder, "order not found")
	}
	return pkgerrors.Persistence(err, "order store")
}
