package orders

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

// CreateOrderInput selects cart lines for checkout. A nil ShippingPrice uses the configured default.
type CreateOrderInput struct {
	LineIDs       []uuid.UUID
	Address       Address
	ShippingPrice *decimal.Decimal
}

// Normalize trims every address field.
func (a Address) Normalize() Address {
	return Address{
		FirstName: strings.TrimSpace(a.FirstName),
		LastName:  strings.TrimSpace(a.LastName),
		Phone:     strings.TrimSpace(a.Phone),
		City:      strings.TrimSpace(a.City),
		Street:    strings.TrimSpace(a.Street),
		Area:      strings.TrimSpace(a.Area),
	}
}

// Validate reports every missing shipping field at once.
func (a Address) Validate() error {
	missing := map[string]string{}
	fields := []struct {
		name  string
		value string
	}{
		{"first_name", a.FirstName},
		{"last_name", a.LastName},
		{"phone", a.Phone},
		{"city", a.City},
		{"street", a.Street},
		{"area", a.Area},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing[f.name] = "required"
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeInvalidAddress, "shipping address is incomplete").
		WithDetails(map[string]any{"fields": missing})
}

// CreateOrder turns the selected cart lines into a pending order. The order,
// its lines, the removal of the cart lines and the outbox event commit together.
func (s *service) CreateOrder(ctx context.Context, shopperID uuid.UUID, input CreateOrderInput) (*OrderView, error) {
	started := time.Now()
	if shopperID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotProvisioned, "shopper identity missing")
	}
	address := input.Address.Normalize()
	if err := address.Validate(); err != nil {
		return nil, err
	}
	shipping := s.defaultShipping
	if input.ShippingPrice != nil {
		shipping = *input.ShippingPrice
	}
	if shipping.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping price must be non-negative").
			WithDetails(map[string]any{"shipping_price": shipping.String()})
	}
	if len(input.LineIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNoLinesSelected, "no cart lines selected")
	}

	var view OrderView
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		products := s.catalog.WithTx(tx)

		shopperCart, err := carts.FindCart(ctx, shopperID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Resource() == cart.ResourceCart {
				return pkgerrors.New(pkgerrors.CodeNoLinesSelected, "no cart lines selected")
			}
			return err
		}
		lines, err := carts.FindLinesByIDs(ctx, shopperCart.ID, input.LineIDs)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeNoLinesSelected, "none of the selected lines are in the cart")
		}

		order := models.Order{
			UserID:        shopperID,
			Status:        enums.OrderStatusPending,
			StatusDetail:  StatusCreatedDetail,
			FirstName:     address.FirstName,
			LastName:      address.LastName,
			Phone:         address.Phone,
			City:          address.City,
			Street:        address.Street,
			Area:          address.Area,
			ShippingPrice: shipping,
		}
		locked, err := s.lockProducts(ctx, products, lines)
		if err != nil {
			return err
		}

		subtotal := decimal.Zero
		lineIDs := make([]uuid.UUID, 0, len(lines))
		for _, line := range lines {
			product := locked[line.ProductID]
			if s.decrement {
				if err := products.DecrementInventory(ctx, product.ID, line.Quantity); err != nil {
					return err
				}
			}
			subtotal = subtotal.Add(product.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
			order.Lines = append(order.Lines, models.OrderLine{
				ProductID:   product.ID,
				ProductName: product.Name,
				ColorName:   line.ColorName,
				ImageURL:    product.MainImageURL,
				UnitPrice:   product.UnitPrice,
				Quantity:    line.Quantity,
			})
			lineIDs = append(lineIDs, line.ID)
		}
		order.SubtotalPrice = subtotal
		order.TotalPrice = subtotal.Add(shipping)

		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrder(ctx, &order); err != nil {
			return pkgerrors.Persistence(err, "create order")
		}
		if _, err := carts.RemoveLines(ctx, shopperCart.ID, lineIDs); err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: shopperID, Role: enums.RoleShopper.String()},
			Data: payloads.OrderCreatedEvent{
				OrderID:              order.ID,
				UserID:               shopperID,
				CartID:               shopperCart.ID,
				TransferredLineIDs:   lineIDs,
				SubtotalPrice:        order.SubtotalPrice,
				ShippingPrice:        order.ShippingPrice,
				TotalPrice:           order.TotalPrice,
				InventoryDecremented: s.decrement,
			},
		}); err != nil {
			return err
		}
		view = toOrderView(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveOrderCreated(len(view.Lines), time.Since(started))
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":   view.ID.String(),
		"shopper_id": shopperID.String(),
		"lines":      len(view.Lines),
		"total":      view.TotalPrice.String(),
	})
	s.logg.Info(logCtx, "order created")
	return &view, nil
}

// lockProducts locks every product behind the selected lines in id order so
// concurrent checkouts of overlapping carts acquire row locks in the same order.
// A decrementing checkout takes the exclusive lock up front; upgrading a shared
// lock later would deadlock against a second checkout of the same product.
func (s *service) lockProducts(ctx context.Context, products catalog.Provider, lines []models.CartLine) (map[uuid.UUID]*catalog.ProductSnapshot, error) {
	mode := catalog.LockForShare
	if s.decrement {
		mode = catalog.LockForUpdate
	}
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	ids = slices.Compact(ids)

	out := make(map[uuid.UUID]*catalog.ProductSnapshot, len(ids))
	for _, id := range ids {
		product, err := products.GetProductForCheckout(ctx, id, mode)
		if err != nil {
			return nil, err
		}
		out[id] = product
	}
	return out, nil
}
