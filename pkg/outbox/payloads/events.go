package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OrderCreatedEvent records a checkout and the cart lines it consumed.
type OrderCreatedEvent struct {
	OrderID              uuid.UUID       `json:"order_id"`
	UserID               uuid.UUID       `json:"user_id"`
	CartID               uuid.UUID       `json:"cart_id"`
	TransferredLineIDs   []uuid.UUID     `json:"transferred_line_ids"`
	SubtotalPrice        decimal.Decimal `json:"subtotal_price"`
	ShippingPrice        decimal.Decimal `json:"shipping_price"`
	TotalPrice           decimal.Decimal `json:"total_price"`
	InventoryDecremented bool            `json:"inventory_decremented"`
}

// OrderStatusChangedEvent is emitted for every committed status update.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	UserID         uuid.UUID         `json:"user_id"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	Status         enums.OrderStatus `json:"status"`
	StatusDetail   string            `json:"status_detail"`
}

// OrderDeletedEvent is emitted when an admin removes an order.
type OrderDeletedEvent struct {
	OrderID uuid.UUID         `json:"order_id"`
	UserID  uuid.UUID         `json:"user_id"`
	Status  enums.OrderStatus `json:"status"`
}
