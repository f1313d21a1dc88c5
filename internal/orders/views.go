package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Address is the shipping destination captured at checkout.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	City      string `json:"city"`
	Street    string `json:"street"`
	Area      string `json:"area"`
}

// OrderLineView is the immutable snapshot of one purchased line.
type OrderLineView struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	ColorName   string          `json:"color_name"`
	ImageURL    string          `json:"image_url"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderView is the projection returned by every order read and write.
type OrderView struct {
	ID            uuid.UUID         `json:"id"`
	UserID        uuid.UUID         `json:"user_id"`
	Status        enums.OrderStatus `json:"status"`
	StatusDetail  string            `json:"status_detail"`
	Address       Address           `json:"shipping_address"`
	Lines         []OrderLineView   `json:"lines,omitempty"`
	ShippingPrice decimal.Decimal   `json:"shipping_price"`
	SubtotalPrice decimal.Decimal   `json:"subtotal_price"`
	TotalPrice    decimal.Decimal   `json:"total_price"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func toOrderView(order models.Order) OrderView {
	lines := make([]OrderLineView, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, OrderLineView{
			ID:          line.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			ColorName:   line.ColorName,
			ImageURL:    line.ImageURL,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			LineTotal:   line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
		})
	}
	return OrderView{
		ID:           order.ID,
		UserID:       order.UserID,
		Status:       order.Status,
		StatusDetail: order.StatusDetail,
		Address: Address{
			FirstName: order.FirstName,
			LastName:  order.LastName,
			Phone:     order.Phone,
			City:      order.City,
			Street:    order.Street,
			Area:      order.Area,
		},
		Lines:         lines,
		ShippingPrice: order.ShippingPrice,
		SubtotalPrice: order.SubtotalPrice,
		TotalPrice:    order.TotalPrice,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}
