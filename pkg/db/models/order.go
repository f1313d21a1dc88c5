package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Order is an immutable-priced record produced at checkout.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Status        enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	StatusDetail  string            `gorm:"column:status_detail;not null;default:''"`
	FirstName     string            `gorm:"column:first_name;not null"`
	LastName      string            `gorm:"column:last_name;not null"`
	Phone         string            `gorm:"column:phone;not null"`
	City          string            `gorm:"column:city;not null"`
	Street        string            `gorm:"column:street;not null"`
	Area          string            `gorm:"column:area;not null"`
	ShippingPrice decimal.Decimal   `gorm:"column:shipping_price;type:numeric(12,2);not null"`
	SubtotalPrice decimal.Decimal   `gorm:"column:subtotal_price;type:numeric(12,2);not null"`
	TotalPrice    decimal.Decimal   `gorm:"column:total_price;type:numeric(12,2);not null"`
	Lines         []OrderLine       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderLine snapshots a purchased cart line at checkout time.
type OrderLine struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Product     *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
	ProductName string          `gorm:"column:product_name;not null"`
	ColorName   string          `gorm:"column:color_name;not null"`
	ImageURL    string          `gorm:"column:image_url;not null;default:''"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (l *OrderLine) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
