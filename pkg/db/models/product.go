package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry shoppers can put in a cart.
type Product struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name          string              `gorm:"column:name;not null"`
	Description   string              `gorm:"column:description;not null;default:''"`
	MainImageURL  string              `gorm:"column:main_image_url;not null;default:''"`
	Price         decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	OriginalPrice decimal.NullDecimal `gorm:"column:original_price;type:numeric(12,2)"`
	Inventory     int                 `gorm:"column:inventory;not null;default:0"`
	Colors        []Color             `gorm:"many2many:product_colors;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// Color is a named variant a product may be offered in.
type Color struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name     string    `gorm:"column:name;not null;uniqueIndex"`
	ImageURL string    `gorm:"column:image_url;not null;default:''"`
}

func (c *Color) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// ProductColor is the join row between products and colors.
type ProductColor struct {
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	ColorID   uuid.UUID `gorm:"column:color_id;type:uuid;primaryKey"`
}
