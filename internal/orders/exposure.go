package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Exposure is a product whose units held by open orders exceed its live inventory.
// Under the check-only policy inventory is never consumed, so this is where
// oversell becomes visible.
type Exposure struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Inventory   int       `json:"inventory"`
	Committed   int       `json:"committed"`
}

// OpenStatuses are the statuses whose lines still need stock to ship.
var OpenStatuses = []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusProcessing}

// ExposureReader computes oversell exposure across open orders.
type ExposureReader struct {
	db *gorm.DB
}

func NewExposureReader(conn *gorm.DB) *ExposureReader {
	return &ExposureReader{db: conn}
}

// Overcommitted lists products whose open order units exceed inventory, largest gap first.
func (r *ExposureReader) Overcommitted(ctx context.Context, tx *gorm.DB) ([]Exposure, error) {
	if tx == nil {
		tx = r.db
	}
	var rows []Exposure
	err := tx.WithContext(ctx).
		Table("order_lines AS ol").
		Select("p.id AS product_id, p.name AS product_name, p.inventory AS inventory, SUM(ol.quantity) AS committed").
		Joins("JOIN orders AS o ON o.id = ol.order_id").
		Joins("JOIN products AS p ON p.id = ol.product_id").
		Where("o.status IN ?", OpenStatuses).
		Group("p.id, p.name, p.inventory").
		Having("SUM(ol.quantity) > p.inventory").
		Order("SUM(ol.quantity) - p.inventory DESC").
		Scan(&rows).Error
	return rows, err
}
