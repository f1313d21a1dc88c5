package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository reads and seeds the product catalog tables.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindProduct loads a product with its offered colors.
func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Colors", func(q *gorm.DB) *gorm.DB { return q.Order("colors.name ASC") }).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProductLocked loads a product under a row lock. Exclusive callers go on
// to update the row and must not hold a shared lock another writer also holds.
func (r *Repository) FindProductLocked(ctx context.Context, id uuid.UUID, exclusive bool) (*models.Product, error) {
	var product models.Product
	lock := db.ForShare
	if exclusive {
		lock = db.ForUpdate
	}
	err := lock(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&product).Association("Colors").Find(&product.Colors); err != nil {
		return nil, err
	}
	return &product, nil
}

// FindProducts loads the given products without colors, keyed by id.
func (r *Repository) FindProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Preload("Colors").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// FindColorByName loads a color by its exact name.
func (r *Repository) FindColorByName(ctx context.Context, name string) (*models.Color, error) {
	var color models.Color
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&color).Error; err != nil {
		return nil, err
	}
	return &color, nil
}

// ListProducts returns a newest-first page of products with one buffered row.
func (r *Repository) ListProducts(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	var rows []models.Product
	query := pagination.Apply(r.db.WithContext(ctx).Model(&models.Product{}), cursor, limit)
	if err := query.Preload("Colors").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DecrementInventory consumes qty units only when that many are available.
// It reports whether the guarded update matched a row.
func (r *Repository) DecrementInventory(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND inventory >= ?", id, qty).
		UpdateColumn("inventory", gorm.Expr("inventory - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpsertColor creates the color or refreshes its image.
func (r *Repository) UpsertColor(ctx context.Context, color *models.Color) error {
	existing, err := r.FindColorByName(ctx, color.Name)
	if err == nil {
		color.ID = existing.ID
		return r.db.WithContext(ctx).Model(existing).Update("image_url", color.ImageURL).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.WithContext(ctx).Create(color).Error
}

// CreateProduct inserts a product and links its colors.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// SetInventory overwrites the stock level of a product.
func (r *Repository) SetInventory(ctx context.Context, id uuid.UUID, inventory int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).UpdateColumn("inventory", inventory)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SetPrice overwrites the live price of a product.
func (r *Repository) SetPrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).UpdateColumn("price", price)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
