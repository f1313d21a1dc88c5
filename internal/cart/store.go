package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const (
	ResourceCart     = "cart"
	ResourceCartLine = "cart_line"
)

// Store persists carts and their lines. Cart reads inside a transaction take
// the cart row lock so every mutation of one shopper's cart is serialized.
type Store interface {
	WithTx(tx *gorm.DB) Store
	GetCart(ctx context.Context, shopperID uuid.UUID) (*models.Cart, error)
	FindCart(ctx context.Context, shopperID uuid.UUID) (*models.Cart, error)
	GetLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error)
	GetLine(ctx context.Context, cartID, lineID uuid.UUID) (*models.CartLine, error)
	FindLinesByIDs(ctx context.Context, cartID uuid.UUID, lineIDs []uuid.UUID) ([]models.CartLine, error)
	FindLineFor(ctx context.Context, cartID, productID uuid.UUID, colorName string) (*models.CartLine, error)
	ProductQuantity(ctx context.Context, cartID, productID uuid.UUID) (int, error)
	CreateLine(ctx context.Context, line *models.CartLine) error
	UpdateLineQuantity(ctx context.Context, line *models.CartLine, quantity int) error
	RemoveLines(ctx context.Context, cartID uuid.UUID, lineIDs []uuid.UUID) (int, error)
	ClearAll(ctx context.Context, cartID uuid.UUID) error
}

type store struct {
	db *gorm.DB
}

// NewStore builds a cart store bound to the provided DB.
func NewStore(conn *gorm.DB) Store {
	return &store{db: conn}
}

func (s *store) WithTx(tx *gorm.DB) Store {
	if tx == nil {
		return s
	}
	return &store{db: tx}
}

// GetCart returns the shopper's cart, creating it on first use.
func (s *store) GetCart(ctx context.Context, shopperID uuid.UUID) (*models.Cart, error) {
	if shopperID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotProvisioned, "shopper identity missing")
	}
	cart := models.Cart{UserID: shopperID}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&cart).Error
	if err != nil {
		return nil, pkgerrors.Persistence(err, "create cart")
	}
	return s.FindCart(ctx, shopperID)
}

// FindCart returns the shopper's existing cart or NotFound.
func (s *store) FindCart(ctx context.Context, shopperID uuid.UUID) (*models.Cart, error) {
	if shopperID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotProvisioned, "shopper identity missing")
	}
	var cart models.Cart
	err := db.ForUpdate(s.db.WithContext(ctx)).Where("user_id = ?", shopperID).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound(ResourceCart, "cart not found")
		}
		return nil, pkgerrors.Persistence(err, "load cart")
	}
	return &cart, nil
}

// GetLines returns the cart's lines in insertion order.
func (s *store) GetLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := s.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, pkgerrors.Persistence(err, "load cart lines")
	}
	return lines, nil
}

func (s *store) GetLine(ctx context.Context, cartID, lineID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := s.db.WithContext(ctx).Where("id = ? AND cart_id = ?", lineID, cartID).First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound(ResourceCartLine, "cart line not found")
		}
		return nil, pkgerrors.Persistence(err, "load cart line")
	}
	return &line, nil
}

// FindLinesByIDs returns the subset of lineIDs that belong to the cart.
func (s *store) FindLinesByIDs(ctx context.Context, cartID uuid.UUID, lineIDs []uuid.UUID) ([]models.CartLine, error) {
	ids := uniqueIDs(lineIDs)
	if len(ids) == 0 {
		return nil, nil
	}
	var lines []models.CartLine
	err := s.db.WithContext(ctx).
		Where("cart_id = ? AND id IN ?", cartID, ids).
		Order("created_at ASC").
		Order("id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, pkgerrors.Persistence(err, "load cart lines")
	}
	return lines, nil
}

// FindLineFor returns the line for (product, color) or nil when none exists.
func (s *store) FindLineFor(ctx context.Context, cartID, productID uuid.UUID, colorName string) (*models.CartLine, error) {
	var line models.CartLine
	err := s.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ? AND color_name = ?", cartID, productID, colorName).
		First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Persistence(err, "load cart line")
	}
	return &line, nil
}

// ProductQuantity sums the carted quantity of a product across all colors.
func (s *store) ProductQuantity(ctx context.Context, cartID, productID uuid.UUID) (int, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, pkgerrors.Persistence(err, "sum cart quantity")
	}
	return int(total), nil
}

func (s *store) CreateLine(ctx context.Context, line *models.CartLine) error {
	if err := s.db.WithContext(ctx).Create(line).Error; err != nil {
		return pkgerrors.Persistence(err, "create cart line")
	}
	return nil
}

func (s *store) UpdateLineQuantity(ctx context.Context, line *models.CartLine, quantity int) error {
	res := s.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("id = ?", line.ID).
		Updates(map[string]any{"quantity": quantity, "updated_at": db.UTCNow()})
	if res.Error != nil {
		return pkgerrors.Persistence(res.Error, "update cart line")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.NotFound(ResourceCartLine, "cart line not found")
	}
	line.Quantity = quantity
	return nil
}

// RemoveLines deletes every requested line or none of them.
func (s *store) RemoveLines(ctx context.Context, cartID uuid.UUID, lineIDs []uuid.UUID) (int, error) {
	ids := uniqueIDs(lineIDs)
	if len(ids) == 0 {
		return 0, nil
	}
	removed := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("cart_id = ? AND id IN ?", cartID, ids).Delete(&models.CartLine{})
		if res.Error != nil {
			return pkgerrors.Persistence(res.Error, "delete cart lines")
		}
		if int(res.RowsAffected) != len(ids) {
			return pkgerrors.NotFound(ResourceCartLine, "cart line not found")
		}
		removed = int(res.RowsAffected)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *store) ClearAll(ctx context.Context, cartID uuid.UUID) error {
	if err := s.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartLine{}).Error; err != nil {
		return pkgerrors.Persistence(err, "clear cart")
	}
	return nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
