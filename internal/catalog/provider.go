package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const (
	ResourceProduct = "product"
	ResourceColor   = "color"
)

// LockMode selects the row lock GetProductForCheckout takes.
type LockMode int

const (
	// LockForShare keeps price and inventory stable while the caller only reads them.
	LockForShare LockMode = iota
	// LockForUpdate is required when the caller will decrement inventory in the same transaction.
	LockForUpdate
)

// Provider exposes read-only catalog snapshots to the cart and order engines.
type Provider interface {
	WithTx(tx *gorm.DB) Provider
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductSnapshot, error)
	GetProductForCheckout(ctx context.Context, productID uuid.UUID, mode LockMode) (*ProductSnapshot, error)
	GetProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]ProductSnapshot, error)
	GetColor(ctx context.Context, name string) (*ColorSnapshot, error)
	DecrementInventory(ctx context.Context, productID uuid.UUID, qty int) error
	ListProducts(ctx context.Context, params pagination.Params) (*pagination.Page[ProductSnapshot], error)
}

type provider struct {
	repo *Repository
}

// NewProvider builds the catalog provider over the given repository.
func NewProvider(repo *Repository) (Provider, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &provider{repo: repo}, nil
}

func (p *provider) WithTx(tx *gorm.DB) Provider {
	return &provider{repo: p.repo.WithTx(tx)}
}

func (p *provider) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductSnapshot, error) {
	row, err := p.repo.FindProduct(ctx, productID)
	if err != nil {
		return nil, mapProductErr(err)
	}
	snap := toProductSnapshot(*row)
	return &snap, nil
}

func (p *provider) GetProductForCheckout(ctx context.Context, productID uuid.UUID, mode LockMode) (*ProductSnapshot, error) {
	row, err := p.repo.FindProductLocked(ctx, productID, mode == LockForUpdate)
	if err != nil {
		return nil, mapProductErr(err)
	}
	snap := toProductSnapshot(*row)
	return &snap, nil
}

// GetProducts returns snapshots for the ids that exist; missing ids are absent from the map.
func (p *provider) GetProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]ProductSnapshot, error) {
	rows, err := p.repo.FindProducts(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "load products")
	}
	out := make(map[uuid.UUID]ProductSnapshot, len(rows))
	for id, row := range rows {
		out[id] = toProductSnapshot(row)
	}
	return out, nil
}

func (p *provider) GetColor(ctx context.Context, name string) (*ColorSnapshot, error) {
	row, err := p.repo.FindColorByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound(ResourceColor, fmt.Sprintf("color %q not found", name))
		}
		return nil, pkgerrors.Persistence(err, "load color")
	}
	snap := toColorSnapshot(*row)
	return &snap, nil
}

func (p *provider) DecrementInventory(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be positive")
	}
	ok, err := p.repo.DecrementInventory(ctx, productID, qty)
	if err != nil {
		return pkgerrors.Persistence(err, "decrement inventory")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeInsufficientInventory, "not enough inventory to fulfil order").
			WithDetails(map[string]any{"product_id": productID.String(), "requested": qty})
	}
	return nil
}

func (p *provider) ListProducts(ctx context.Context, params pagination.Params) (*pagination.Page[ProductSnapshot], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := p.repo.ListProducts(ctx, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "list products")
	}
	rows, next := pagination.Split(rows, params.Limit, func(row models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	items := make([]ProductSnapshot, 0, len(rows))
	for _, row := range rows {
		items = append(items, toProductSnapshot(row))
	}
	return &pagination.Page[ProductSnapshot]{Items: items, NextCursor: next}, nil
}

func mapProductErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.NotFound(ResourceProduct, "product not found")
	}
	return pkgerrors.Persistence(err, "load product")
}

// SeedProductInput describes a product created by operator tooling.
type SeedProductInput struct {
	Name          string
	Description   string
	MainImageURL  string
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	Inventory     int
	Colors        []SeedColorInput
}

// SeedColorInput describes a color attached to a seeded product.
type SeedColorInput struct {
	Name     string
	ImageURL string
}

// Validate checks the catalog invariants for a seeded product.
func (in SeedProductInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if !in.Price.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if in.OriginalPrice != nil && in.OriginalPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "original price must be non-negative")
	}
	if in.Inventory < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "inventory must be non-negative")
	}
	for _, c := range in.Colors {
		if strings.TrimSpace(c.Name) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "color name required")
		}
	}
	return nil
}

// Seed creates a product with its colors, reusing colors that already exist by name.
func Seed(ctx context.Context, repo *Repository, in SeedProductInput) (*ProductSnapshot, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	product := models.Product{
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		MainImageURL: in.MainImageURL,
		Price:        in.Price,
		Inventory:    in.Inventory,
	}
	if in.OriginalPrice != nil {
		product.OriginalPrice = decimal.NewNullDecimal(*in.OriginalPrice)
	}
	for _, c := range in.Colors {
		color := models.Color{Name: strings.TrimSpace(c.Name), ImageURL: c.ImageURL}
		if err := repo.UpsertColor(ctx, &color); err != nil {
			return nil, pkgerrors.Persistence(err, "upsert color")
		}
		product.Colors = append(product.Colors, color)
	}
	if err := repo.CreateProduct(ctx, &product); err != nil {
		return nil, pkgerrors.Persistence(err, "create product")
	}
	snap := toProductSnapshot(product)
	return &snap, nil
}
