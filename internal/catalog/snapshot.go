package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ColorSnapshot is the read-only view of a color.
type ColorSnapshot struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	ImageURL string    `json:"image_url"`
}

// ProductSnapshot is the read-only view of a product at the moment it was read.
type ProductSnapshot struct {
	ID            uuid.UUID           `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	MainImageURL  string              `json:"main_image_url"`
	UnitPrice     decimal.Decimal     `json:"unit_price"`
	OriginalPrice decimal.NullDecimal `json:"original_price"`
	Inventory     int                 `json:"inventory"`
	Colors        []ColorSnapshot     `json:"colors"`
}

// ColorNamed returns the offered color with exactly the given name.
func (p *ProductSnapshot) ColorNamed(name string) (*ColorSnapshot, bool) {
	if p == nil {
		return nil, false
	}
	for i := range p.Colors {
		if p.Colors[i].Name == name {
			return &p.Colors[i], true
		}
	}
	return nil, false
}

// OriginalPriceOrZero is the original price used in cart totals.
func (p *ProductSnapshot) OriginalPriceOrZero() decimal.Decimal {
	if p == nil || !p.OriginalPrice.Valid {
		return decimal.Zero
	}
	return p.OriginalPrice.Decimal
}

func toProductSnapshot(row models.Product) ProductSnapshot {
	colors := make([]ColorSnapshot, 0, len(row.Colors))
	for _, c := range row.Colors {
		colors = append(colors, toColorSnapshot(c))
	}
	return ProductSnapshot{
		ID:            row.ID,
		Name:          row.Name,
		Description:   row.Description,
		MainImageURL:  row.MainImageURL,
		UnitPrice:     row.Price,
		OriginalPrice: row.OriginalPrice,
		Inventory:     row.Inventory,
		Colors:        colors,
	}
}

func toColorSnapshot(row models.Color) ColorSnapshot {
	return ColorSnapshot{ID: row.ID, Name: row.Name, ImageURL: row.ImageURL}
}
