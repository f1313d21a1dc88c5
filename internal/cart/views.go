package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// LineView is a cart line joined with the live product snapshot.
type LineView struct {
	ID            uuid.UUID              `json:"id"`
	ProductID     uuid.UUID              `json:"product_id"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	ImageURL      string                 `json:"image_url"`
	UnitPrice     decimal.Decimal        `json:"unit_price"`
	OriginalPrice decimal.NullDecimal    `json:"original_price"`
	Color         *catalog.ColorSnapshot `json:"color"`
	Quantity      int                    `json:"quantity"`
	LineTotal     decimal.Decimal        `json:"line_total"`
}

// CartView is the computed cart: lines plus live totals.
type CartView struct {
	ID                 uuid.UUID       `json:"id"`
	Lines              []LineView      `json:"lines"`
	TotalPrice         decimal.Decimal `json:"total_price"`
	TotalOriginalPrice decimal.Decimal `json:"total_original_price"`
}

func newLineView(line models.CartLine, product catalog.ProductSnapshot) LineView {
	color, ok := product.ColorNamed(line.ColorName)
	if !ok {
		color = &catalog.ColorSnapshot{Name: line.ColorName}
	}
	return LineView{
		ID:            line.ID,
		ProductID:     line.ProductID,
		Name:          product.Name,
		Description:   product.Description,
		ImageURL:      product.MainImageURL,
		UnitPrice:     product.UnitPrice,
		OriginalPrice: product.OriginalPrice,
		Color:         color,
		Quantity:      line.Quantity,
		LineTotal:     product.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
	}
}

// buildCartView prices lines against live products. Lines whose product no
// longer exists are skipped and returned separately.
func buildCartView(cart models.Cart, lines []models.CartLine, products map[uuid.UUID]catalog.ProductSnapshot) (*CartView, []models.CartLine) {
	view := &CartView{
		ID:                 cart.ID,
		Lines:              make([]LineView, 0, len(lines)),
		TotalPrice:         decimal.Zero,
		TotalOriginalPrice: decimal.Zero,
	}
	var orphaned []models.CartLine
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			orphaned = append(orphaned, line)
			continue
		}
		qty := decimal.NewFromInt(int64(line.Quantity))
		view.Lines = append(view.Lines, newLineView(line, product))
		view.TotalPrice = view.TotalPrice.Add(product.UnitPrice.Mul(qty))
		view.TotalOriginalPrice = view.TotalOriginalPrice.Add(product.OriginalPriceOrZero().Mul(qty))
	}
	return view, orphaned
}
