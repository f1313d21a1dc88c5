package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const ReasonCannotDecreaseBelowOne = "cannot_decrease_below_one"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type admissionRecorder interface {
	ObserveAdmission(operation, outcome string)
}

// Service admits cart mutations against product inventory.
type Service interface {
	AddOrMergeLine(ctx context.Context, shopperID uuid.UUID, input AddLineInput) (*LineView, error)
	IncreaseQuantity(ctx context.Context, shopperID, lineID uuid.UUID) (*LineView, error)
	DecreaseQuantity(ctx context.Context, shopperID, lineID uuid.UUID) (*LineView, error)
	RemoveLine(ctx context.Context, shopperID, lineID uuid.UUID) error
	ClearCart(ctx context.Context, shopperID uuid.UUID) error
	GetCartView(ctx context.Context, shopperID uuid.UUID) (*CartView, error)
}

// AddLineInput is a request to put quantity units of a product color in the cart.
type AddLineInput struct {
	ProductID uuid.UUID
	ColorName string
	Quantity  int
}

// ServiceParams wires the admission service.
type ServiceParams struct {
	Tx      txRunner
	Store   Store
	Catalog catalog.Provider
	Logger  *logger.Logger
	Metrics admissionRecorder
}

type service struct {
	tx      txRunner
	store   Store
	catalog catalog.Provider
	logg    *logger.Logger
	metrics admissionRecorder
}

// NewService builds the admission service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog provider required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	recorder := params.Metrics
	if recorder == nil {
		recorder = (*metrics.StorefrontMetrics)(nil)
	}
	return &service{
		tx:      params.Tx,
		store:   params.Store,
		catalog: params.Catalog,
		logg:    params.Logger,
		metrics: recorder,
	}, nil
}

func (s *service) AddOrMergeLine(ctx context.Context, shopperID uuid.UUID, input AddLineInput) (*LineView, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be at least 1").
			WithDetails(map[string]any{"quantity": input.Quantity})
	}
	// Color names match exactly; surrounding whitespace is part of the name.
	colorName := input.ColorName
	if strings.TrimSpace(colorName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "color name required")
	}

	var view LineView
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		store := s.store.WithTx(tx)
		cart, err := store.GetCart(ctx, shopperID)
		if err != nil {
			return err
		}
		product, err := s.catalog.WithTx(tx).GetProduct(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if _, ok := product.ColorNamed(colorName); !ok {
			return pkgerrors.NotFound(catalog.ResourceColor, fmt.Sprintf("color %q not offered for product", colorName))
		}

		existing, err := store.FindLineFor(ctx, cart.ID, product.ID, colorName)
		if err != nil {
			return err
		}
		carted, err := store.ProductQuantity(ctx, cart.ID, product.ID)
		if err != nil {
			return err
		}
		candidate := input.Quantity
		if existing != nil {
			candidate += existing.Quantity
		}
		if carted+input.Quantity > product.Inventory {
			return insufficientInventory(product, input.Quantity, carted)
		}

		if existing != nil {
			if err := store.UpdateLineQuantity(ctx, existing, candidate); err != nil {
				return err
			}
			view = newLineView(*existing, *product)
			return nil
		}
		line := &models.CartLine{
			CartID:    cart.ID,
			ProductID: product.ID,
			ColorName: colorName,
			Quantity:  candidate,
		}
		if err := store.CreateLine(ctx, line); err != nil {
			return err
		}
		view = newLineView(*line, *product)
		return nil
	})
	if err != nil {
		s.observe(ctx, "add_line", shopperID, err)
		return nil, err
	}
	s.observe(ctx, "add_line", shopperID, nil)
	return &view, nil
}

func (s *service) IncreaseQuantity(ctx context.Context, shopperID, lineID uuid.UUID) (*LineView, error) {
	var view LineView
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		store := s.store.WithTx(tx)
		line, err := s.lockLine(ctx, store, shopperID, lineID)
		if err != nil {
			return err
		}
		product, err := s.catalog.WithTx(tx).GetProduct(ctx, line.ProductID)
		if err != nil {
			return err
		}
		carted, err := store.ProductQuantity(ctx, line.CartID, line.ProductID)
		if err != nil {
			return err
		}
		if carted+1 > product.Inventory {
			return insufficientInventory(product, 1, carted)
		}
		if err := store.UpdateLineQuantity(ctx, line, line.Quantity+1); err != nil {
			return err
		}
		view = newLineView(*line, *product)
		return nil
	})
	if err != nil {
		s.observe(ctx, "increase", shopperID, err)
		return nil, err
	}
	s.observe(ctx, "increase", shopperID, nil)
	return &view, nil
}

func (s *service) DecreaseQuantity(ctx context.Context, shopperID, lineID uuid.UUID) (*LineView, error) {
	var view LineView
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		store := s.store.WithTx(tx)
		line, err := s.lockLine(ctx, store, shopperID, lineID)
		if err != nil {
			return err
		}
		if line.Quantity <= 1 {
			return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity cannot go below 1").
				WithDetails(map[string]any{"reason": ReasonCannotDecreaseBelowOne, "line_id": line.ID.String()})
		}
		product, err := s.catalog.WithTx(tx).GetProduct(ctx, line.ProductID)
		if err != nil {
			return err
		}
		if err := store.UpdateLineQuantity(ctx, line, line.Quantity-1); err != nil {
			return err
		}
		view = newLineView(*line, *product)
		return nil
	})
	if err != nil {
		s.observe(ctx, "decrease", shopperID, err)
		return nil, err
	}
	s.observe(ctx, "decrease", shopperID, nil)
	return &view, nil
}

func (s *service) RemoveLine(ctx context.Context, shopperID, lineID uuid.UUID) error {
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		store := s.store.WithTx(tx)
		line, err := s.lockLine(ctx, store, shopperID, lineID)
		if err != nil {
			return err
		}
		_, err = store.RemoveLines(ctx, line.CartID, []uuid.UUID{line.ID})
		return err
	})
	s.observe(ctx, "remove", shopperID, err)
	return err
}

func (s *service) ClearCart(ctx context.Context, shopperID uuid.UUID) error {
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		store := s.store.WithTx(tx)
		cart, err := store.FindCart(ctx, shopperID)
		if err != nil {
			return err
		}
		return store.ClearAll(ctx, cart.ID)
	})
	s.observe(ctx, "clear", shopperID, err)
	return err
}

func (s *service) GetCartView(ctx context.Context, shopperID uuid.UUID) (*CartView, error) {
	var (
		view     *CartView
		orphaned []models.CartLine
	)
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		store := s.store.WithTx(tx)
		cart, err := store.GetCart(ctx, shopperID)
		if err != nil {
			return err
		}
		lines, err := store.GetLines(ctx, cart.ID)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(lines))
		for _, line := range lines {
			ids = append(ids, line.ProductID)
		}
		products, err := s.catalog.WithTx(tx).GetProducts(ctx, ids)
		if err != nil {
			return err
		}
		view, orphaned = buildCartView(*cart, lines, products)
		return resolveDetachedColors(ctx, s.catalog.WithTx(tx), view)
	})
	if err != nil {
		return nil, err
	}
	if len(orphaned) > 0 {
		logCtx := s.logg.WithFields(ctx, map[string]any{"cart_id": view.ID.String(), "orphaned_lines": len(orphaned)})
		s.logg.Warn(logCtx, "cart lines reference missing products")
	}
	return view, nil
}

// resolveDetachedColors fills in color details for lines whose product no
// longer offers the carted color. A color deleted outright keeps its name only.
func resolveDetachedColors(ctx context.Context, provider catalog.Provider, view *CartView) error {
	resolved := make(map[string]*catalog.ColorSnapshot)
	for i := range view.Lines {
		line := &view.Lines[i]
		if line.Color == nil || line.Color.ID != uuid.Nil {
			continue
		}
		color, seen := resolved[line.Color.Name]
		if !seen {
			found, err := provider.GetColor(ctx, line.Color.Name)
			if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return err
			}
			color = found
			resolved[line.Color.Name] = found
		}
		if color != nil {
			line.Color = color
		}
	}
	return nil
}

// inTx runs fn in one transaction and reports untyped store failures as persistence errors.
func (s *service) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return pkgerrors.Persistence(s.tx.WithTx(ctx, fn), "cart transaction")
}

// lockLine locks the shopper's cart and returns one of its lines. A shopper
// without a cart has no lines, so that case reads as a missing line.
func (s *service) lockLine(ctx context.Context, store Store, shopperID, lineID uuid.UUID) (*models.CartLine, error) {
	cart, err := store.FindCart(ctx, shopperID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Resource() == ResourceCart {
			return nil, pkgerrors.NotFound(ResourceCartLine, "cart line not found")
		}
		return nil, err
	}
	return store.GetLine(ctx, cart.ID, lineID)
}

func (s *service) observe(ctx context.Context, operation string, shopperID uuid.UUID, err error) {
	if err == nil {
		s.metrics.ObserveAdmission(operation, metrics.OutcomeAccepted)
		return
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() == pkgerrors.CodePersistence {
		s.metrics.ObserveAdmission(operation, metrics.OutcomeFailed)
		return
	}
	s.metrics.ObserveAdmission(operation, metrics.OutcomeRejected)
	if typed.Code() == pkgerrors.CodeInsufficientInventory {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"operation":  operation,
			"shopper_id": shopperID.String(),
			"details":    typed.Details(),
		})
		s.logg.Warn(logCtx, "cart admission rejected")
	}
}

func insufficientInventory(product *catalog.ProductSnapshot, requested, carted int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientInventory, fmt.Sprintf("only %d of %s available", product.Inventory, product.Name)).
		WithDetails(map[string]any{
			"product_id": product.ID.String(),
			"requested":  requested,
			"in_cart":    carted,
			"available":  product.Inventory,
		})
}
