package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// CartFetch returns the shopper's cart priced against the live catalog.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		shopperID, err := shopperFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetCartView(r.Context(), shopperID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CartAddLine adds units of a product color, merging into an existing line when one matches.
func CartAddLine(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		shopperID, err := shopperFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.AddOrMergeLine(r.Context(), shopperID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, line)
	}
}

func CartIncreaseLine(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartLineMutation(svc, logg, cartsvc.Service.IncreaseQuantity)
}

func CartDecreaseLine(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartLineMutation(svc, logg, cartsvc.Service.DecreaseQuantity)
}

// CartRemoveLine deletes one line from the shopper's cart.
func CartRemoveLine(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		shopperID, err := shopperFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineID, err := parseUUIDParam(r, "lineID", "line id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveLine(r.Context(), shopperID, lineID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		shopperID, err := shopperFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ClearCart(r.Context(), shopperID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type lineMutator func(svc cartsvc.Service, ctx context.Context, shopperID, lineID uuid.UUID) (*cartsvc.LineView, error)

func cartLineMutation(svc cartsvc.Service, logg *logger.Logger, mutate lineMutator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		shopperID, err := shopperFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineID, err := parseUUIDParam(r, "lineID", "line id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := mutate(svc, r.Context(), shopperID, lineID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, line)
	}
}

// Quantity is left to the admission service so non-positive values surface as INVALID_QUANTITY.
type addLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	ColorName string    `json:"color_name" validate:"required"`
	Quantity  int       `json:"quantity"`
}

func (r addLineRequest) toInput() cartsvc.AddLineInput {
	return cartsvc.AddLineInput{
		ProductID: r.ProductID,
		ColorName: r.ColorName,
		Quantity:  r.Quantity,
	}
}

// shopperFromRequest rejects requests that reached a shopper route without an identity.
// A present but malformed id resolves to uuid.Nil and the services report NOT_PROVISIONED.
func shopperFromRequest(r *http.Request) (uuid.UUID, error) {
	if middleware.UserIDFromContext(r.Context()) == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return middleware.ShopperIDFromContext(r.Context()), nil
}
