package controllers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cartflow/api/responses"
	"github.com/angelmondragon/cartflow/api/validators"
	"github.com/angelmondragon/cartflow/internal/cart"
	"github.com/angelmondragon/cartflow/internal/products"
	"github.com/angelmondragon/cartflow/pkg/enums"
	pkgerrors "github.com/angelmondragon/cartflow/pkg/errors"
	"github.com/angelmondragon/cartflow/pkg/logger"
)

// ProductCatalog adds cart products and signals cart updates.
type ProductCatalog interface {
	AddProduct(ctx context.Context, input products.AddProductInput) (cart.Product, error)
	SignalCartUpdated(ctx context.Context, update products.CartUpdate)
}

type addProductRequest struct {
	Name       string          `json:"name" validate:"required,max=255"`
	MSRP       decimal.Decimal `json:"msrp"`
	Quantity   int             `json:"quantity" validate:"gte=0"`
	PictureURL string          `json:"picture_url" validate:"omitempty,url"`
}

type cartUpdateRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=64"`
}

type productResponse struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	MSRP       decimal.Decimal `json:"msrp"`
	Quantity   int             `json:"quantity"`
	PictureURL string          `json:"picture_url"`
}

// ProductAdd places a product in the cart, which refreshes every mounted session.
func ProductAdd(catalog ProductCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product catalog unavailable"))
			return
		}

		var payload addProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := catalog.AddProduct(r.Context(), products.AddProductInput{
			Name:       validators.SanitizeString(payload.Name, 255),
			MSRP:       payload.MSRP,
			Quantity:   payload.Quantity,
			PictureURL: validators.SanitizeString(payload.PictureURL, 2048),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, productResponse{
			ID:         product.ID,
			Name:       product.Name,
			MSRP:       product.MSRP,
			Quantity:   product.Quantity,
			PictureURL: product.PictureURL,
		})
	}
}

// CartUpdatesSignal publishes on the cart-updated channel.
func CartUpdatesSignal(catalog ProductCatalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product catalog unavailable"))
			return
		}

		var payload cartUpdateRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reason, err := enums.ParseCartUpdateReason(validators.SanitizeString(payload.Reason, 64))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error()))
			return
		}
		catalog.SignalCartUpdated(r.Context(), products.CartUpdate{Reason: reason})
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]bool{"signaled": true})
	}
}
