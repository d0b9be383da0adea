package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cartflow/api/responses"
	"github.com/angelmondragon/cartflow/api/validators"
	"github.com/angelmondragon/cartflow/internal/cart"
	"github.com/angelmondragon/cartflow/internal/sessions"
	"github.com/angelmondragon/cartflow/pkg/logger"
)

type lineItemRequest struct {
	ID         string          `json:"id" validate:"required"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity" validate:"gte=0"`
	PictureURL string          `json:"picture_url"`
	Selected   bool            `json:"selected"`
}

type finalizedRequest struct {
	SelectedProducts []lineItemRequest `json:"selected_products" validate:"dive"`
}

func (f finalizedRequest) items() []cart.LineItem {
	out := make([]cart.LineItem, 0, len(f.SelectedProducts))
	for _, item := range f.SelectedProducts {
		out = append(out, cart.LineItem{
			ID:         item.ID,
			Name:       item.Name,
			UnitPrice:  item.UnitPrice,
			Quantity:   item.Quantity,
			PictureURL: item.PictureURL,
			Selected:   item.Selected,
		})
	}
	return out
}

// CheckoutRequest publishes the selected items on the session's checkout channel.
func CheckoutRequest(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return withSession(store, logg, func(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
		payload, err := session.Cart.RequestCheckout(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, payload)
	})
}

// CheckoutPublish republishes a finalized list on the session's checkout channel.
func CheckoutPublish(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return withSession(store, logg, func(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
		var body finalizedRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload, err := session.Cart.PublishFinalized(r.Context(), body.items())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, payload)
	})
}

// CheckoutConfirmation returns the confirmation-stage items.
func CheckoutConfirmation(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return withSession(store, logg, func(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
		items, err := session.Cart.Confirmation(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cart.CheckoutPayload{SelectedProducts: items})
	})
}
