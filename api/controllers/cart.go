package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/cartflow/api/responses"
	"github.com/angelmondragon/cartflow/api/validators"
	"github.com/angelmondragon/cartflow/internal/sessions"
	pkgerrors "github.com/angelmondragon/cartflow/pkg/errors"
	"github.com/angelmondragon/cartflow/pkg/logger"
)

type selectionRequest struct {
	Selected *bool `json:"selected" validate:"required"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

// CartView returns the session's cart.
func CartView(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return withSession(store, logg, func(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
		view, err := session.Cart.View(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	})
}

// CartRefresh refetches the cart from the backend.
func CartRefresh(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return withSession(store, logg, func(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
		view, err := session.Cart.Load(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	})
}

// CartToggle flips the selection of {itemId}.
func CartToggle(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return withSession(store, logg, func(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
		view, err := session.Cart.ToggleSelect(r.Context(), strings.TrimSpace(chi.URLParam(r, "itemId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	})
}

// CartSelection selects or clears every row.
func CartSelection(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return withSession(store, logg, func(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
		var payload selectionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := session.Cart.SetSelectAll(r.Context(), *payload.Selected)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	})
}

// CartQuantity edits the quantity of {itemId}. Persistence is debounced.
func CartQuantity(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return withSession(store, logg, func(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
		itemID := strings.TrimSpace(chi.URLParam(r, "itemId"))
		if itemID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item id is required"))
			return
		}

		var payload quantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := session.Cart.SetQuantity(r.Context(), itemID, *payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	})
}

// CartDeleteSelected deletes the selected rows.
func CartDeleteSelected(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return withSession(store, logg, func(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
		view, err := session.Cart.DeleteSelected(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	})
}
