package controllers

import (
	"net/http"

	"github.com/angelmondragon/cartflow/api/responses"
	"github.com/angelmondragon/cartflow/internal/sessions"
	"github.com/angelmondragon/cartflow/pkg/logger"
)

// OrderConfirm submits the confirmation-stage items as an order.
func OrderConfirm(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return withSession(store, logg, func(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
		orderID, err := session.Cart.ConfirmOrder(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"order_id": orderID})
	})
}
