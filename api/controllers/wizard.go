package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/cartflow/api/responses"
	"github.com/angelmondragon/cartflow/api/validators"
	"github.com/angelmondragon/cartflow/internal/sessions"
	"github.com/angelmondragon/cartflow/internal/wizard"
	"github.com/angelmondragon/cartflow/pkg/logger"
)

type dateRequest struct {
	// Date is YYYY-MM-DD; null or empty clears it.
	Date *string `json:"date"`
}

func WizardState(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return withSession(store, logg, func(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
		state, err := session.Cart.Wizard(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	})
}

// WizardNext advances the wizard; blocked moves return the unchanged state.
func WizardNext(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return withSession(store, logg, func(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
		state, err := session.Cart.NextStep(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	})
}

func WizardPrevious(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return withSession(store, logg, func(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
		state, err := session.Cart.PreviousStep(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	})
}

// WizardDate sets or clears the selected date.
func WizardDate(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return withSession(store, logg, func(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
		var payload dateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var (
			state wizard.State
			err   error
		)
		if payload.Date == nil || strings.TrimSpace(*payload.Date) == "" {
			state, err = session.Cart.ClearDate(r.Context())
		} else {
			date, parseErr := wizard.ParseDate(*payload.Date)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, parseErr)
				return
			}
			state, err = session.Cart.SetDate(r.Context(), date)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	})
}
