package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/cartflow/api/responses"
	"github.com/angelmondragon/cartflow/internal/cart"
	"github.com/angelmondragon/cartflow/internal/sessions"
	"github.com/angelmondragon/cartflow/internal/wizard"
	pkgerrors "github.com/angelmondragon/cartflow/pkg/errors"
	"github.com/angelmondragon/cartflow/pkg/logger"
)

// SessionStore is the session surface the HTTP layer needs.
type SessionStore interface {
	Mount(ctx context.Context) (*sessions.Session, error)
	Get(id string) (*sessions.Session, error)
	Unmount(ctx context.Context, id string) error
}

type sessionResponse struct {
	SessionID string        `json:"session_id"`
	Cart      cart.CartView `json:"cart"`
	Wizard    wizard.State  `json:"wizard"`
}

// SessionMount mounts a new cart session and returns its first view.
func SessionMount(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session store unavailable"))
			return
		}

		session, err := store.Mount(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := session.Cart.View(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := session.Cart.Wizard(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sessionResponse{
			SessionID: session.ID,
			Cart:      view,
			Wizard:    state,
		})
	}
}

// SessionUnmount tears a session down.
func SessionUnmount(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session store unavailable"))
			return
		}

		id := strings.TrimSpace(chi.URLParam(r, "sessionId"))
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session id is required"))
			return
		}
		if err := store.Unmount(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"unmounted": true})
	}
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, session *sessions.Session)

// withSession resolves {sessionId} before calling fn.
func withSession(store SessionStore, logg *logger.Logger, fn sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session store unavailable"))
			return
		}

		id := strings.TrimSpace(chi.URLParam(r, "sessionId"))
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session id is required"))
			return
		}
		session, err := store.Get(id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		fn(w, r, session)
	}
}
