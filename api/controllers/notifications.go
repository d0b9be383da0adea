package controllers

import (
	"net/http"

	"github.com/angelmondragon/cartflow/api/responses"
	"github.com/angelmondragon/cartflow/internal/sessions"
	"github.com/angelmondragon/cartflow/pkg/logger"
)

// NotificationsDrain returns and clears the session's pending notifications.
func NotificationsDrain(store SessionStore, logg *logger.Logger) http.HandlerFunc {
	return withSession(store, logg, func(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
		responses.WriteSuccess(w, map[string]any{"notifications": session.Feed.Drain()})
	})
}
