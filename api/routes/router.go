package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/cartflow/api/controllers"
	"github.com/angelmondragon/cartflow/api/middleware"
	"github.com/angelmondragon/cartflow/pkg/config"
	"github.com/angelmondragon/cartflow/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	sessionStore controllers.SessionStore,
	catalog controllers.ProductCatalog,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/products", controllers.ProductAdd(catalog, logg))
		r.Post("/cart-updates", controllers.CartUpdatesSignal(catalog, logg))

		r.Post("/sessions", controllers.SessionMount(sessionStore, logg))
		r.Route("/sessions/{sessionId}", func(r chi.Router) {
			r.Use(middleware.SessionContext(logg))
			r.Delete("/", controllers.SessionUnmount(sessionStore, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartView(sessionStore, logg))
				r.Post("/refresh", controllers.CartRefresh(sessionStore, logg))
				r.Put("/selection", controllers.CartSelection(sessionStore, logg))
				r.Delete("/items", controllers.CartDeleteSelected(sessionStore, logg))
				r.Post("/items/{itemId}/toggle", controllers.CartToggle(sessionStore, logg))
				r.Patch("/items/{itemId}", controllers.CartQuantity(sessionStore, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", controllers.CheckoutRequest(sessionStore, logg))
				r.Put("/", controllers.CheckoutPublish(sessionStore, logg))
				r.Get("/", controllers.CheckoutConfirmation(sessionStore, logg))
			})

			r.Route("/wizard", func(r chi.Router) {
				r.Get("/", controllers.WizardState(sessionStore, logg))
				r.Post("/next", controllers.WizardNext(sessionStore, logg))
				r.Post("/previous", controllers.WizardPrevious(sessionStore, logg))
				r.Put("/date", controllers.WizardDate(sessionStore, logg))
			})

			r.Post("/orders", controllers.OrderConfirm(sessionStore, logg))
			r.Get("/notifications", controllers.NotificationsDrain(sessionStore, logg))
		})
	})

	return r
}
