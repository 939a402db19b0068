package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	commissioncontrollers "github.com/vendora-hq/fulfillment-backend/api/controllers/commissions"
	healthcontrollers "github.com/vendora-hq/fulfillment-backend/api/controllers/health"
	ordercontrollers "github.com/vendora-hq/fulfillment-backend/api/controllers/orders"
	"github.com/vendora-hq/fulfillment-backend/api/middleware"
	"github.com/vendora-hq/fulfillment-backend/internal/cancellation"
	"github.com/vendora-hq/fulfillment-backend/internal/checkout"
	"github.com/vendora-hq/fulfillment-backend/internal/commission"
	"github.com/vendora-hq/fulfillment-backend/internal/forwarding"
	"github.com/vendora-hq/fulfillment-backend/internal/orders"
	"github.com/vendora-hq/fulfillment-backend/pkg/config"
	"github.com/vendora-hq/fulfillment-backend/pkg/db"
	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
	"github.com/vendora-hq/fulfillment-backend/pkg/logger"
	"github.com/vendora-hq/fulfillment-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	checkoutService checkout.Service,
	ordersService orders.Service,
	forwardingService forwarding.Service,
	cancellationService cancellation.Service,
	commissionService commission.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", healthcontrollers.Live(cfg))
		r.Get("/ready", healthcontrollers.Ready(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Post("/checkout", ordercontrollers.Checkout(checkoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(ordersService, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(ordersService, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.CustomerCancel(cancellationService, logg))
			r.Route("/{orderId}/units/{owner}", func(r chi.Router) {
				r.Post("/transition", ordercontrollers.TransitionUnit(ordersService, logg))
				r.Post("/cancel", ordercontrollers.CancelUnit(cancellationService, logg))
				r.Post("/items/cancel", ordercontrollers.CancelLineItems(cancellationService, logg))
			})
		})

		r.Get("/commissions", commissioncontrollers.Report(commissionService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireActorTypes(logg, enums.ActorTypeAdmin))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/{orderId}/forward", ordercontrollers.Forward(forwardingService, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.CancelOrder(cancellationService, logg))
		})
		r.Post("/commissions/{recordId}/settle", commissioncontrollers.Settle(commissionService, logg))
	})

	return r
}
