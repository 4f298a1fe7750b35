package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smartkartops/smartkart-backend/api/controllers"
	"github.com/smartkartops/smartkart-backend/api/middleware"
	"github.com/smartkartops/smartkart-backend/internal/discounts"
	"github.com/smartkartops/smartkart-backend/internal/payments"
	"github.com/smartkartops/smartkart-backend/internal/reconcile"
	"github.com/smartkartops/smartkart-backend/internal/records"
	"github.com/smartkartops/smartkart-backend/internal/rewards"
	"github.com/smartkartops/smartkart-backend/pkg/config"
	"github.com/smartkartops/smartkart-backend/pkg/db"
	"github.com/smartkartops/smartkart-backend/pkg/logger"
	"github.com/smartkartops/smartkart-backend/pkg/redis"
)

// Deps groups everything the router wires into handlers.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        db.Pinger
	Redis     *redis.Client
	Registry  *prometheus.Registry
	Records   records.Service
	Reconcile reconcile.Service
	Payments  payments.Service
	Discounts discounts.Service
	Rewards   rewards.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, healthDeps(deps)))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/records", func(r chi.Router) {
			r.Post("/orders", controllers.IngestOrder(deps.Records, logg))
			r.Post("/leads", controllers.IngestLead(deps.Records, logg))
			r.Put("/{recordID}/override", controllers.PutOverride(deps.Records, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(deps.Reconcile, logg))
			r.Get("/{code}", controllers.GetOrder(deps.Reconcile, logg))
			r.Get("/{code}/authorization", controllers.GetAuthorization(deps.Payments, logg))
			r.Post("/{code}/transition", controllers.Transition(deps.Payments, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/verify-intent", controllers.VerifyIntent(deps.Payments, deps.Discounts, logg))
			r.Post("/authorize", controllers.Authorize(deps.Payments, deps.Discounts, logg))
		})

		r.Route("/discounts", func(r chi.Router) {
			r.Get("/", controllers.ListDiscounts(deps.Discounts, logg))
			r.Post("/resolve", controllers.ResolveDiscount(deps.Discounts, logg))
			r.Put("/{ruleID}", controllers.PutDiscount(deps.Discounts, logg))
		})

		r.Get("/rewards/{phone}", controllers.GetLoyaltyCard(deps.Rewards, logg))
	})

	return r
}

func healthDeps(deps Deps) map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{}
	if deps.DB != nil {
		checks["database"] = deps.DB
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	return checks
}
