package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/marketadmin-backend/api/controllers"
	"github.com/angelmondragon/marketadmin-backend/api/middleware"
	"github.com/angelmondragon/marketadmin-backend/internal/commissions"
	"github.com/angelmondragon/marketadmin-backend/internal/vendors"
	"github.com/angelmondragon/marketadmin-backend/pkg/config"
	"github.com/angelmondragon/marketadmin-backend/pkg/logger"
	"github.com/angelmondragon/marketadmin-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	idempotencyStore redis.IdempotencyStore,
	commissionService commissions.Service,
	vendorService vendors.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": dbP,
			"redis":    redisP,
		}))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, logg),
			middleware.RequireCommissionManager(logg),
			middleware.Idempotency(idempotencyStore, cfg.Redis.IdempotencyTTL, logg),
		)

		r.Route("/commissions", func(r chi.Router) {
			r.Get("/", controllers.CommissionList(commissionService, logg))
			r.Post("/", controllers.CommissionCreate(commissionService, logg))
			r.Get("/summary", controllers.CommissionSummary(commissionService, logg))
			r.Post("/special", controllers.CommissionCreateSpecial(commissionService, logg))
			r.Post("/defaults/{classification}", controllers.CommissionDefault(commissionService, logg))
			r.Get("/resolve/vendors/{vendorID}", controllers.CommissionResolveVendor(commissionService, logg))
			r.Get("/resolve/categories/{categoryID}", controllers.CommissionResolveCategory(commissionService, logg))
			r.Get("/resolve/periods", controllers.CommissionActivePeriod(commissionService, logg))
			r.Get("/{commissionID}", controllers.CommissionGet(commissionService, logg))
			r.Patch("/{commissionID}", controllers.CommissionUpdate(commissionService, logg))
			r.Post("/{commissionID}/assign", controllers.CommissionAssign(commissionService, logg))
		})

		r.Route("/vendors", func(r chi.Router) {
			r.Get("/commissions", controllers.VendorCommissions(commissionService, logg))
			r.Get("/counts", controllers.VendorCounts(vendorService, logg))
			r.Patch("/{vendorID}/classification", controllers.VendorSetClassification(vendorService, logg))
		})
	})

	return r
}
