package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vinco/vinco-backend/api/controllers"
	"github.com/vinco/vinco-backend/api/middleware"
	"github.com/vinco/vinco-backend/internal/auth"
	"github.com/vinco/vinco-backend/internal/cellars"
	"github.com/vinco/vinco-backend/internal/harvests"
	"github.com/vinco/vinco-backend/internal/ledger"
	"github.com/vinco/vinco-backend/internal/organizations"
	"github.com/vinco/vinco-backend/internal/packaging"
	"github.com/vinco/vinco-backend/internal/vineyards"
	"github.com/vinco/vinco-backend/pkg/auth/session"
	"github.com/vinco/vinco-backend/pkg/config"
	"github.com/vinco/vinco-backend/pkg/enums"
	"github.com/vinco/vinco-backend/pkg/logger"
	"github.com/vinco/vinco-backend/pkg/metrics"
	pkgredis "github.com/vinco/vinco-backend/pkg/redis"
)

// RedisBackend is the slice of the redis client the HTTP layer depends on:
// rate-limit counters, idempotency records and readiness.
type RedisBackend interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (pkgredis.WindowResult, error)
	Ping(ctx context.Context) error
}

// Dependencies bundles everything the router wires into handlers.
type Dependencies struct {
	Config  *config.Config
	Logger  *logger.Logger
	Metrics *metrics.HTTPMetrics
	// MetricsHandler serves /metrics; nil disables the endpoint.
	MetricsHandler http.Handler

	DB          controllers.Pinger
	Redis       RedisBackend
	Sessions    session.AccessSessionChecker
	Memberships middleware.MembershipLookup

	Auth          auth.Service
	Register      auth.RegisterService
	Organizations organizations.Service
	Vineyards     vineyards.Service
	Harvests      harvests.Service
	Cellars       cellars.Service
	Ledger        ledger.Service
	Packaging     packaging.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.Metrics),
		middleware.SecurityHeaders,
		middleware.CORS(cfg.CORS),
	)

	readiness := map[string]controllers.Pinger{"db": deps.DB}
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
	}

	var loginRate, viewRate config.Rate
	if cfg.RateLimit.Enabled {
		// Both rates are validated when the config is loaded.
		loginRate, _ = cfg.RateLimit.LoginRate()
		viewRate, _ = cfg.RateLimit.ViewRate()
	}
	loginLimit := middleware.RateLimit(middleware.LoginRateLimitPolicy(loginRate), deps.Redis, logg)
	registerLimit := middleware.RateLimit(middleware.RegisterRateLimitPolicy(loginRate), deps.Redis, logg)
	viewLimit := middleware.RateLimit(middleware.ViewRateLimitPolicy(viewRate), deps.Redis, logg)
	idempotent := middleware.Idempotency(deps.Redis, cfg.Idempotency.TTL, logg)
	managers := middleware.RequireRoles(logg, enums.MemberRoleOwner, enums.MemberRoleAdmin)
	owners := middleware.RequireRoles(logg, enums.MemberRoleOwner)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimit).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.With(registerLimit).Post("/register", controllers.AuthRegister(deps.Register, logg))
			r.With(viewLimit).Post("/refresh", controllers.AuthRefresh(deps.Auth, cfg.JWT, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

			r.Post("/auth/logout", controllers.AuthLogout(deps.Auth, logg))
			r.Post("/auth/select-organization", controllers.AuthSelectOrganization(deps.Auth, logg))
			r.Get("/me/organizations", controllers.MyOrganizations(deps.Organizations, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.OrganizationContext(deps.Memberships, logg))
				r.Use(viewLimit)

				r.Route("/organization", func(r chi.Router) {
					r.Get("/", controllers.OrganizationCurrent(deps.Organizations, logg))
					r.With(managers).Patch("/", controllers.OrganizationUpdate(deps.Organizations, logg))
					r.Get("/members", controllers.OrganizationMembers(deps.Organizations, logg))
					r.With(managers).Post("/members", controllers.OrganizationAddMember(deps.Organizations, logg))
				})

				r.Route("/suppliers", func(r chi.Router) {
					r.Get("/", controllers.SupplierList(deps.Vineyards, logg))
					r.Post("/", controllers.SupplierCreate(deps.Vineyards, logg))
					r.Get("/{supplierId}", controllers.SupplierGet(deps.Vineyards, logg))
					r.Put("/{supplierId}", controllers.SupplierUpdate(deps.Vineyards, logg))
					r.Delete("/{supplierId}", controllers.SupplierDelete(deps.Vineyards, logg))
				})

				r.Route("/grape-varieties", func(r chi.Router) {
					r.Get("/", controllers.VarietyList(deps.Vineyards, logg))
					r.Post("/", controllers.VarietyCreate(deps.Vineyards, logg))
					r.Get("/{varietyId}", controllers.VarietyGet(deps.Vineyards, logg))
					r.Put("/{varietyId}", controllers.VarietyUpdate(deps.Vineyards, logg))
					r.Delete("/{varietyId}", controllers.VarietyDelete(deps.Vineyards, logg))
				})

				r.Route("/vineyards", func(r chi.Router) {
					r.Get("/", controllers.VineyardList(deps.Vineyards, logg))
					r.Post("/", controllers.VineyardCreate(deps.Vineyards, logg))
					r.Get("/{vineyardId}", controllers.VineyardGet(deps.Vineyards, logg))
					r.Put("/{vineyardId}", controllers.VineyardUpdate(deps.Vineyards, logg))
					r.Delete("/{vineyardId}", controllers.VineyardDelete(deps.Vineyards, logg))
				})

				r.Route("/harvests", func(r chi.Router) {
					r.Get("/", controllers.HarvestList(deps.Harvests, logg))
					r.Post("/", controllers.HarvestCreate(deps.Harvests, logg))
					r.Route("/{harvestId}", func(r chi.Router) {
						r.Get("/", controllers.HarvestGet(deps.Harvests, logg))
						r.Put("/", controllers.HarvestUpdate(deps.Harvests, logg))
						r.Delete("/", controllers.HarvestDelete(deps.Harvests, logg))
						r.Get("/allocations", controllers.AllocationList(deps.Harvests, logg))
						r.With(idempotent).Post("/allocations", controllers.AllocationCreate(deps.Harvests, logg))
						r.Patch("/allocations/{allocationId}", controllers.AllocationUpdate(deps.Harvests, logg))
						r.Delete("/allocations/{allocationId}", controllers.AllocationDelete(deps.Harvests, logg))
					})
				})

				r.Route("/cellars", func(r chi.Router) {
					r.Get("/", controllers.CellarList(deps.Cellars, logg))
					r.Post("/", controllers.CellarCreate(deps.Cellars, logg))
					r.Get("/{cellarId}", controllers.CellarGet(deps.Cellars, logg))
					r.Patch("/{cellarId}", controllers.CellarUpdate(deps.Cellars, logg))
					r.Delete("/{cellarId}", controllers.CellarDelete(deps.Cellars, logg))
				})

				r.Route("/tanks", func(r chi.Router) {
					r.Get("/", controllers.TankList(deps.Cellars, logg))
					r.Post("/", controllers.TankCreate(deps.Cellars, logg))
					r.With(idempotent).Post("/transfers", controllers.TankTransfer(deps.Cellars, logg))
					r.Route("/{tankId}", func(r chi.Router) {
						r.Get("/", controllers.TankGet(deps.Cellars, logg))
						r.Patch("/", controllers.TankUpdate(deps.Cellars, logg))
						r.Delete("/", controllers.TankDelete(deps.Cellars, logg))
						r.Get("/history", controllers.TankHistory(deps.Cellars, logg))
						r.With(managers, idempotent).Post("/adjustments", controllers.TankAdjust(deps.Cellars, logg))
					})
				})

				r.Get("/history", controllers.HistoryList(deps.Ledger, logg))

				r.Route("/packaging", func(r chi.Router) {
					r.Get("/low-stock", controllers.MaterialLowStock(deps.Packaging, logg))
					r.Get("/{kind}", controllers.MaterialList(deps.Packaging, logg))
					r.Post("/{kind}", controllers.MaterialCreate(deps.Packaging, logg))
					r.Get("/{kind}/{materialId}", controllers.MaterialGet(deps.Packaging, logg))
					r.Put("/{kind}/{materialId}", controllers.MaterialUpdate(deps.Packaging, logg))
					r.Delete("/{kind}/{materialId}", controllers.MaterialDelete(deps.Packaging, logg))
				})

				r.Get("/bottlings", controllers.BottlingList(deps.Packaging, logg))
				r.With(idempotent).Post("/bottlings", controllers.BottlingCreate(deps.Packaging, logg))
				r.Get("/bottlings/{bottlingId}", controllers.BottlingGet(deps.Packaging, logg))
				r.Put("/bottlings/{bottlingId}", controllers.BottlingUpdate(deps.Packaging, logg))

				r.Route("/reconcile", func(r chi.Router) {
					r.With(managers).Get("/", controllers.ReconcileReport(deps.Ledger, logg))
					r.With(owners).Post("/", controllers.ReconcileFix(deps.Ledger, logg))
				})
			})
		})
	})

	return r
}

