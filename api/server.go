package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vinco/vinco-backend/api/routes"
	"github.com/vinco/vinco-backend/internal/auth"
	"github.com/vinco/vinco-backend/internal/cellars"
	"github.com/vinco/vinco-backend/internal/harvests"
	"github.com/vinco/vinco-backend/internal/ledger"
	"github.com/vinco/vinco-backend/internal/memberships"
	"github.com/vinco/vinco-backend/internal/organizations"
	"github.com/vinco/vinco-backend/internal/packaging"
	"github.com/vinco/vinco-backend/internal/users"
	"github.com/vinco/vinco-backend/internal/vineyards"
	"github.com/vinco/vinco-backend/pkg/auth/session"
	"github.com/vinco/vinco-backend/pkg/config"
	"github.com/vinco/vinco-backend/pkg/db"
	"github.com/vinco/vinco-backend/pkg/logger"
	"github.com/vinco/vinco-backend/pkg/metrics"
	"github.com/vinco/vinco-backend/pkg/redis"
)

// Params carries the connected infrastructure the API is built on.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Redis    *redis.Client
	Sessions *session.Manager
	// Registry receives the HTTP and ledger collectors. Defaults to a fresh
	// registry so repeated construction in tests does not collide.
	Registry *prometheus.Registry
}

// NewHandler builds every repository and service and returns the routed API.
func NewHandler(p Params) (http.Handler, error) {
	if p.Config == nil || p.DB == nil {
		return nil, fmt.Errorf("config and database are required")
	}
	reg := p.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	conn := p.DB.DB()
	membershipRepo := memberships.NewRepository(conn)
	userRepo := users.NewRepository(conn)

	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:        userRepo,
		MembershipsRepo: membershipRepo,
		SessionManager:  p.Sessions,
		JWTConfig:       p.Config.JWT,
	})
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}
	registerSvc, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       p.DB,
		PasswordConfig: p.Config.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("register service: %w", err)
	}
	orgSvc, err := organizations.NewService(organizations.NewRepository(conn), membershipRepo, userRepo, p.Config.Password)
	if err != nil {
		return nil, fmt.Errorf("organization service: %w", err)
	}

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), p.DB, metrics.NewLedgerMetrics(reg), p.Logger)
	if err != nil {
		return nil, fmt.Errorf("ledger service: %w", err)
	}
	vineyardRepo := vineyards.NewRepository(conn)
	vineyardSvc, err := vineyards.NewService(vineyardRepo, p.DB)
	if err != nil {
		return nil, fmt.Errorf("vineyard service: %w", err)
	}
	harvestSvc, err := harvests.NewService(harvests.NewRepository(conn), vineyardRepo, ledgerSvc, p.DB)
	if err != nil {
		return nil, fmt.Errorf("harvest service: %w", err)
	}
	cellarSvc, err := cellars.NewService(cellars.NewRepository(conn), ledgerSvc, p.DB)
	if err != nil {
		return nil, fmt.Errorf("cellar service: %w", err)
	}
	packagingSvc, err := packaging.NewService(packaging.NewRepository(conn), ledgerSvc, p.DB)
	if err != nil {
		return nil, fmt.Errorf("packaging service: %w", err)
	}

	deps := routes.Dependencies{
		Config:        p.Config,
		Logger:        p.Logger,
		DB:            p.DB,
		Sessions:      p.Sessions,
		Memberships:   membershipRepo,
		Auth:          authSvc,
		Register:      registerSvc,
		Organizations: orgSvc,
		Vineyards:     vineyardSvc,
		Harvests:      harvestSvc,
		Cellars:       cellarSvc,
		Ledger:        ledgerSvc,
		Packaging:     packagingSvc,
	}
	if p.Redis != nil {
		deps.Redis = p.Redis
	}
	if p.Config.Metrics.Enabled {
		deps.Metrics = metrics.NewHTTPMetrics(reg)
		deps.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}
	return routes.NewRouter(deps), nil
}

// NewServer wraps the handler with the listener timeouts used in every environment.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
