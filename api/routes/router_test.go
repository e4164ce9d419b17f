package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"

	"github.com/vinco/vinco-backend/internal/auth"
	"github.com/vinco/vinco-backend/internal/cellars"
	"github.com/vinco/vinco-backend/internal/ledger"
	"github.com/vinco/vinco-backend/internal/memberships"
	"github.com/vinco/vinco-backend/internal/organizations"
	pkgAuth "github.com/vinco/vinco-backend/pkg/auth"
	"github.com/vinco/vinco-backend/pkg/config"
	"github.com/vinco/vinco-backend/pkg/enums"
	"github.com/vinco/vinco-backend/pkg/logger"
	"github.com/vinco/vinco-backend/pkg/metrics"
	pkgredis "github.com/vinco/vinco-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

// memBackend is an in-memory stand-in for the redis client.
type memBackend struct {
	mu       sync.Mutex
	values   map[string]string
	counters map[string]int64
}

func newMemBackend() *memBackend {
	return &memBackend{values: map[string]string{}, counters: map[string]int64{}}
}

func (m *memBackend) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *memBackend) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memBackend) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (m *memBackend) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memBackend) FixedWindowAllow(_ context.Context, scope string, limit int64, window time.Duration) (pkgredis.WindowResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[scope]++
	count := m.counters[scope]
	result := pkgredis.WindowResult{Allowed: count <= limit, Count: count}
	if !result.Allowed {
		result.RetryAfter = window
	}
	return result, nil
}

func (m *memBackend) Ping(context.Context) error {
	return nil
}

type stubMemberships struct {
	role enums.MemberRole
}

func (s stubMemberships) GetMembershipWithOrganization(_ context.Context, userID, organizationID uuid.UUID) (*memberships.MembershipWithOrganization, error) {
	return &memberships.MembershipWithOrganization{
		UserID:             userID,
		OrganizationID:     organizationID,
		OrganizationActive: true,
		Role:               s.role,
	}, nil
}

type stubAuthService struct {
	auth.Service
}

func (stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{AccessToken: "token", RefreshToken: "refresh"}, nil
}

type stubOrganizationService struct {
	organizations.Service
}

func (stubOrganizationService) ListMine(context.Context, uuid.UUID) ([]memberships.MembershipWithOrganization, error) {
	return []memberships.MembershipWithOrganization{}, nil
}

type stubCellarService struct {
	cellars.Service
	mu        sync.Mutex
	transfers int
}

func (s *stubCellarService) Transfer(context.Context, uuid.UUID, uuid.UUID, cellars.TransferInput) (*cellars.TransferResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transfers++
	return &cellars.TransferResult{}, nil
}

type stubLedgerService struct {
	ledger.Service
}

func (stubLedgerService) Reconcile(_ context.Context, orgID uuid.UUID, _ bool) (*ledger.ReconcileReport, error) {
	return &ledger.ReconcileReport{OrganizationID: orgID}, nil
}

type testRouter struct {
	handler http.Handler
	cellars *stubCellarService
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
		Idempotency: config.IdempotencyConfig{TTL: time.Hour},
	}
}

func newTestRouter(cfg *config.Config, role enums.MemberRole) testRouter {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	reg := prometheus.NewRegistry()
	cellarSvc := &stubCellarService{}
	handler := NewRouter(Dependencies{
		Config:         cfg,
		Logger:         logg,
		Metrics:        metrics.NewHTTPMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		DB:             stubPinger{},
		Redis:          newMemBackend(),
		Sessions:       stubSessions{},
		Memberships:    stubMemberships{role: role},
		Auth:           stubAuthService{},
		Organizations:  stubOrganizationService{},
		Cellars:        cellarSvc,
		Ledger:         stubLedgerService{},
	})
	return testRouter{handler: handler, cellars: cellarSvc}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.MemberRole, withOrganization bool) string {
	t.Helper()
	payload := pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    uuid.NewString(),
	}
	if withOrganization {
		orgID := uuid.New()
		payload.ActiveOrganizationID = &orgID
	}
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), payload)
	require.NoError(t, err)
	return token
}

func do(router http.Handler, method, target, token, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestProtectedRoutesRejectMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), enums.MemberRoleOwner)
	for _, target := range []string{"/api/v1/vineyards", "/api/v1/tanks", "/api/v1/history", "/api/v1/me/organizations"} {
		resp := do(router.handler, http.MethodGet, target, "", "", nil)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 without token got %d", target, resp.Code)
		}
	}
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(testConfig(), enums.MemberRoleOwner)

	live := do(router.handler, http.MethodGet, "/health/live", "", "", nil)
	require.Equal(t, http.StatusOK, live.Code)
	require.Equal(t, "test", live.Header().Get("X-Vinco-Env"))

	ready := do(router.handler, http.MethodGet, "/health/ready", "", "", nil)
	require.Equal(t, http.StatusOK, ready.Code)
	require.Contains(t, ready.Body.String(), `"redis"`)
}

func TestMetricsEndpointExposesRequestCounters(t *testing.T) {
	router := newTestRouter(testConfig(), enums.MemberRoleOwner)
	do(router.handler, http.MethodGet, "/health/live", "", "", nil)

	resp := do(router.handler, http.MethodGet, "/metrics", "", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "/health/live")
}

func TestOrganizationScopedRoutesRequireActiveOrganization(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, enums.MemberRoleOwner)
	token := buildToken(t, cfg, enums.MemberRoleOwner, false)

	resp := do(router.handler, http.MethodGet, "/api/v1/reconcile", token, "", nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without organization got %d", resp.Code)
	}

	mine := do(router.handler, http.MethodGet, "/api/v1/me/organizations", token, "", nil)
	if mine.Code != http.StatusOK {
		t.Fatalf("expected 200 listing organizations got %d", mine.Code)
	}
}

func TestMemberCannotUpdateOrganization(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, enums.MemberRoleMember)
	token := buildToken(t, cfg, enums.MemberRoleMember, true)

	resp := do(router.handler, http.MethodPatch, "/api/v1/organization", token, `{"name":"Renamed"}`, nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for member got %d", resp.Code)
	}
}

func TestStoredRoleOverridesTokenRole(t *testing.T) {
	cfg := testConfig()
	// The token still says owner but the membership has been demoted.
	router := newTestRouter(cfg, enums.MemberRoleMember)
	token := buildToken(t, cfg, enums.MemberRoleOwner, true)

	resp := do(router.handler, http.MethodGet, "/api/v1/reconcile", token, "", nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 after demotion got %d", resp.Code)
	}
}

func TestReconcileRoles(t *testing.T) {
	cfg := testConfig()
	admin := newTestRouter(cfg, enums.MemberRoleAdmin)
	adminToken := buildToken(t, cfg, enums.MemberRoleAdmin, true)

	report := do(admin.handler, http.MethodGet, "/api/v1/reconcile", adminToken, "", nil)
	require.Equal(t, http.StatusOK, report.Code)

	fix := do(admin.handler, http.MethodPost, "/api/v1/reconcile", adminToken, "", nil)
	require.Equal(t, http.StatusForbidden, fix.Code)

	owner := newTestRouter(cfg, enums.MemberRoleOwner)
	ownerToken := buildToken(t, cfg, enums.MemberRoleOwner, true)
	fix = do(owner.handler, http.MethodPost, "/api/v1/reconcile", ownerToken, "", nil)
	require.Equal(t, http.StatusOK, fix.Code)
}

func TestTransferRequiresIdempotencyKey(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, enums.MemberRoleMember)
	token := buildToken(t, cfg, enums.MemberRoleMember, true)
	body := `{"source_tank_id":"` + uuid.NewString() + `","destination_tank_id":"` + uuid.NewString() + `","volume":"100","date":"2024-10-02"}`

	missing := do(router.handler, http.MethodPost, "/api/v1/tanks/transfers", token, body, nil)
	require.Equal(t, http.StatusBadRequest, missing.Code)
	require.Equal(t, 0, router.cellars.transfers)

	headers := map[string]string{"Idempotency-Key": "transfer-1"}
	first := do(router.handler, http.MethodPost, "/api/v1/tanks/transfers", token, body, headers)
	require.Equal(t, http.StatusCreated, first.Code)

	replay := do(router.handler, http.MethodPost, "/api/v1/tanks/transfers", token, body, headers)
	require.Equal(t, http.StatusCreated, replay.Code)
	require.Equal(t, first.Body.String(), replay.Body.String())
	require.Equal(t, 1, router.cellars.transfers)
}

func TestLoginRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, Login: "2/m", View: "100/h"}
	router := newTestRouter(cfg, enums.MemberRoleOwner)
	body := `{"email":"owner@example.com","password":"secret"}`

	for i := 0; i < 2; i++ {
		resp := do(router.handler, http.MethodPost, "/api/v1/auth/login", "", body, nil)
		require.Equal(t, http.StatusOK, resp.Code)
	}

	blocked := do(router.handler, http.MethodPost, "/api/v1/auth/login", "", body, nil)
	require.Equal(t, http.StatusTooManyRequests, blocked.Code)
	require.Equal(t, "60", blocked.Header().Get("Retry-After"))
}

func TestRefreshAndRegisterDoNotSpendLoginBudget(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, Login: "2/m", View: "100/h"}
	router := newTestRouter(cfg, enums.MemberRoleOwner)

	for i := 0; i < 3; i++ {
		resp := do(router.handler, http.MethodPost, "/api/v1/auth/refresh", "", `{}`, nil)
		require.NotEqual(t, http.StatusTooManyRequests, resp.Code)
	}
	for i := 0; i < 2; i++ {
		resp := do(router.handler, http.MethodPost, "/api/v1/auth/register", "", `{}`, nil)
		require.NotEqual(t, http.StatusTooManyRequests, resp.Code)
	}

	body := `{"email":"owner@example.com","password":"secret"}`
	for i := 0; i < 2; i++ {
		resp := do(router.handler, http.MethodPost, "/api/v1/auth/login", "", body, nil)
		require.Equal(t, http.StatusOK, resp.Code)
	}

	signup := do(router.handler, http.MethodPost, "/api/v1/auth/register", "", `{}`, nil)
	require.Equal(t, http.StatusTooManyRequests, signup.Code)
}
