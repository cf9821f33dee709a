package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenancyhq/bazaar/pkg/audit"
	"github.com/tenancyhq/bazaar/pkg/auth"
	"github.com/tenancyhq/bazaar/pkg/authz"
	"github.com/tenancyhq/bazaar/pkg/contextkeys"
	"github.com/tenancyhq/bazaar/pkg/keyspace"
	"github.com/tenancyhq/bazaar/pkg/storage"
	"github.com/tenancyhq/bazaar/pkg/tenancy"
)

const (
	tenantA    = "11111111-1111-4111-8111-111111111111"
	testSecret = "test-secret-material"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

type chainFixture struct {
	router    *mux.Router
	validator *auth.Validator
	resolver  *tenancy.Resolver
	mr        *miniredis.Miniredis
	store     *tenancy.Store
}

func setupChain(t *testing.T) *chainFixture {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	config := storage.DefaultConfig()
	config.RedisURL = "redis://" + mr.Addr()
	kv, err := storage.NewRedisStore(config)
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	logger, _ := test.NewNullLogger()
	recorder := audit.NewMemoryRecorder()
	ns := keyspace.New(logger, recorder)
	store := tenancy.NewStore(kv, ns, logger, 0)
	checker := tenancy.NewChecker(store, recorder, logger)

	cfg := auth.DefaultValidatorConfig(auth.Secret(testSecret))
	cfg.Now = func() time.Time { return testNow }
	validator, err := auth.NewValidator(cfg, logger)
	require.NoError(t, err)

	service := authz.NewService(validator, checker, recorder, logger, nil)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	bearer := NewBearerAuth(validator, logger, false)
	router := mux.NewRouter()
	router.Handle("/api/v1/tenants/{tenant}/listings",
		TenantFromRoute(bearer.Handler(RequirePermission(service, "listing:read")(ok)))).
		Methods(http.MethodGet)

	return &chainFixture{
		router:    router,
		validator: validator,
		resolver:  tenancy.NewResolver(kv, ns, logger),
		mr:        mr,
		store:     store,
	}
}

func (f *chainFixture) seed(t *testing.T, m tenancy.Membership, roles ...tenancy.Role) {
	t.Helper()
	data, err := json.Marshal(m)
	require.NoError(t, err)
	require.NoError(t, f.mr.Set(f.store.MembershipKey(m.TenantID, m.UserID), string(data)))
	for _, r := range roles {
		data, err := json.Marshal(r)
		require.NoError(t, err)
		require.NoError(t, f.mr.Set(f.store.RoleKey(r.TenantID, r.ID), string(data)))
	}
}

func signChainToken(t *testing.T) string {
	t.Helper()
	claims := auth.Claims{
		TenantID: tenantA,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(testNow.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func get(f *chainFixture, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestChain_Allowed(t *testing.T) {
	f := setupChain(t)
	f.seed(t,
		tenancy.Membership{UserID: "u1", TenantID: tenantA, Roles: []string{"r1"}, IsActive: true},
		tenancy.Role{ID: "r1", Name: "viewer", TenantID: tenantA, Permissions: []string{"listing:read"}},
	)

	w := get(f, "/api/v1/tenants/"+tenantA+"/listings", "Bearer "+signChainToken(t))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChain_MissingHeader(t *testing.T) {
	f := setupChain(t)

	w := get(f, "/api/v1/tenants/"+tenantA+"/listings", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
}

func TestChain_BadToken(t *testing.T) {
	f := setupChain(t)

	w := get(f, "/api/v1/tenants/"+tenantA+"/listings", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, w.Body.String(), "malformed", "rejection detail must not leak to the client")
}

func TestChain_NoPermission(t *testing.T) {
	f := setupChain(t)
	f.seed(t, tenancy.Membership{UserID: "u1", TenantID: tenantA, Roles: nil, IsActive: true})

	w := get(f, "/api/v1/tenants/"+tenantA+"/listings", "Bearer "+signChainToken(t))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestChain_InvalidTenantInRoute(t *testing.T) {
	f := setupChain(t)

	w := get(f, "/api/v1/tenants/not-a-tenant/listings", "Bearer "+signChainToken(t))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChain_StoreOutage(t *testing.T) {
	f := setupChain(t)
	token := signChainToken(t)
	f.mr.Close()

	w := get(f, "/api/v1/tenants/"+tenantA+"/listings", "Bearer "+token)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTenantFromHost(t *testing.T) {
	f := setupChain(t)
	require.NoError(t, f.mr.Set("system:hostname:shop.example.com", tenantA))

	logger, _ := test.NewNullLogger()
	handler := NewTenantFromHost(f.resolver, logger).Handler(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if contextkeys.TenantFromContext(r.Context()) == tenantA {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
		}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "shop.example.com"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "unknown.example.com"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
