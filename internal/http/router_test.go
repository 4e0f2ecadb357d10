package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/store"
	"storefront/internal/tenancy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	repos    repository.Repositories
	sessions *auth.Sessions
	stores   service.StoreService
	catalog  service.CatalogService
	router   *Router
}

func newTestEnv(t *testing.T, ping func(ctx context.Context) error) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	repos, _ := repository.NewMemoryRepositories()
	kv := store.NewMemoryKV()
	events := store.NopPublisher{}

	sessions := auth.NewSessions("test-secret", false)
	identity := service.NewIdentityService(repos.Owners, kv, time.Minute, logger)
	ownership := service.NewOwnershipService(repos.Owners, repos.Stores, kv, events, logger, true)
	stores := service.NewStoreService(repos.Stores, ownership, kv, events, "shopfront.io", logger)
	catalog := service.NewCatalogService(stores, repos.Products, repos.BlogPosts, repos.Industries, nil, logger)
	subdomains := service.NewSubdomainService(nil, repos.Stores, stores, events, service.SubdomainConfig{ApexDomain: "shopfront.io"}, logger)

	return &testEnv{
		repos:    repos,
		sessions: sessions,
		stores:   stores,
		catalog:  catalog,
		router: NewRouter(Deps{
			Logger:     logger,
			Sessions:   sessions,
			Identity:   identity,
			Ownership:  ownership,
			Storefront: service.NewStorefrontService(repos.Stores, repos.Products, repos.BlogPosts, kv, time.Minute, logger),
			Subdomains: subdomains,
			Catalog:    catalog,
			Ping:       ping,
		}),
	}
}

func (e *testEnv) token(t *testing.T, id string) string {
	t.Helper()
	tok, err := e.sessions.Issue(domain.Identity{ID: id, Name: id, Email: id + "@example.com"})
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Result[json.RawMessage] {
	t.Helper()
	var res Result[json.RawMessage]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, func(context.Context) error { return nil })
	rec := env.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ResultSuccess, decode(t, rec).Code)

	env = newTestEnv(t, func(context.Context) error { return errors.New("neo4j down") })
	rec = env.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "backend unavailable", decode(t, rec).Message)
}

func TestSession(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/auth/session", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":null}`, string(decode(t, rec).Result))

	rec = env.do(t, http.MethodGet, "/auth/session", env.token(t, "u1"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view sessionView
	require.NoError(t, json.Unmarshal(decode(t, rec).Result, &view))
	require.NotNil(t, view.User)
	assert.Equal(t, "u1", view.User.ID)

	// 登录请求会同步 owner 节点
	owner, err := env.repos.Owners.GetOwner(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", owner.Email)
}

func TestSessionCookie(t *testing.T) {
	env := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: env.token(t, "u2")})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	var view sessionView
	require.NoError(t, json.Unmarshal(decode(t, rec).Result, &view))
	require.NotNil(t, view.User)
	assert.Equal(t, "u2", view.User.ID)
}

func TestSignOut(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/auth/signout", env.token(t, "u1"), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var cleared *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			cleared = c
		}
	}
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}

func TestOwnerRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/debug-relationships", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, ResultError, decode(t, rec).Code)

	rec = env.do(t, http.MethodGet, "/api/debug-relationships", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, ResultTokenExpired, decode(t, rec).Code)

	rec = env.do(t, http.MethodPost, "/api/setup-subdomain", "", `{"storeId":"s1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpiredSession(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := env.token(t, "u1")
	env.sessions.Now = func() time.Time { return time.Now().Add(auth.SessionDuration + time.Hour) }

	rec := env.do(t, http.MethodGet, "/api/debug-relationships", tok, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, ResultTokenExpired, decode(t, rec).Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/setup-subdomain", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrAuthRequired, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrStoreNotFound, http.StatusNotFound},
		{domain.InvalidInput("bad"), http.StatusBadRequest},
		{domain.ErrSubdomainTaken, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestTenantHostReachesStorefront(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.repos.Stores.CreateStore(context.Background(), "", &domain.Store{Name: "Acme", Subdomain: "acme"})
	require.NoError(t, err)

	h := tenancy.NewResolver("shopfront", zap.NewNop()).Middleware(env.router)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "acme.shopfront.io"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var view storeSummaryView
	require.NoError(t, json.Unmarshal(decode(t, rec).Result, &view))
	assert.Equal(t, "Acme", view.Name)

	// apex 域名不改写
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Host = "shopfront.io"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
