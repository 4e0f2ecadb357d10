package tenancy

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestResolve(t *testing.T) {
	r := NewResolver("example", zap.NewNop())

	cases := []struct {
		host   string
		sub    string
		tenant bool
	}{
		{"acme.example.com", "acme", true},
		{"ACME.Example.com:3000", "acme", true},
		{"shop.localhost:8080", "shop", true},
		{"www.example.com", "", false},
		{"example.com", "", false},
		{"localhost", "", false},
		{"localhost:3000", "", false},
		{"", "", false},
		{".example.com", "", false},
		{"127.0.0.1:8080", "", false},
		{"[::1]:8080", "", false},
		{"acme.example.com.", "acme", true},
	}
	for _, tc := range cases {
		t.Run(tc.host, func(t *testing.T) {
			sub, ok := r.Resolve(tc.host)
			assert.Equal(t, tc.tenant, ok)
			assert.Equal(t, tc.sub, sub)
		})
	}
}

func TestRewrite(t *testing.T) {
	assert.Equal(t, "/store/acme/products", Rewrite("acme", "/products"))
	assert.Equal(t, "/store/acme/", Rewrite("acme", "/"))
	assert.Equal(t, "/store/acme/", Rewrite("acme", ""))
	assert.Equal(t, "/store/acme/blog/a/b/", Rewrite("acme", "/blog/a/b/"))
}

func TestMiddleware(t *testing.T) {
	r := NewResolver("example", zap.NewNop())

	var gotPath, gotSub string
	var gotTenant bool
	h := r.Middleware(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.Path
		gotSub, gotTenant = SubdomainFrom(req.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "http://acme.example.com/products?page=2", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "/store/acme/products", gotPath)
	assert.True(t, gotTenant)
	assert.Equal(t, "acme", gotSub)

	req = httptest.NewRequest(http.MethodGet, "http://www.example.com/products", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "/products", gotPath)
	assert.False(t, gotTenant)

	req = httptest.NewRequest(http.MethodGet, "http://example.com/dashboard", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "/dashboard", gotPath)
	assert.False(t, gotTenant)
}

func TestMiddleware_PreservesQuery(t *testing.T) {
	r := NewResolver("example", zap.NewNop())
	var raw string
	h := r.Middleware(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		raw = req.RequestURI
	}))
	req := httptest.NewRequest(http.MethodGet, "http://acme.example.com/products?page=2", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "/store/acme/products?page=2", raw)
}
