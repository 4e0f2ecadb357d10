package httpapi

import (
	"context"
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Deps 路由依赖；GitHub / GraphQL / Ping 可为 nil
type Deps struct {
	Logger      *zap.Logger
	Sessions    *auth.Sessions
	GitHub      *auth.GitHub
	Identity    service.IdentityService
	Ownership   *service.OwnershipService
	Storefront  service.StorefrontService
	Subdomains  service.SubdomainService
	Catalog     service.CatalogService
	GraphQL     http.Handler
	Ping        func(ctx context.Context) error
	CORSOrigins []string
}

// Router 基于 chi；租户改写（tenancy）在外层完成，这里只看到 /store/<subdomain> 路径
type Router struct {
	mux    chi.Router
	logger *zap.Logger
	deps   Deps
}

func NewRouter(d Deps) *Router {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	rt := &Router{mux: chi.NewRouter(), logger: d.Logger, deps: d}

	rt.mux.Use(chimw.RequestID)
	rt.mux.Use(chimw.RealIP)
	rt.mux.Use(rt.logRequests)
	rt.mux.Use(chimw.Recoverer)
	rt.mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins(d.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	rt.mux.Use(rt.loadSession)

	rt.RegisterHealthRoutes()
	rt.RegisterAuthRoutes()
	rt.RegisterGraphQLRoutes()
	rt.RegisterOwnerRoutes()
	rt.RegisterStorefrontRoutes()
	return rt
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	rt.mux.ServeHTTP(w, req)
}

func (rt *Router) RegisterHealthRoutes() {
	rt.mux.Get("/healthz", rt.health)
}

// RegisterAuthRoutes GitHub 未配置时 signin/callback 返回 404
func (rt *Router) RegisterAuthRoutes() {
	if gh := rt.deps.GitHub; gh != nil {
		rt.mux.Get("/auth/signin/github", gh.Login())
		rt.mux.Get("/auth/callback/github", gh.Callback())
	}
	rt.mux.Post("/auth/signout", rt.signOut)
	rt.mux.Get("/auth/session", rt.session)
}

func (rt *Router) RegisterGraphQLRoutes() {
	if rt.deps.GraphQL == nil {
		return
	}
	rt.mux.Get("/api/graphql", rt.deps.GraphQL.ServeHTTP)
	rt.mux.Post("/api/graphql", rt.deps.GraphQL.ServeHTTP)
}

// RegisterOwnerRoutes 需要登录的 REST 接口
func (rt *Router) RegisterOwnerRoutes() {
	rt.mux.Group(func(r chi.Router) {
		r.Use(rt.requireAuth)
		r.Post("/api/setup-subdomain", rt.setupSubdomain)
		r.Get("/api/debug-relationships", rt.debugRelationships)
		r.Get("/api/stores/{storeId}/products/export", rt.exportProducts)
	})
}

// RegisterStorefrontRoutes 公开店铺页（无需登录）
func (rt *Router) RegisterStorefrontRoutes() {
	rt.mux.Route("/store/{subdomain}", func(r chi.Router) {
		r.Get("/", rt.storeSummary)
		r.Get("/products", rt.storeProducts)
		r.Get("/products/{productId}", rt.storeProduct)
		r.Get("/blog", rt.storeBlog)
	})
}
