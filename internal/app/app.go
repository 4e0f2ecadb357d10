// Package app wires configuration into repositories, caches and services.
// Both the HTTP server and storectl build on it.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/graph"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/store"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// App 进程级依赖集合
type App struct {
	Config *config.Config
	Logger *zap.Logger

	Repos   repository.Repositories
	Backend string
	KV      store.KV
	Events  store.Publisher

	Sessions   *auth.Sessions
	GitHub     *auth.GitHub
	Identity   service.IdentityService
	Ownership  *service.OwnershipService
	Stores     service.StoreService
	Storefront service.StorefrontService
	Catalog    service.CatalogService
	Subdomains service.SubdomainService

	redis  *redis.Client
	neo4j  *graph.Neo4jRunner
	sqlDB  *sql.DB
	strict bool
}

type Option func(*App)

// Strict 后端不可用时直接报错，不回退到内存
func Strict() Option { return func(a *App) { a.strict = true } }

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	a := &App{Config: cfg, Logger: logger}
	for _, o := range opts {
		o(a)
	}
	if err := a.openBackend(ctx); err != nil {
		return nil, err
	}
	a.openCache(ctx)
	a.buildServices()
	return a, nil
}

func (a *App) openBackend(ctx context.Context) error {
	cfg := a.Config
	switch cfg.Backend {
	case config.BackendNeo4j:
		r, err := graph.NewNeo4jRunner(ctx, graph.Config{
			URI:      cfg.Neo4j.URI,
			User:     cfg.Neo4j.User,
			Password: cfg.Neo4j.Password,
			Database: cfg.Neo4j.Database,
		}, a.Logger)
		if err == nil {
			a.neo4j = r
			a.Repos = repository.NewNeo4jRepositories(r)
			a.Backend = config.BackendNeo4j
			a.Logger.Info("Neo4j backend enabled", zap.String("uri", cfg.Neo4j.URI))
			return nil
		}
		if a.strict {
			return err
		}
		a.Logger.Warn("Neo4j unavailable, falling back to memory backend", zap.Error(err))
	case config.BackendPostgres:
		db, err := database.NewPostgresDB(&cfg.Database)
		if err == nil {
			a.sqlDB = db
			a.Repos = repository.NewPostgresRepositories(db)
			a.Backend = config.BackendPostgres
			a.Logger.Info("Postgres backend enabled", zap.String("host", cfg.Database.Host))
			return nil
		}
		if a.strict {
			return err
		}
		a.Logger.Warn("Postgres unavailable, falling back to memory backend", zap.Error(err))
	case config.BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	a.Repos, _ = repository.NewMemoryRepositories()
	a.Backend = config.BackendMemory
	return nil
}

// openCache Redis 不可用时退回进程内缓存 + 不发事件
func (a *App) openCache(ctx context.Context) {
	a.KV = store.NewMemoryKV()
	a.Events = store.NopPublisher{}
	if !a.Config.Redis.Enabled {
		return
	}
	c := store.NewRedisClient(store.RedisOptions{
		Addr:     a.Config.Redis.Addr,
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	})
	if err := store.Ping(ctx, c); err != nil {
		a.Logger.Warn("Redis unavailable, using in-process cache", zap.String("addr", a.Config.Redis.Addr), zap.Error(err))
		_ = c.Close()
		return
	}
	a.redis = c
	a.KV = store.NewRedisKV(c)
	a.Events = store.NewStreamPublisher(c, store.EventsStream)
}

func (a *App) buildServices() {
	cfg, logger := a.Config, a.Logger

	secret := cfg.Auth.Secret
	if secret == "" {
		secret = uuid.NewString()
		logger.Warn("AUTH_SECRET not set, sessions will not survive a restart")
	}
	a.Sessions = auth.NewSessions(secret, strings.HasPrefix(cfg.App.BaseURL, "https://"))

	a.Identity = service.NewIdentityService(a.Repos.Owners, a.KV, cfg.OwnerSyncTTL, logger)
	a.Ownership = service.NewOwnershipService(a.Repos.Owners, a.Repos.Stores, a.KV, a.Events, logger, cfg.OwnershipRepairEnabled)
	a.Stores = service.NewStoreService(a.Repos.Stores, a.Ownership, a.KV, a.Events, cfg.App.ApexDomain, logger)
	a.Storefront = service.NewStorefrontService(a.Repos.Stores, a.Repos.Products, a.Repos.BlogPosts, a.KV, cfg.StorefrontCacheTTL, logger)

	var gen service.Generator
	if cfg.AI.APIKey != "" {
		gen = service.NewGeneratorClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Timeout, logger)
	}
	a.Catalog = service.NewCatalogService(a.Stores, a.Repos.Products, a.Repos.BlogPosts, a.Repos.Industries, gen, logger)

	dns := service.NewVercelClient(cfg.Vercel.BaseURL, cfg.Vercel.APIToken, cfg.Vercel.TeamID, logger)
	a.Subdomains = service.NewSubdomainService(dns, a.Repos.Stores, a.Stores, a.Events, service.SubdomainConfig{
		ApexDomain:  cfg.App.ApexDomain,
		CNAMETarget: cfg.Vercel.CNAMETarget,
		Configured:  cfg.Vercel.APIToken != "",
	}, logger)

	if cfg.Auth.GitHubID != "" {
		a.GitHub = auth.NewGitHub(auth.GitHubConfig{
			ClientID:     cfg.Auth.GitHubID,
			ClientSecret: cfg.Auth.GitHubSecret,
			RedirectURL:  strings.TrimRight(cfg.App.BaseURL, "/") + "/auth/callback/github",
		}, a.Sessions, a.Identity, logger)
	}
}

// Migrate 创建 Neo4j 约束或 Postgres 表结构；内存后端无操作
func (a *App) Migrate(ctx context.Context) error {
	switch {
	case a.neo4j != nil:
		return graph.EnsureConstraints(ctx, a.neo4j)
	case a.sqlDB != nil:
		return database.Migrate(ctx, a.sqlDB)
	}
	return nil
}

func (a *App) Ping(ctx context.Context) error {
	if a.Repos.Ping == nil {
		return nil
	}
	return a.Repos.Ping(ctx)
}

func (a *App) Close(ctx context.Context) {
	if a.Repos.Close != nil {
		if err := a.Repos.Close(ctx); err != nil {
			a.Logger.Warn("failed to close backend", zap.Error(err))
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
