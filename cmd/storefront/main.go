package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/app"
	"storefront/internal/config"
	gql "storefront/internal/graphql"
	httpapi "storefront/internal/http"
	"storefront/internal/logger"
	"storefront/internal/service"
	"storefront/internal/tenancy"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "storefront")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, log)
	stop()
	_ = log.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run 阻塞到 ctx 取消或 HTTP 服务退出；所有清理都在返回前完成
func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer a.Close(context.Background())

	if err := a.Migrate(ctx); err != nil {
		log.Warn("schema migration failed", zap.String("backend", a.Backend), zap.Error(err))
	}

	schema, err := gql.NewSchema(gql.NewResolver(a.Identity, a.Stores, a.Catalog, log))
	if err != nil {
		return fmt.Errorf("failed to parse GraphQL schema: %w", err)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:      log,
		Sessions:    a.Sessions,
		GitHub:      a.GitHub,
		Identity:    a.Identity,
		Ownership:   a.Ownership,
		Storefront:  a.Storefront,
		Subdomains:  a.Subdomains,
		Catalog:     a.Catalog,
		GraphQL:     &gql.Handler{Schema: schema, Logger: log},
		Ping:        a.Ping,
		CORSOrigins: cfg.HTTP.CORSAllowedOrigins,
	})
	// 子域名改写在路由之前执行
	handler := tenancy.NewResolver(cfg.ApexLabel(), log).Middleware(router)

	srv := service.NewServer(cfg.HTTP.Addr, handler, log)
	log.Info("storefront configured",
		zap.String("backend", a.Backend),
		zap.String("apex_domain", cfg.App.ApexDomain),
		zap.Bool("github_oauth", a.GitHub != nil),
		zap.Bool("ownership_repair", cfg.OwnershipRepairEnabled))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		if serveErr != nil {
			serveErr = fmt.Errorf("HTTP server stopped: %w", serveErr)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	return serveErr
}
