// storectl 运维命令行：迁移、孤儿店铺修复、DNS 配置、商品导出
package main

import (
	"context"
	"os"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/logger"

	"github.com/spf13/cobra"
)

// opener 构建 App；测试中替换为内存实现
type opener func(ctx context.Context) (*app.App, error)

func main() {
	if err := newRootCommand(openApp).Execute(); err != nil {
		os.Exit(1)
	}
}

func openApp(ctx context.Context) (*app.App, error) {
	cfg := config.Load()
	log, err := logger.NewLogger(cfg.Log.Level, "console", "storectl")
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, log, app.Strict())
}

func newRootCommand(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:          "storectl",
		Short:        "Operator tool for the storefront platform",
		SilenceUsage: true,
	}
	root.AddCommand(
		newMigrateCommand(open),
		newOrphansCommand(open),
		newDNSCommand(open),
		newExportCommand(open),
	)
	return root
}

// withApp opens the backend for the duration of one command.
func withApp(open opener, fn func(cmd *cobra.Command, a *app.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		a, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close(context.Background())
		return fn(cmd, a)
	}
}
