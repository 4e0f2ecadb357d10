package main

import (
	"fmt"

	"storefront/internal/app"

	"github.com/spf13/cobra"
)

func newMigrateCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create Neo4j constraints or the Postgres schema for the configured backend",
		RunE: withApp(open, func(cmd *cobra.Command, a *app.App) error {
			if err := a.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s backend\n", a.Backend)
			return nil
		}),
	}
}
