package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"storefront/internal/app"
	"storefront/internal/domain"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

const ownerFlag = "owner"

func newOrphansCommand(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orphans [list|repair]",
		Short: "Inspect and repair stores that have no owner",
	}
	cmd.AddCommand(newOrphansListCommand(open), newOrphansRepairCommand(open))
	return cmd
}

func newOrphansListCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stores without an OWNS relationship",
		RunE: withApp(open, func(cmd *cobra.Command, a *app.App) error {
			orphans, err := a.Ownership.ListOrphans(cmd.Context())
			if err != nil {
				return err
			}
			return printStores(cmd.OutOrStdout(), orphans)
		}),
	}
}

func newOrphansRepairCommand(open opener) *cobra.Command {
	flags := map[string]cobraflags.Flag{
		ownerFlag: &cobraflags.StringFlag{
			Name:  ownerFlag,
			Value: "",
			Usage: "Owner id that receives every orphaned store (required)",
		},
	}
	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Attach every orphaned store to an owner",
		RunE: withApp(open, func(cmd *cobra.Command, a *app.App) error {
			owner := flags[ownerFlag].GetString()
			if owner == "" {
				return fmt.Errorf("--%s is required", ownerFlag)
			}
			attached, err := a.Ownership.RepairOrphans(cmd.Context(), owner)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "attached %d store(s) to %s\n", len(attached), owner)
			return printStores(cmd.OutOrStdout(), attached)
		}),
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func printStores(out io.Writer, stores []*domain.Store) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSUBDOMAIN\tNAME\tCREATED")
	for _, s := range stores {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Subdomain, s.Name, s.CreatedAt.Format("2006-01-02"))
	}
	return tw.Flush()
}
