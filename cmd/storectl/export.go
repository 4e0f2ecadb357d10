package main

import (
	"fmt"
	"os"

	"storefront/internal/app"
	"storefront/internal/service"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

const (
	storeFlag = "store"
	outFlag   = "out"
)

func newExportCommand(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [products]",
		Short: "Export catalog data",
	}
	cmd.AddCommand(newExportProductsCommand(open))
	return cmd
}

func newExportProductsCommand(open opener) *cobra.Command {
	flags := map[string]cobraflags.Flag{
		storeFlag: &cobraflags.StringFlag{
			Name:  storeFlag,
			Value: "",
			Usage: "Store id (required)",
		},
		outFlag: &cobraflags.StringFlag{
			Name:  outFlag,
			Value: "products.xlsx",
			Usage: "Output .xlsx path",
		},
	}
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Write a store's products to an Excel workbook",
		RunE: withApp(open, func(cmd *cobra.Command, a *app.App) error {
			storeID := flags[storeFlag].GetString()
			if storeID == "" {
				return fmt.Errorf("--%s is required", storeFlag)
			}
			// 运维导出不经过归属校验
			if _, err := a.Repos.Stores.GetStore(cmd.Context(), storeID); err != nil {
				return err
			}
			products, err := a.Repos.Products.ListProducts(cmd.Context(), storeID)
			if err != nil {
				return err
			}
			data, err := service.GenerateProductExport(products)
			if err != nil {
				return err
			}
			out := flags[outFlag].GetString()
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d product(s) to %s\n", len(products), out)
			return nil
		}),
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}
