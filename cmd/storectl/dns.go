package main

import (
	"fmt"

	"storefront/internal/app"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

const subdomainFlag = "subdomain"

func newDNSCommand(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dns [setup|delete]",
		Short: "Manage store CNAME records at the DNS provider",
	}
	cmd.AddCommand(newDNSSetupCommand(open), newDNSDeleteCommand(open))
	return cmd
}

func subdomainFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		subdomainFlag: &cobraflags.StringFlag{
			Name:  subdomainFlag,
			Value: "",
			Usage: "Store subdomain label, e.g. acme (required)",
		},
	}
}

func requiredSubdomain(flags map[string]cobraflags.Flag) (string, error) {
	sub := flags[subdomainFlag].GetString()
	if sub == "" {
		return "", fmt.Errorf("--%s is required", subdomainFlag)
	}
	return sub, nil
}

func newDNSSetupCommand(open opener) *cobra.Command {
	flags := subdomainFlags()
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the CNAME record for a subdomain if it does not exist",
		RunE: withApp(open, func(cmd *cobra.Command, a *app.App) error {
			sub, err := requiredSubdomain(flags)
			if err != nil {
				return err
			}
			res, err := a.Subdomains.Provision(cmd.Context(), sub)
			if err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("dns setup failed: %s", res.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		}),
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newDNSDeleteCommand(open opener) *cobra.Command {
	flags := subdomainFlags()
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete every DNS record named after a subdomain",
		RunE: withApp(open, func(cmd *cobra.Command, a *app.App) error {
			sub, err := requiredSubdomain(flags)
			if err != nil {
				return err
			}
			if err := a.Subdomains.Remove(cmd.Context(), sub); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed DNS records for %s\n", sub)
			return nil
		}),
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}
