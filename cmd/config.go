package cmd

import (
	"github.com/spf13/cobra"

	"github.com/stensonb/cloud-agent/internal/config"
)

func newConfigCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as HCL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write(config.GenerateHCL(a.cfg))
			return err
		},
	}
}
