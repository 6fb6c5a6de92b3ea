package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stensonb/cloud-agent/internal/brand"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s (commit: %s)\n", brand.Name, brand.Version, brand.GitCommit)
			return err
		},
	}
}
