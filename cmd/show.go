package cmd

import (
	"github.com/spf13/cobra"

	"github.com/stensonb/cloud-agent/internal/render"
	"github.com/stensonb/cloud-agent/internal/sysconfig"
)

func newShowCommand(a *app) *cobra.Command {
	var (
		format string
		stdin  bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the configuration parsed from the context",
		Long: `Print the configuration parsed from the context file.

Formats: yaml, json, env (shell assignments) and resolv (resolv.conf).
With --stdin the context is read from standard input instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}

			var sc *sysconfig.SystemConfig
			if stdin {
				sc = sysconfig.New()
				if err := a.provider().Parse(cmd.InOrStdin(), sc); err != nil {
					return err
				}
			} else {
				sc, err = a.load(cmd)
				if err != nil || sc == nil {
					return err
				}
			}
			return render.Render(cmd.OutOrStdout(), sc, f)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", string(render.FormatYAML), "output format")
	cmd.Flags().BoolVar(&stdin, "stdin", false, "read the context from standard input")
	return cmd
}
