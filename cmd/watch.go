package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stensonb/cloud-agent/internal/i18n"
	"github.com/stensonb/cloud-agent/internal/watch"
)

func newWatchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reparse the context whenever it changes and print the differences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := i18n.GetPrinter(cmd.Context())
			out := cmd.OutOrStdout()

			handler := func(_ context.Context, ev watch.Event) {
				defer a.flushMetrics()
				switch {
				case ev.Err != nil:
					p.Fprintf(out, "reload failed: %v\n", ev.Err)
				case ev.Diff == "" && ev.Config != nil:
					p.Fprintf(out, "instance %s\n", ev.Config.InstanceID)
				case ev.Diff == "":
					p.Fprintf(out, "no context found at %s\n", a.cfg.ContextPath)
				case ev.Config == nil:
					p.Fprintf(out, "context removed\n")
					fmt.Fprint(out, ev.Diff)
				default:
					p.Fprintf(out, "context changed:\n")
					fmt.Fprint(out, ev.Diff)
				}
			}

			w := watch.New(a.provider(), handler,
				watch.WithDebounce(a.cfg.Debounce()),
				watch.WithLogger(a.log.WithComponent("watch")))
			return w.Run(cmd.Context())
		},
	}
}
