package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/stensonb/cloud-agent/internal/i18n"
)

func newHistoryCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded boots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openState()
			if err != nil {
				return err
			}
			defer store.Close()

			boots, err := store.History(limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(boots) == 0 {
				i18n.GetPrinter(cmd.Context()).Fprintf(out, "no boots recorded\n")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "SEEN\tINSTANCE\tHOSTNAME\tFIRST")
			for _, b := range boots {
				seen := b.SeenAt.Format(time.RFC3339)
				if !b.ClockSane {
					seen += "?"
				}
				first := ""
				if b.FirstSeen {
					first = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", seen, shortID(b.InstanceID), dash(b.Hostname), first)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of boots to show (0 for all)")
	return cmd
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
