package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stensonb/cloud-agent/internal/i18n"
	"github.com/stensonb/cloud-agent/internal/netiface"
)

func newLinksCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "links",
		Short: "Show which local link each context interface maps to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := a.load(cmd)
			if err != nil || sc == nil {
				return err
			}

			bindings, err := netiface.Resolve(a.netlinker, sc)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(bindings) == 0 {
				i18n.GetPrinter(cmd.Context()).Fprintf(out, "no interface units in context\n")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "UNIT\tMAC\tLINK\tMATCH\tMTU\tADDRESSES")
			for _, b := range bindings {
				mtu := "-"
				if b.Resolved() {
					mtu = fmt.Sprintf("%d", b.MTU)
					if b.MTUDrift() {
						mtu = fmt.Sprintf("%d (want %d)", b.MTU, b.WantMTU)
					}
				}
				fmt.Fprintf(w, "eth%d\t%s\t%s\t%s\t%s\t%s\n",
					b.Unit, dash(b.MAC), dash(b.Link), b.Match, mtu, dash(strings.Join(b.Addresses, ",")))
			}
			return w.Flush()
		},
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
