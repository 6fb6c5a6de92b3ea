package cmd

import (
	"github.com/spf13/cobra"

	"github.com/stensonb/cloud-agent/internal/i18n"
	"github.com/stensonb/cloud-agent/internal/validation"
)

func newProbeCommand(a *app) *cobra.Command {
	var noState bool

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Parse the context, record the boot and report the instance identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd, a, noState)
		},
	}
	cmd.Flags().BoolVar(&noState, "no-state", false, "do not record the boot in the state database")
	return cmd
}

func runProbe(cmd *cobra.Command, a *app, noState bool) error {
	defer a.flushMetrics()

	sc, err := a.load(cmd)
	if err != nil || sc == nil {
		return err
	}

	p := i18n.GetPrinter(cmd.Context())
	out := cmd.OutOrStdout()

	if noState {
		p.Fprintf(out, "instance %s\n", sc.InstanceID)
	} else {
		store, err := a.openState()
		if err != nil {
			return err
		}
		defer store.Close()

		first, err := store.Record(sc.InstanceID, sc.Hostname)
		if err != nil {
			return err
		}
		a.metrics.SetFirstBoot(first)
		if first {
			a.log.Info("first boot of instance", "instance_id", sc.InstanceID)
			p.Fprintf(out, "instance %s (first boot)\n", sc.InstanceID)
		} else {
			p.Fprintf(out, "instance %s (seen before)\n", sc.InstanceID)
		}
	}

	if sc.Hostname != "" {
		if err := validation.ValidateHostname(sc.Hostname); err != nil {
			a.log.Warn("context hostname is not usable", "hostname", sc.Hostname, "error", err)
		}
		p.Fprintf(out, "hostname: %s\n", sc.Hostname)
	}
	p.Fprintf(out, "%d addresses, %d public keys\n", len(sc.NetworkAddresses), len(sc.PublicKeys))
	return nil
}
