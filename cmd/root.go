// Package cmd implements the cloud-agent command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stensonb/cloud-agent/internal/brand"
	"github.com/stensonb/cloud-agent/internal/config"
	"github.com/stensonb/cloud-agent/internal/i18n"
	"github.com/stensonb/cloud-agent/internal/logging"
	"github.com/stensonb/cloud-agent/internal/metrics"
	"github.com/stensonb/cloud-agent/internal/netiface"
	"github.com/stensonb/cloud-agent/internal/opennebula"
	"github.com/stensonb/cloud-agent/internal/state"
	"github.com/stensonb/cloud-agent/internal/sysconfig"
)

// Printer is the global message printer for the CLI
var Printer = i18n.NewCLIPrinter()

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(i18n.WithPrinter(ctx, Printer))
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{netlinker: netiface.DefaultNetlinker})
}

// app carries what the subcommands share once flags and the config file
// have been read.
type app struct {
	configFile     string
	contextPath    string
	logLevel       string
	legacyComments bool

	cfg       *config.Config
	log       *logging.Logger
	metrics   *metrics.Recorder
	netlinker netiface.Netlinker
	closers   []io.Closer
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           brand.LowerName,
		Short:         brand.Description,
		Version:       fmt.Sprintf("%s (commit: %s)", brand.Version, brand.GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", brand.ConfigPath(), "agent configuration file")
	flags.StringVar(&a.contextPath, "context", "", "context file (overrides context_path)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&a.legacyComments, "legacy-comments", false, "treat every # as a comment, even inside quotes")

	root.AddCommand(
		newProbeCommand(a),
		newShowCommand(a),
		newWatchCommand(a),
		newLinksCommand(a),
		newHistoryCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)
	return root
}

// setup loads the configuration, applies flag overrides, validates the
// result and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadFile(a.configFile)
	if err != nil {
		return fmt.Errorf("load config %s: %w", a.configFile, err)
	}

	flags := cmd.Flags()
	if flags.Changed("context") {
		cfg.ContextPath = a.contextPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("legacy-comments") {
		cfg.LegacyComments = a.legacyComments
	}
	if errs := cfg.Validate(); errs.HasErrors() {
		return errs
	}
	a.cfg = cfg

	lc := cfg.LoggingConfig()
	lc.Output = cmd.ErrOrStderr()
	if sc, ok := cfg.SyslogSettings(); ok {
		w, err := logging.NewSyslogWriter(sc)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "remote syslog disabled: %v\n", err)
		} else {
			lc.Output = logging.MultiWriter(lc.Output, w)
			a.closers = append(a.closers, w)
		}
	}
	a.log = logging.New(lc)
	logging.SetDefault(a.log)

	a.metrics = metrics.New()
	return nil
}

func (a *app) close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
	a.closers = nil
}

// provider builds the context parser from the configuration.
func (a *app) provider() *opennebula.Provider {
	return opennebula.NewProvider(
		opennebula.WithPath(a.cfg.ContextPath),
		opennebula.WithLogger(a.log.WithComponent("opennebula")),
		opennebula.WithLegacyComments(a.cfg.LegacyComments),
		opennebula.WithObserver(a.metrics),
	)
}

// load parses the configured context file. A missing or foreign context
// is reported to the user and yields a nil config without error.
func (a *app) load(cmd *cobra.Command) (*sysconfig.SystemConfig, error) {
	p := i18n.GetPrinter(cmd.Context())
	out := cmd.OutOrStdout()

	sc := sysconfig.New()
	found, err := a.provider().Load(sc)
	switch {
	case errors.Is(err, opennebula.ErrUnsupportedContext):
		p.Fprintf(out, "context at %s is not supported: %v\n", a.cfg.ContextPath, err)
		return nil, nil
	case err != nil:
		return nil, err
	case !found:
		p.Fprintf(out, "no context found at %s\n", a.cfg.ContextPath)
		return nil, nil
	}
	return sc, nil
}

// openState opens the boot history, creating its directory.
func (a *app) openState() (*state.Store, error) {
	if err := os.MkdirAll(filepath.Dir(a.cfg.StatePath), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return state.Open(state.DefaultOptions(a.cfg.StatePath))
}

// flushMetrics writes the metrics textfile if one is configured.
func (a *app) flushMetrics() {
	if a.cfg.MetricsTextfile == "" {
		return
	}
	if err := a.metrics.WriteTextfile(a.cfg.MetricsTextfile); err != nil {
		a.log.Warn("failed to write metrics", "path", a.cfg.MetricsTextfile, "error", err)
	}
}
