// Command deckenrich enriches presentation outlines with generated text,
// charts, images and diagrams.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dusk-indust/deckenrich/internal/config"
	"github.com/dusk-indust/deckenrich/internal/genclient"
	"github.com/dusk-indust/deckenrich/internal/logging"
	"github.com/dusk-indust/deckenrich/internal/metrics"
	"github.com/dusk-indust/deckenrich/internal/orchestrator"
	"github.com/dusk-indust/deckenrich/internal/validate"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configFile string
	envFiles   []string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "deckenrich",
		Short: "Enrich presentation outlines with generated content",
		Long: `deckenrich takes a presentation outline and its layout assignments, calls
the text, chart, image and diagram generation services for every slide in
parallel, validates the generated content against each layout and writes
the enriched presentation.

Service endpoints and timeouts come from the environment (or a .env file):
TEXT_SERVICE_URL, CHART_SERVICE_URL, CHART_POLL_INTERVAL, and so on.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "YAML config file (default: ./deckenrich.yaml if present)")
	pf.StringSliceVar(&a.envFiles, "env-file", []string{".env"}, "dotenv files to load; missing files are ignored")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides LOG_LEVEL)")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: json or console (overrides LOG_FORMAT)")

	root.AddCommand(
		newEnrichCmd(a),
		newServeStubCmd(a),
		newServeMCPCmd(a),
		newLayoutsCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: a.configFile, EnvFiles: a.envFiles})
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// generators returns the offline stubs or HTTP clients for the configured
// services.
func (a *app) generators(offline bool, m *metrics.Metrics) genclient.Set {
	if offline {
		return genclient.NewStubSet()
	}
	return a.cfg.Clients(genclient.WithLogger(a.logger), genclient.WithMetrics(m))
}

func (a *app) newEnricher(gens genclient.Set, m *metrics.Metrics) *orchestrator.Enricher {
	return orchestrator.New(gens,
		orchestrator.WithLogger(a.logger),
		orchestrator.WithValidator(validate.New(
			validate.WithThreshold(a.cfg.ValidationThreshold),
			validate.WithLogger(a.logger),
		)),
		orchestrator.WithMaxConcurrency(a.cfg.MaxConcurrency),
		orchestrator.WithRunDeadline(a.cfg.RunDeadline),
		orchestrator.WithMetrics(m),
	)
}
