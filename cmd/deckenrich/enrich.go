package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dusk-indust/deckenrich/internal/deck"
	"github.com/dusk-indust/deckenrich/internal/export"
	"github.com/dusk-indust/deckenrich/internal/orchestrator"
	"github.com/dusk-indust/deckenrich/internal/outline"
	"github.com/dusk-indust/deckenrich/internal/tracing"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type enrichFlags struct {
	assignments string
	output      string
	format      string
	offline     bool
	trace       bool
	quiet       bool
}

func newEnrichCmd(a *app) *cobra.Command {
	var f enrichFlags
	cmd := &cobra.Command{
		Use:   "enrich OUTLINE",
		Short: "Enrich an outline file (JSON or YAML)",
		Long: `Runs one enrichment over OUTLINE. Without --assignments each slide gets a
layout from the built-in catalog. Progress is printed to stderr.

Formats:
  json      the enriched presentation document (default)
  summary   a short text report of counts, failures and violations
  mermaid   a Mermaid flowchart of slides, layouts and failed items`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEnrich(cmd.Context(), args[0], f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.assignments, "assignments", "a", "", "layout assignments file (JSON or YAML)")
	fl.StringVarP(&f.output, "output", "o", "", "write the result to this file instead of stdout")
	fl.StringVarP(&f.format, "format", "f", "json", "output format: json, summary or mermaid")
	fl.BoolVar(&f.offline, "offline", false, "use built-in stub generators instead of the HTTP services")
	fl.BoolVar(&f.trace, "trace", false, "print OpenTelemetry spans to stderr")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "suppress progress output")
	return cmd
}

func (a *app) runEnrich(ctx context.Context, path string, f enrichFlags) error {
	render, err := renderer(f.format)
	if err != nil {
		return err
	}

	o, err := outline.Load(path)
	if err != nil {
		return err
	}
	var assignments []deck.LayoutAssignment
	if f.assignments != "" {
		if assignments, err = outline.LoadAssignments(f.assignments); err != nil {
			return err
		}
	}

	if f.trace {
		shutdown, err := tracing.Setup(a.stderr, "deckenrich")
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				a.logger.Warn("tracer shutdown failed", zap.Error(err))
			}
		}()
	}

	reporter := orchestrator.NewProgressReporter()
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for ev := range reporter.Subscribe() {
			if !f.quiet {
				fmt.Fprintln(a.stderr, orchestrator.FormatProgress(ev))
			}
		}
	}()

	p, err := a.newEnricher(a.generators(f.offline, nil), nil).Enrich(ctx, o, assignments, reporter.Func())
	reporter.Close()
	<-drained
	if err != nil {
		return err
	}

	if f.output == "" {
		return render(a.stdout, p)
	}
	if f.format == "json" {
		if err := export.WriteFile(f.output, p); err != nil {
			return err
		}
	} else {
		file, err := os.Create(f.output)
		if err != nil {
			return err
		}
		if err := render(file, p); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return err
		}
	}
	if !f.quiet {
		fmt.Fprintf(a.stderr, "wrote %s\n", f.output)
	}
	return nil
}
