package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/dusk-indust/deckenrich/internal/deck"
	"github.com/dusk-indust/deckenrich/internal/mcptools"
	"github.com/dusk-indust/deckenrich/internal/metrics"
	"github.com/dusk-indust/deckenrich/internal/stubsvc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var services = []deck.ServiceType{deck.ServiceText, deck.ServiceChart, deck.ServiceImage, deck.ServiceDiagram}

func newServeStubCmd(a *app) *cobra.Command {
	var (
		addr    string
		latency time.Duration
		polls   int
		fail    []string
		hang    []string
	)
	cmd := &cobra.Command{
		Use:   "serve-stub",
		Short: "Serve fake generation services for local runs",
		Long: `Serves fake text, chart, image and diagram services on one address and
prints the environment variables that point deckenrich at them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			failing, err := serviceSet(fail)
			if err != nil {
				return fmt.Errorf("--fail: %w", err)
			}
			hanging, err := serviceSet(hang)
			if err != nil {
				return fmt.Errorf("--hang: %w", err)
			}

			opts := []stubsvc.Option{stubsvc.WithLogger(a.logger)}
			for _, t := range services {
				b := stubsvc.Behavior{Latency: latency, PollsToComplete: polls, NeverComplete: hanging[t]}
				if failing[t] {
					b.FailWith = "simulated " + string(t) + " failure"
				}
				opts = append(opts, stubsvc.WithBehavior(t, b))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return stubsvc.New(opts...).ListenAndServe(ctx, addr, func(bound net.Addr) {
				ep := stubsvc.EndpointsFor("http://" + bound.String())
				fmt.Fprintf(a.stdout, "TEXT_SERVICE_URL=%s\n", ep.Text)
				fmt.Fprintf(a.stdout, "CHART_SERVICE_URL=%s\n", ep.Chart)
				fmt.Fprintf(a.stdout, "IMAGE_SERVICE_URL=%s\n", ep.Image)
				fmt.Fprintf(a.stdout, "DIAGRAM_SERVICE_URL=%s\n", ep.Diagram)
				a.logger.Info("stub services listening", zap.Stringer("addr", bound))
			})
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&addr, "addr", "127.0.0.1:8787", "listen address")
	fl.DurationVar(&latency, "latency", 0, "delay added to every generate call")
	fl.IntVar(&polls, "polls", 1, "status checks that report processing before a job completes")
	fl.StringSliceVar(&fail, "fail", nil, "services that report generation failures (text, chart, image, diagram)")
	fl.StringSliceVar(&hang, "hang", nil, "job services whose jobs never complete (chart, diagram)")
	return cmd
}

func serviceSet(names []string) (map[deck.ServiceType]bool, error) {
	out := make(map[deck.ServiceType]bool, len(names))
	for _, n := range names {
		t := deck.ServiceType(n)
		if !slices.Contains(services, t) {
			return nil, fmt.Errorf("unknown service %q", n)
		}
		out[t] = true
	}
	return out, nil
}

func newServeMCPCmd(a *app) *cobra.Command {
	var (
		httpAddr    string
		metricsAddr string
		offline     bool
	)
	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve the enrichment tools over the Model Context Protocol",
		Long: `Serves the enrich_presentation and list_layouts tools. Uses stdio unless
--http is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m := metrics.New(reg)

			svc := mcptools.NewEnrichService(a.newEnricher(a.generators(offline, m), m), a.logger)
			server := mcptools.NewServer(svc)

			if metricsAddr != "" {
				go a.serveMetrics(ctx, metricsAddr, reg)
			}
			if httpAddr != "" {
				a.logger.Info("mcp server listening", zap.String("addr", httpAddr))
				return mcptools.RunHTTP(ctx, server, httpAddr)
			}
			return mcptools.RunStdio(ctx, server)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&httpAddr, "http", "", "serve the streamable HTTP transport on this address instead of stdio")
	fl.StringVar(&metricsAddr, "metrics-addr", "", "expose Prometheus metrics on this address")
	fl.BoolVar(&offline, "offline", false, "use built-in stub generators instead of the HTTP services")
	return cmd
}

func (a *app) serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info("metrics listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.logger.Error("metrics server failed", zap.Error(err))
	}
}
