//go:build e2e

package e2e

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/dusk-indust/deckenrich/internal/config"
	"github.com/dusk-indust/deckenrich/internal/deck"
	"github.com/dusk-indust/deckenrich/internal/genclient"
	"github.com/dusk-indust/deckenrich/internal/orchestrator"
	"github.com/dusk-indust/deckenrich/internal/outline"
	"github.com/dusk-indust/deckenrich/internal/stubsvc"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fixedNow = time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)

// stubConfig points every client at the fake services with short timeouts.
func stubConfig(ep stubsvc.Endpoints) *config.Config {
	return &config.Config{
		Text:                config.Service{URL: ep.Text, Timeout: 2 * time.Second},
		Chart:               config.Service{URL: ep.Chart, Timeout: 300 * time.Millisecond, PollInterval: 10 * time.Millisecond},
		Image:               config.Service{URL: ep.Image, Timeout: 2 * time.Second},
		Diagram:             config.Service{URL: ep.Diagram, Timeout: 300 * time.Millisecond, PollInterval: 10 * time.Millisecond},
		LogLevel:            "debug",
		LogFormat:           "console",
		ValidationThreshold: 2.0,
	}
}

// runEnrichment enriches the quarterly fixture against fake services that
// behave as configured.
func runEnrichment(t *testing.T, opts ...stubsvc.Option) (*deck.EnrichedPresentation, *stubsvc.Server) {
	t.Helper()

	logger := zaptest.NewLogger(t)
	srv := stubsvc.New(append([]stubsvc.Option{stubsvc.WithLogger(logger)}, opts...)...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	cfg := stubConfig(stubsvc.EndpointsFor(ts.URL))
	require.NoError(t, cfg.Validate())

	o, err := outline.Load(filepath.Join("..", "..", "testdata", "fixtures", "outlines", "quarterly.yaml"))
	require.NoError(t, err)

	e := orchestrator.New(cfg.Clients(genclient.WithLogger(logger)),
		orchestrator.WithLogger(logger),
		orchestrator.WithClock(func() time.Time { return fixedNow }),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p, err := e.Enrich(ctx, o, nil, nil)
	require.NoError(t, err)
	return p, srv
}
