// Package genclient implements clients for the remote content generation
// services. Two transport families exist: direct clients make one HTTP call
// and return the result; job clients submit work, then poll a status
// endpoint until the job completes, fails or runs out of attempts.
package genclient

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dusk-indust/deckenrich/internal/deck"
	"github.com/dusk-indust/deckenrich/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Generator is the contract every generation client satisfies. Generate
// must be safe to call concurrently and must honour ctx.
type Generator[Req, Res any] interface {
	Generate(ctx context.Context, req Req) (Res, error)
	GenerateBatch(ctx context.Context, reqs []Req) ([]Res, error)
}

type (
	TextGenerator    = Generator[deck.TextRequest, deck.GeneratedText]
	ChartGenerator   = Generator[deck.ChartRequest, deck.GeneratedChart]
	ImageGenerator   = Generator[deck.ImageRequest, deck.GeneratedImage]
	DiagramGenerator = Generator[deck.DiagramRequest, deck.GeneratedDiagram]
)

// Set bundles one generator per service.
type Set struct {
	Text    TextGenerator
	Chart   ChartGenerator
	Image   ImageGenerator
	Diagram DiagramGenerator
}

// Batch runs gen for every request concurrently. Results keep input order;
// a failed item leaves its zero value in place. The returned error joins
// every item failure.
func Batch[Req, Res any](ctx context.Context, reqs []Req, gen func(context.Context, Req) (Res, error)) ([]Res, error) {
	out := make([]Res, len(reqs))
	errs := make([]error, len(reqs))

	var g errgroup.Group
	for i, req := range reqs {
		g.Go(func() error {
			out[i], errs[i] = gen(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	return out, errors.Join(errs...)
}

// ServiceConfig locates one generation service and sets its time budget.
type ServiceConfig struct {
	// Name labels logs, metrics and errors.
	Name string

	// BaseURL is the service root, without a trailing slash.
	BaseURL string

	// GeneratePath is appended to BaseURL for the submit or direct call.
	GeneratePath string

	// StatusPath is appended to BaseURL, followed by "/{job_id}".
	StatusPath string

	// Timeout bounds a direct call, or the whole poll loop of a job client.
	Timeout time.Duration

	// SubmitTimeout bounds the job submission request.
	SubmitTimeout time.Duration

	// StatusTimeout bounds each status request.
	StatusTimeout time.Duration

	// PollInterval is the sleep between status checks.
	PollInterval time.Duration
}

const (
	defaultTimeout       = 60 * time.Second
	defaultSubmitTimeout = 10 * time.Second
	defaultStatusTimeout = 10 * time.Second
	defaultPollInterval  = 2 * time.Second
)

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.SubmitTimeout <= 0 {
		c.SubmitTimeout = defaultSubmitTimeout
	}
	if c.StatusTimeout <= 0 {
		c.StatusTimeout = defaultStatusTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.StatusPath == "" {
		c.StatusPath = "/status"
	}
	return c
}

// MaxAttempts is the number of status checks a job client performs before
// giving up: Timeout / PollInterval, at least one.
func (c ServiceConfig) MaxAttempts() int {
	c = c.withDefaults()
	n := int(c.Timeout / c.PollInterval)
	if n < 1 {
		n = 1
	}
	return n
}

// Option configures a client.
type Option func(*clientOptions)

type clientOptions struct {
	http    *http.Client
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) {
		o.http = hc
	}
}

// WithLogger sets the logger used for request and poll diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *clientOptions) {
		o.logger = l
	}
}

// WithMetrics records poll attempts on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *clientOptions) {
		o.metrics = m
	}
}

func buildOptions(opts []Option) clientOptions {
	o := clientOptions{
		http:   &http.Client{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
