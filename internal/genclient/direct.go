package genclient

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DirectCaller makes a single request/response call per generation.
type DirectCaller struct {
	t      *transport
	logger *zap.Logger
}

// NewDirectCaller creates a DirectCaller for cfg.
func NewDirectCaller(cfg ServiceConfig, opts ...Option) *DirectCaller {
	o := buildOptions(opts)
	cfg = cfg.withDefaults()
	return &DirectCaller{
		t:      &transport{cfg: cfg, http: o.http},
		logger: o.logger.With(zap.String("service", cfg.Name)),
	}
}

// Config returns the effective service configuration.
func (d *DirectCaller) Config() ServiceConfig { return d.t.cfg }

// Call POSTs body to the generate endpoint and decodes the response into out.
func (d *DirectCaller) Call(ctx context.Context, body, out any) error {
	start := time.Now()
	raw, err := d.t.postJSON(ctx, "generate", d.t.cfg.GeneratePath, d.t.cfg.Timeout, body)
	if err != nil {
		d.logger.Warn("generate call failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return err
	}
	if err := decode(d.t.cfg.Name, raw, out); err != nil {
		return err
	}
	d.logger.Debug("generate call completed", zap.Duration("elapsed", time.Since(start)))
	return nil
}
