// Package dispatch fans generation requests out to the service clients and
// regroups the outcomes by slide. Every unit is awaited; one unit failing
// never cancels or delays another.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dusk-indust/deckenrich/internal/deck"
	"github.com/dusk-indust/deckenrich/internal/genclient"
	"github.com/dusk-indust/deckenrich/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoGenerator is recorded for units whose service has no client.
var ErrNoGenerator = errors.New("dispatch: no generator configured")

// ProgressFunc receives coarse progress milestones. Per-unit events are
// called synchronously from each worker goroutine, so a ProgressFunc may run
// concurrently with itself and must guard any state it touches.
type ProgressFunc func(message string, current, total int)

// Dispatcher runs every request of a presentation concurrently.
type Dispatcher struct {
	gens           genclient.Set
	logger         *zap.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	maxConcurrency int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithMetrics records per-unit outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithTracer replaces the tracer used for per-unit spans.
func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = t
	}
}

// WithMaxConcurrency caps the number of units in flight. Zero or a
// negative value means no cap.
func WithMaxConcurrency(n int) Option {
	return func(d *Dispatcher) {
		d.maxConcurrency = n
	}
}

// New creates a Dispatcher over gens.
func New(gens genclient.Set, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		gens:   gens,
		logger: zap.NewNop(),
		tracer: otel.Tracer("github.com/dusk-indust/deckenrich/internal/dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// unit is one request bound to the generator that serves it.
type unit struct {
	service deck.ServiceType
	ref     deck.SlideRef
	run     func(ctx context.Context) (any, error)
}

type outcome struct {
	value any
	err   error
}

// Dispatch generates every request in rs and returns the results grouped by
// slide ID. Slides with no requests are absent from the map.
func (d *Dispatcher) Dispatch(ctx context.Context, rs deck.RequestSet, progress ProgressFunc) map[string]*deck.SlideResults {
	units := d.flatten(rs)
	total := len(units)
	report := d.safeProgress(progress)

	report(fmt.Sprintf("Starting %d parallel API calls", total), 0, total)

	outcomes := make([]outcome, total)

	var g errgroup.Group
	if d.maxConcurrency > 0 {
		g.SetLimit(d.maxConcurrency)
	}
	for i, u := range units {
		g.Go(func() error {
			report(fmt.Sprintf("Calling %s API for slide %d", u.service, u.ref.SlideNumber), 0, 1)
			outcomes[i] = d.runUnit(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	report(fmt.Sprintf("Completed %d API calls", total), total, total)

	return group(units, outcomes)
}

// DispatchBatch dispatches only the requests of one service.
func (d *Dispatcher) DispatchBatch(ctx context.Context, service deck.ServiceType, rs deck.RequestSet, progress ProgressFunc) map[string]*deck.SlideResults {
	var only deck.RequestSet
	switch service {
	case deck.ServiceText:
		only.Text = rs.Text
	case deck.ServiceChart:
		only.Chart = rs.Chart
	case deck.ServiceImage:
		only.Image = rs.Image
	case deck.ServiceDiagram:
		only.Diagram = rs.Diagram
	}
	return d.Dispatch(ctx, only, progress)
}

// runUnit executes u, converting a panic into that unit's failure.
func (d *Dispatcher) runUnit(ctx context.Context, u unit) (out outcome) {
	ctx, span := d.tracer.Start(ctx, "dispatch."+string(u.service), trace.WithAttributes(
		attribute.String("slide.id", u.ref.SlideID),
		attribute.Int("slide.number", u.ref.SlideNumber),
	))
	start := time.Now()
	d.metrics.ItemStarted(string(u.service))

	defer func() {
		if r := recover(); r != nil {
			out = outcome{err: fmt.Errorf("dispatch: %s generator panicked: %v", u.service, r)}
		}
		elapsed := time.Since(start)
		d.metrics.ItemFinished(string(u.service), out.err, elapsed)

		log := d.logger.With(
			zap.String("service", string(u.service)),
			zap.String("slide_id", u.ref.SlideID),
			zap.Int("slide_number", u.ref.SlideNumber),
			zap.Duration("elapsed", elapsed),
		)
		if out.err != nil {
			span.RecordError(out.err)
			span.SetStatus(codes.Error, out.err.Error())
			log.Warn("generation failed", zap.Error(out.err))
		} else {
			log.Debug("generation succeeded")
		}
		span.End()
	}()

	v, err := u.run(ctx)
	return outcome{value: v, err: err}
}

// safeProgress wraps fn so a panicking callback is logged and ignored.
func (d *Dispatcher) safeProgress(fn ProgressFunc) ProgressFunc {
	return func(message string, current, total int) {
		if fn == nil {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				d.logger.Warn("progress callback panicked", zap.Any("panic", r), zap.String("message", message))
			}
		}()
		fn(message, current, total)
	}
}

// flatten turns the grouped request set into units, in service order then
// input order.
func (d *Dispatcher) flatten(rs deck.RequestSet) []unit {
	units := make([]unit, 0, rs.Len())
	for _, r := range rs.Text {
		units = append(units, bind(deck.ServiceText, r.Ref(), r, d.gens.Text))
	}
	for _, r := range rs.Chart {
		units = append(units, bind(deck.ServiceChart, r.Ref(), r, d.gens.Chart))
	}
	for _, r := range rs.Image {
		units = append(units, bind(deck.ServiceImage, r.Ref(), r, d.gens.Image))
	}
	for _, r := range rs.Diagram {
		units = append(units, bind(deck.ServiceDiagram, r.Ref(), r, d.gens.Diagram))
	}
	return units
}

func bind[Req, Res any](service deck.ServiceType, ref deck.SlideRef, req Req, gen genclient.Generator[Req, Res]) unit {
	return unit{
		service: service,
		ref:     ref,
		run: func(ctx context.Context) (any, error) {
			if gen == nil {
				return nil, fmt.Errorf("%w for %s", ErrNoGenerator, service)
			}
			return gen.Generate(ctx, req)
		},
	}
}

// group regroups outcomes by slide. It runs after every unit has finished,
// so it needs no locking.
func group(units []unit, outcomes []outcome) map[string]*deck.SlideResults {
	grouped := make(map[string]*deck.SlideResults)
	for i, u := range units {
		res, ok := grouped[u.ref.SlideID]
		if !ok {
			res = deck.NewSlideResults()
			grouped[u.ref.SlideID] = res
		}

		o := outcomes[i]
		if o.err != nil {
			res.Errors = append(res.Errors, deck.ItemError{Type: u.service, Message: o.err.Error()})
			continue
		}

		switch v := o.value.(type) {
		case deck.GeneratedText:
			res.Text = &v
		case deck.GeneratedChart:
			res.Charts = append(res.Charts, v)
		case deck.GeneratedImage:
			res.Images = append(res.Images, v)
		case deck.GeneratedDiagram:
			res.Diagrams = append(res.Diagrams, v)
		default:
			res.Errors = append(res.Errors, deck.ItemError{
				Type:    u.service,
				Message: fmt.Sprintf("dispatch: unexpected result type %T", o.value),
			})
		}
	}
	return grouped
}
