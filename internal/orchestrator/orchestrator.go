// Package orchestrator runs an enrichment: it resolves layout assignments,
// builds every service request, dispatches them concurrently, validates the
// mapped content and stitches the final presentation.
package orchestrator

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dusk-indust/deckenrich/internal/deck"
	"github.com/dusk-indust/deckenrich/internal/dispatch"
	"github.com/dusk-indust/deckenrich/internal/genclient"
	"github.com/dusk-indust/deckenrich/internal/layout"
	"github.com/dusk-indust/deckenrich/internal/metrics"
	"github.com/dusk-indust/deckenrich/internal/request"
	"github.com/dusk-indust/deckenrich/internal/stitch"
	"github.com/dusk-indust/deckenrich/internal/validate"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Reported in GenerationMetadata.
const (
	Version      = "2.0"
	Architecture = "lightweight"
)

// Phases is the number of progress milestones of a run.
const Phases = 5

// Enricher coordinates one or more enrichment runs. It holds no per-run
// state and may be used concurrently.
type Enricher struct {
	gens           genclient.Set
	catalog        *layout.Catalog
	validator      *validate.Validator
	stitcher       *stitch.Stitcher
	logger         *zap.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	now            func() time.Time
	maxConcurrency int
	runDeadline    time.Duration

	dispatcher *dispatch.Dispatcher
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithLogger sets the logger handed to the dispatcher and validator.
func WithLogger(l *zap.Logger) Option {
	return func(e *Enricher) { e.logger = l }
}

// WithValidator replaces the default validator, for example to change the
// limit threshold.
func WithValidator(v *validate.Validator) Option {
	return func(e *Enricher) { e.validator = v }
}

// WithStitcher replaces the default stitcher and its mapper table.
func WithStitcher(s *stitch.Stitcher) Option {
	return func(e *Enricher) { e.stitcher = s }
}

// WithCatalog sets the catalog used to synthesize default assignments.
func WithCatalog(c *layout.Catalog) Option {
	return func(e *Enricher) { e.catalog = c }
}

// WithClock replaces time.Now for timestamps and elapsed time.
func WithClock(now func() time.Time) Option {
	return func(e *Enricher) { e.now = now }
}

// WithMetrics records run and item metrics on m. Nil records nothing.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Enricher) { e.metrics = m }
}

// WithTracer sets the tracer for run and dispatch spans. The default comes
// from the global otel provider.
func WithTracer(t trace.Tracer) Option {
	return func(e *Enricher) { e.tracer = t }
}

// WithMaxConcurrency caps in-flight generation units. Zero means no cap.
func WithMaxConcurrency(n int) Option {
	return func(e *Enricher) { e.maxConcurrency = n }
}

// WithRunDeadline bounds the dispatch phase of every run. Units still in
// flight when it expires fail with a deadline error; the run still returns
// a document. Zero means no deadline.
func WithRunDeadline(d time.Duration) Option {
	return func(e *Enricher) { e.runDeadline = d }
}

// New creates an Enricher over the given generators.
func New(gens genclient.Set, opts ...Option) *Enricher {
	e := &Enricher{
		gens:   gens,
		logger: zap.NewNop(),
		tracer: otel.Tracer("github.com/dusk-indust/deckenrich/internal/orchestrator"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.catalog == nil {
		e.catalog = layout.Default()
	}
	if e.validator == nil {
		e.validator = validate.New(validate.WithLogger(e.logger))
	}
	if e.stitcher == nil {
		e.stitcher = stitch.New(stitch.WithClock(e.now))
	}
	e.dispatcher = dispatch.New(gens,
		dispatch.WithLogger(e.logger),
		dispatch.WithMetrics(e.metrics),
		dispatch.WithTracer(e.tracer),
		dispatch.WithMaxConcurrency(e.maxConcurrency),
	)
	return e
}

// Enrich turns outline into an enriched presentation. When assignments is
// empty, one is synthesized per slide from the catalog.
//
// The only error returned is deck.ErrLayoutMismatch, raised before any
// request is built. Every generation failure is recorded in the returned
// document instead.
func (e *Enricher) Enrich(ctx context.Context, outline deck.Outline, assignments []deck.LayoutAssignment, progress ProgressFunc) (*deck.EnrichedPresentation, error) {
	start := e.now()
	report := guard(e.logger, progress)
	log := e.logger.With(zap.String("main_title", outline.MainTitle))

	ctx, span := e.tracer.Start(ctx, "enrich", trace.WithAttributes(
		attribute.Int("slides", len(outline.Slides)),
	))
	defer span.End()

	if len(assignments) == 0 {
		assignments = e.catalog.Assign(outline.Slides)
		log.Info("using default layout assignments")
	}
	if err := checkAlignment(outline.Slides, assignments); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.metrics.RunFinished(metrics.OutcomeFailure, e.now().Sub(start))
		log.Error("rejecting run", zap.Error(err))
		return nil, err
	}

	log.Info("starting enrichment", zap.Int("slides", len(outline.Slides)))

	// 1. Requests.
	report("Building API requests", 1, Phases)
	rs := request.BuildAll(outline, assignments)
	total := rs.Len()
	span.SetAttributes(attribute.Int("requests", total))
	log.Info("built requests",
		zap.Int("requests", total),
		zap.Int("text", rs.Count(deck.ServiceText)),
		zap.Int("chart", rs.Count(deck.ServiceChart)),
		zap.Int("image", rs.Count(deck.ServiceImage)),
		zap.Int("diagram", rs.Count(deck.ServiceDiagram)),
	)

	// 2. Dispatch.
	report(fmt.Sprintf("Calling %d APIs in parallel", total), 2, Phases)
	results := e.dispatch(ctx, rs, report)
	log.Info("dispatch complete", zap.Int("slides_with_results", len(results)))

	// 3. Map and validate.
	report("Validating results", 3, Phases)
	contents := make(map[string]deck.Content, len(outline.Slides))
	for i, s := range outline.Slides {
		contents[s.SlideID] = e.stitcher.MapContent(s, results[s.SlideID], assignments[i].LayoutID)
	}
	statuses := e.validator.ValidateBatch(contents, assignments)

	// 4. Stitch.
	report("Stitching results", 4, Phases)
	slides := make([]deck.EnrichedSlide, 0, len(outline.Slides))
	for i, s := range outline.Slides {
		slides = append(slides, stitch.Assemble(s, assignments[i], contents[s.SlideID], results[s.SlideID], statuses[s.SlideID]))
	}

	// 5. Report.
	report("Creating final report", 5, Phases)
	validation := buildReport(slides)
	elapsed := e.now().Sub(start)
	meta := e.buildMetadata(outline.Slides, results, total, elapsed)

	e.metrics.RunFinished(metrics.OutcomeSuccess, elapsed)
	span.SetAttributes(
		attribute.Int("items.successful", meta.SuccessfulItems),
		attribute.Int("items.failed", meta.FailedItems),
		attribute.Bool("compliant", validation.OverallCompliant),
	)
	log.Info("enrichment complete",
		zap.String("run_id", meta.RunID),
		zap.Duration("elapsed", elapsed),
		zap.Int("successful_items", meta.SuccessfulItems),
		zap.Int("failed_items", meta.FailedItems),
		zap.Int("compliant_slides", validation.CompliantSlides),
		zap.Int("total_slides", validation.TotalSlides),
	)

	return &deck.EnrichedPresentation{
		OriginalOutline:    outline,
		EnrichedSlides:     slides,
		ValidationReport:   validation,
		GenerationMetadata: meta,
	}, nil
}

func (e *Enricher) dispatch(ctx context.Context, rs deck.RequestSet, report ProgressFunc) map[string]*deck.SlideResults {
	if e.runDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.runDeadline)
		defer cancel()
	}
	return e.dispatcher.Dispatch(ctx, rs, report)
}

// checkAlignment requires one assignment per slide, in slide order, and
// unique non-empty slide IDs. An assignment naming a different slide than
// its position is also rejected; empty IDs on either side are not compared.
func checkAlignment(slides []deck.Slide, assignments []deck.LayoutAssignment) error {
	if len(assignments) != len(slides) {
		return fmt.Errorf("%w: %d assignments for %d slides", deck.ErrLayoutMismatch, len(assignments), len(slides))
	}
	seen := make(map[string]bool, len(slides))
	for i, s := range slides {
		if s.SlideID != "" {
			if seen[s.SlideID] {
				return fmt.Errorf("%w: duplicate slide_id %q at slide %d", deck.ErrLayoutMismatch, s.SlideID, i)
			}
			seen[s.SlideID] = true
		}
		a := assignments[i]
		if a.SlideID != "" && s.SlideID != "" && a.SlideID != s.SlideID {
			return fmt.Errorf("%w: assignment %d is for slide %q, expected %q", deck.ErrLayoutMismatch, i, a.SlideID, s.SlideID)
		}
	}
	return nil
}

func buildReport(slides []deck.EnrichedSlide) deck.ValidationReport {
	r := deck.ValidationReport{TotalSlides: len(slides)}
	for _, s := range slides {
		if s.ValidationStatus.Compliant {
			r.CompliantSlides++
		}
		r.TotalViolations += len(s.ValidationStatus.Violations)
		r.CriticalViolations += s.ValidationStatus.CriticalCount()
	}
	r.OverallCompliant = r.CriticalViolations == 0
	return r
}

// buildMetadata counts outcomes slide by slide in outline order, so the
// failure list is stable across runs.
func (e *Enricher) buildMetadata(slides []deck.Slide, results map[string]*deck.SlideResults, requests int, elapsed time.Duration) deck.GenerationMetadata {
	meta := deck.GenerationMetadata{
		RunID:                 uuid.NewString(),
		TotalRequests:         requests,
		GenerationTime:        elapsed,
		GenerationTimeSeconds: math.Round(elapsed.Seconds()*100) / 100,
		Timestamp:             e.now().UTC(),
		Failures:              []deck.GenerationFailure{},
		OrchestratorVersion:   Version,
		Architecture:          Architecture,
	}

	seen := make(map[string]bool, len(slides))
	for _, s := range slides {
		if seen[s.SlideID] {
			continue
		}
		seen[s.SlideID] = true

		r := results[s.SlideID]
		if r == nil {
			continue
		}
		meta.SuccessfulItems += r.Successes()
		meta.FailedItems += len(r.Errors)
		for _, ie := range r.Errors {
			meta.Failures = append(meta.Failures, deck.GenerationFailure{
				SlideID:     s.SlideID,
				SlideNumber: s.SlideNumber,
				Type:        ie.Type,
				Error:       ie.Message,
			})
		}
	}
	meta.TotalItemsGenerated = meta.SuccessfulItems + meta.FailedItems
	return meta
}
