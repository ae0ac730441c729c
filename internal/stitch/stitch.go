// Package stitch assembles generated results into the flat, layout-specific
// content mappings handed to the renderer.
//
// Each layout ID maps to a MapperFunc. Layouts without a registered mapper
// use the generic fallback. Mapping never fails and never validates: a slide
// whose generations all failed still yields a usable mapping.
package stitch

import (
	"sort"
	"time"

	"github.com/dusk-indust/deckenrich/internal/deck"
	"github.com/dusk-indust/deckenrich/internal/layout"
)

// Placeholder URLs used when a visual failed or was never requested.
const (
	PlaceholderImageURL = "https://via.placeholder.com/800x600"
	PlaceholderChartURL = "https://via.placeholder.com/800x400"
)

// Defaults for the title slide byline.
const (
	DefaultPresenter    = "Content Orchestrator"
	DefaultOrganization = "AI-Generated"
	DefaultCaption      = "Illustrative image"
)

// Env carries the run-wide values mappers may need.
type Env struct {
	PresenterName string
	Organization  string
	Date          string // YYYY-MM-DD
	ImageURL      string // placeholder when no image was generated
	ChartURL      string // placeholder when no chart URL was generated
}

// MapperFunc derives the content mapping of one layout. results is never
// nil when called through a Stitcher.
type MapperFunc func(slide deck.Slide, results *deck.SlideResults, env Env) deck.Content

// Stitcher routes slides to their layout mapper.
type Stitcher struct {
	mappers  map[string]MapperFunc
	fallback MapperFunc
	env      Env
	now      func() time.Time
}

// Option configures a Stitcher.
type Option func(*Stitcher)

// WithClock sets the clock used to stamp title slides.
func WithClock(now func() time.Time) Option {
	return func(s *Stitcher) {
		s.now = now
	}
}

// WithByline overrides the presenter and organization on title slides.
func WithByline(presenter, organization string) Option {
	return func(s *Stitcher) {
		s.env.PresenterName = presenter
		s.env.Organization = organization
	}
}

// WithFallback replaces the generic mapper.
func WithFallback(fn MapperFunc) Option {
	return func(s *Stitcher) {
		s.fallback = fn
	}
}

// New returns a Stitcher with the built-in layouts registered.
func New(opts ...Option) *Stitcher {
	s := &Stitcher{
		mappers:  make(map[string]MapperFunc),
		fallback: MapGeneric,
		env: Env{
			PresenterName: DefaultPresenter,
			Organization:  DefaultOrganization,
			ImageURL:      PlaceholderImageURL,
			ChartURL:      PlaceholderChartURL,
		},
		now: time.Now,
	}
	s.Register(layout.TitleSlide, MapTitleSlide)
	s.Register(layout.BulletList, MapBulletList)
	s.Register(layout.ImageWithText, MapImageWithText)
	s.Register(layout.ChartWithInsight, MapChartWithInsights)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register binds layoutID to fn, replacing any previous mapper.
func (s *Stitcher) Register(layoutID string, fn MapperFunc) {
	s.mappers[layoutID] = fn
}

// Layouts returns the registered layout IDs in sorted order.
func (s *Stitcher) Layouts() []string {
	ids := make([]string, 0, len(s.mappers))
	for id := range s.mappers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Env returns the mapping environment for the current clock reading.
func (s *Stitcher) Env() Env {
	env := s.env
	env.Date = s.now().Format(time.DateOnly)
	return env
}

// MapContent maps one slide's results with the mapper registered for
// layoutID, or the fallback.
func (s *Stitcher) MapContent(slide deck.Slide, results *deck.SlideResults, layoutID string) deck.Content {
	return s.mapWith(s.Env(), slide, results, layoutID)
}

func (s *Stitcher) mapWith(env Env, slide deck.Slide, results *deck.SlideResults, layoutID string) deck.Content {
	if results == nil {
		results = deck.NewSlideResults()
	}
	fn, ok := s.mappers[layoutID]
	if !ok {
		fn = s.fallback
	}
	content := fn(slide, results, env)
	if content == nil {
		content = deck.Content{}
	}
	return content
}

// StitchSlide maps a slide and wraps it with its validation status.
func (s *Stitcher) StitchSlide(slide deck.Slide, a deck.LayoutAssignment, results *deck.SlideResults, status deck.ValidationStatus) deck.EnrichedSlide {
	return Assemble(slide, a, s.MapContent(slide, results, a.LayoutID), results, status)
}

// StitchBatch stitches slides in input order. slides and assignments are
// paired by position. A slide with no results is stitched from empty
// results; one with no status is marked non-compliant.
func (s *Stitcher) StitchBatch(
	slides []deck.Slide,
	assignments []deck.LayoutAssignment,
	results map[string]*deck.SlideResults,
	statuses map[string]deck.ValidationStatus,
) []deck.EnrichedSlide {
	env := s.Env()
	n := min(len(slides), len(assignments))
	out := make([]deck.EnrichedSlide, 0, n)
	for i := range n {
		slide, a := slides[i], assignments[i]
		res := results[slide.SlideID]
		status, ok := statuses[slide.SlideID]
		if !ok {
			status = deck.ValidationStatus{Violations: []deck.ValidationViolation{}}
		}
		content := s.mapWith(env, slide, res, a.LayoutID)
		out = append(out, Assemble(slide, a, content, res, status))
	}
	return out
}

// Assemble builds the EnrichedSlide for already-mapped content.
func Assemble(slide deck.Slide, a deck.LayoutAssignment, content deck.Content, results *deck.SlideResults, status deck.ValidationStatus) deck.EnrichedSlide {
	errs := []deck.ItemError{}
	if results != nil {
		errs = append(errs, results.Errors...)
	}
	if status.Violations == nil {
		status.Violations = []deck.ValidationViolation{}
	}
	return deck.EnrichedSlide{
		OriginalSlide:    slide,
		SlideID:          slide.SlideID,
		LayoutID:         a.LayoutID,
		GeneratedContent: content,
		ValidationStatus: status,
		Errors:           errs,
	}
}
