// Package deck defines the data model shared by every stage of the
// enrichment pipeline: the incoming outline, layout assignments, service
// requests, generated results, validation output and the final enriched
// presentation.
package deck

import (
	"errors"
	"strings"
)

// ErrLayoutMismatch is returned when the layout assignments do not line up
// 1:1 with the slides of an outline.
var ErrLayoutMismatch = errors.New("deck: layout assignments do not match slides")

// SlideType tags the role of a slide within the outline.
type SlideType string

const (
	SlideTypeTitle          SlideType = "title_slide"
	SlideTypeContentHeavy   SlideType = "content_heavy"
	SlideTypeDataDriven     SlideType = "data_driven"
	SlideTypeVisualHeavy    SlideType = "visual_heavy"
	SlideTypeMixedContent   SlideType = "mixed_content"
	SlideTypeDiagramFocused SlideType = "diagram_focused"
	SlideTypeConclusion     SlideType = "conclusion_slide"
)

// Slide is one slide of the outline produced upstream. Optional guidance
// fields are empty strings (or a nil slice) when absent.
type Slide struct {
	SlideID             string    `json:"slide_id" yaml:"slide_id"`
	SlideNumber         int       `json:"slide_number" yaml:"slide_number"`
	SlideType           SlideType `json:"slide_type" yaml:"slide_type"`
	Title               string    `json:"title" yaml:"title"`
	Narrative           string    `json:"narrative" yaml:"narrative"`
	KeyPoints           []string  `json:"key_points" yaml:"key_points"`
	AnalyticsNeeded     string    `json:"analytics_needed" yaml:"analytics_needed"`
	VisualsNeeded       string    `json:"visuals_needed" yaml:"visuals_needed"`
	DiagramsNeeded      string    `json:"diagrams_needed" yaml:"diagrams_needed"`
	StructurePreference string    `json:"structure_preference" yaml:"structure_preference"`
}

// HasKeyPoints reports whether the slide carries at least one key point.
func (s Slide) HasKeyPoints() bool { return len(s.KeyPoints) > 0 }

// HasAnalytics reports whether chart guidance is present.
func (s Slide) HasAnalytics() bool { return strings.TrimSpace(s.AnalyticsNeeded) != "" }

// HasVisuals reports whether image guidance is present.
func (s Slide) HasVisuals() bool { return strings.TrimSpace(s.VisualsNeeded) != "" }

// HasDiagrams reports whether diagram guidance is present.
func (s Slide) HasDiagrams() bool { return strings.TrimSpace(s.DiagramsNeeded) != "" }

// Outline is the structured presentation skeleton (the "strawman").
type Outline struct {
	MainTitle            string  `json:"main_title" yaml:"main_title"`
	OverallTheme         string  `json:"overall_theme" yaml:"overall_theme"`
	TargetAudience       string  `json:"target_audience" yaml:"target_audience"`
	DesignSuggestions    string  `json:"design_suggestions" yaml:"design_suggestions"`
	PresentationDuration int     `json:"presentation_duration" yaml:"presentation_duration"`
	Slides               []Slide `json:"slides" yaml:"slides"`
}

// Context returns the presentation-level context attached to every request.
func (o Outline) Context() PresentationContext {
	return PresentationContext{
		Theme:     o.OverallTheme,
		Audience:  o.TargetAudience,
		MainTitle: o.MainTitle,
	}
}

// PresentationContext is shared by every service request of one run.
type PresentationContext struct {
	Theme     string `json:"theme"`
	Audience  string `json:"audience"`
	MainTitle string `json:"main_title"`
}

// ImageDimensions describes the expected geometry of a visual field.
type ImageDimensions struct {
	Width            int     `json:"width" yaml:"width"`
	Height           int     `json:"height" yaml:"height"`
	AspectRatio      string  `json:"aspect_ratio" yaml:"aspect_ratio"`
	Format           string  `json:"format,omitempty" yaml:"format,omitempty"`
	TolerancePercent float64 `json:"tolerance_percent,omitempty" yaml:"tolerance_percent,omitempty"`
}

// LayoutConstraints holds the structural requirements of a layout.
type LayoutConstraints struct {
	RequiredFields  []string                   `json:"required_fields" yaml:"required_fields"`
	CharacterLimits map[string]int             `json:"character_limits,omitempty" yaml:"character_limits,omitempty"`
	ArrayLimits     map[string]int             `json:"array_limits,omitempty" yaml:"array_limits,omitempty"`
	ArrayItemLimits map[string]int             `json:"array_item_limits,omitempty" yaml:"array_item_limits,omitempty"`
	ImageDimensions map[string]ImageDimensions `json:"image_dimensions,omitempty" yaml:"image_dimensions,omitempty"`
}

// Clone returns a deep copy of c so callers can mutate it freely.
func (c LayoutConstraints) Clone() LayoutConstraints {
	out := LayoutConstraints{}
	if c.RequiredFields != nil {
		out.RequiredFields = append([]string(nil), c.RequiredFields...)
	}
	out.CharacterLimits = cloneIntMap(c.CharacterLimits)
	out.ArrayLimits = cloneIntMap(c.ArrayLimits)
	out.ArrayItemLimits = cloneIntMap(c.ArrayItemLimits)
	if c.ImageDimensions != nil {
		out.ImageDimensions = make(map[string]ImageDimensions, len(c.ImageDimensions))
		for k, v := range c.ImageDimensions {
			out.ImageDimensions[k] = v
		}
	}
	return out
}

func cloneIntMap(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// LayoutAssignment binds one slide to a layout and its constraints.
type LayoutAssignment struct {
	SlideID     string            `json:"slide_id" yaml:"slide_id"`
	SlideNumber int               `json:"slide_number" yaml:"slide_number"`
	LayoutID    string            `json:"layout_id" yaml:"layout_id"`
	LayoutName  string            `json:"layout_name" yaml:"layout_name"`
	Constraints LayoutConstraints `json:"constraints" yaml:"constraints"`
}
