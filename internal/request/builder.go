// Package request compiles slides and their layout assignments into typed
// generation service requests. Building is pure: no I/O, no randomness.
package request

import (
	"strings"

	"github.com/dusk-indust/deckenrich/internal/deck"
	"github.com/dusk-indust/deckenrich/internal/guidance"
)

// Text request style and tone sent with every text request.
const (
	TextStyle = "professional"
	TextTone  = "data-driven"
)

// Content fields whose image dimensions drive chart and image requests.
const (
	ChartField = "chart_url"
	ImageField = "image_url"
)

// textLimitFields are checked in order for the text character budget.
var textLimitFields = []string{"body_text", "summary", "description", "content"}

var (
	defaultChartDimensions = deck.Dimensions{Width: 800, Height: 400}
	defaultImageDimensions = deck.Dimensions{Width: 1600, Height: 900, AspectRatio: "16:9"}
)

// Build produces zero to four requests for one slide.
func Build(s deck.Slide, a deck.LayoutAssignment, pctx deck.PresentationContext) deck.RequestSet {
	var rs deck.RequestSet
	ref := deck.SlideRef{SlideID: s.SlideID, SlideNumber: s.SlideNumber}

	if s.HasKeyPoints() {
		rs.Text = append(rs.Text, deck.TextRequest{
			SlideRef:      ref,
			Topics:        append([]string(nil), s.KeyPoints...),
			Narrative:     s.Narrative,
			SlideTitle:    s.Title,
			MaxCharacters: TextLimit(a.Constraints),
			Style:         TextStyle,
			Tone:          TextTone,
			Context:       pctx,
		})
	}

	if s.HasAnalytics() {
		g := guidance.Parse(s.AnalyticsNeeded)
		style := guidance.Field(g, guidance.LabelStyle)
		rs.Chart = append(rs.Chart, deck.ChartRequest{
			SlideRef:   ref,
			Goal:       guidance.Field(g, guidance.LabelGoal),
			Content:    guidance.Field(g, guidance.LabelContent),
			Style:      style,
			ChartType:  ChartType(style),
			Dimensions: dimensionsFor(a.Constraints, ChartField, defaultChartDimensions),
			SlideTitle: s.Title,
			Context:    pctx,
		})
	}

	if s.HasVisuals() {
		g := guidance.Parse(s.VisualsNeeded)
		rs.Image = append(rs.Image, deck.ImageRequest{
			SlideRef:   ref,
			Goal:       guidance.Field(g, guidance.LabelGoal),
			Content:    guidance.Field(g, guidance.LabelContent),
			Style:      guidance.Field(g, guidance.LabelStyle),
			Dimensions: dimensionsFor(a.Constraints, ImageField, defaultImageDimensions),
			SlideTitle: s.Title,
			Context:    pctx,
		})
	}

	if s.HasDiagrams() {
		g := guidance.Parse(s.DiagramsNeeded)
		style := guidance.Field(g, guidance.LabelStyle)
		content := guidance.Field(g, guidance.LabelContent)
		rs.Diagram = append(rs.Diagram, deck.DiagramRequest{
			SlideRef:    ref,
			Goal:        guidance.Field(g, guidance.LabelGoal),
			Content:     content,
			Style:       style,
			DiagramType: DiagramType(style, content),
			SlideTitle:  s.Title,
			Context:     pctx,
		})
	}

	return rs
}

// BuildAll builds requests for every slide, pairing slides and assignments
// by position. Callers must have checked that the lengths match.
func BuildAll(o deck.Outline, assignments []deck.LayoutAssignment) deck.RequestSet {
	var rs deck.RequestSet
	pctx := o.Context()
	for i, s := range o.Slides {
		var a deck.LayoutAssignment
		if i < len(assignments) {
			a = assignments[i]
		}
		rs.Merge(Build(s, a, pctx))
	}
	return rs
}

// TextLimit returns the first configured text-field character limit, or 0
// when the layout has none.
func TextLimit(c deck.LayoutConstraints) int {
	for _, f := range textLimitFields {
		if n, ok := c.CharacterLimits[f]; ok {
			return n
		}
	}
	return 0
}

// ChartType infers the chart type from the guidance style.
func ChartType(style string) string {
	style = strings.ToLower(style)
	switch {
	case strings.Contains(style, "line"), strings.Contains(style, "trend"):
		return "line"
	case strings.Contains(style, "pie"), strings.Contains(style, "distribution"):
		return "pie"
	case strings.Contains(style, "scatter"):
		return "scatter"
	default:
		return "bar"
	}
}

// DiagramType infers the diagram type from the guidance style and content.
func DiagramType(style, content string) string {
	style = strings.ToLower(style)
	content = strings.ToLower(content)
	switch {
	case strings.Contains(style, "hierarchy"), strings.Contains(content, "org"):
		return "hierarchy"
	case strings.Contains(style, "process"), strings.Contains(content, "workflow"):
		return "process"
	case strings.Contains(style, "network"), strings.Contains(content, "connection"):
		return "network"
	default:
		return "flowchart"
	}
}

func dimensionsFor(c deck.LayoutConstraints, field string, fallback deck.Dimensions) deck.Dimensions {
	d, ok := c.ImageDimensions[field]
	if !ok {
		return fallback
	}
	return deck.Dimensions{Width: d.Width, Height: d.Height, AspectRatio: d.AspectRatio}
}
