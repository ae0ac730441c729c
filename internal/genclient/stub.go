package genclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dusk-indust/deckenrich/internal/deck"
)

// Offline generators. They fabricate plausible content locally after an
// artificial delay, so the pipeline can run without any network access.

var (
	_ TextGenerator    = (*StubText)(nil)
	_ ChartGenerator   = (*StubChart)(nil)
	_ ImageGenerator   = (*StubImage)(nil)
	_ DiagramGenerator = (*StubDiagram)(nil)
)

// Default stub latencies.
const (
	StubTextDelay    = 100 * time.Millisecond
	StubChartDelay   = 150 * time.Millisecond
	StubImageDelay   = 200 * time.Millisecond
	StubDiagramDelay = 150 * time.Millisecond
)

// StubText expands topics into canned sentences.
type StubText struct {
	Delay time.Duration
	Err   error
}

// Generate implements TextGenerator.
func (s *StubText) Generate(ctx context.Context, req deck.TextRequest) (deck.GeneratedText, error) {
	if err := stubWait(ctx, s.Delay, s.Err); err != nil {
		return deck.GeneratedText{}, err
	}
	content := ExpandTopics(req.Topics, req.MaxCharacters)
	return deck.GeneratedText{
		Content: content,
		Metadata: map[string]any{
			"word_count":   len(strings.Fields(content)),
			"topics_count": len(req.Topics),
			"delay_ms":     s.Delay.Milliseconds(),
			"source":       "stub_text",
		},
	}, nil
}

// GenerateBatch implements TextGenerator.
func (s *StubText) GenerateBatch(ctx context.Context, reqs []deck.TextRequest) ([]deck.GeneratedText, error) {
	return Batch(ctx, reqs, s.Generate)
}

// ExpandTopics turns key points into sentences, truncating the result to
// maxChars runes (ending in "...") when maxChars is positive.
func ExpandTopics(topics []string, maxChars int) string {
	sentences := make([]string, 0, len(topics))
	for _, topic := range topics {
		t := strings.ToLower(topic)
		switch {
		case strings.Contains(t, "revenue") && strings.Contains(t, "growth"):
			sentences = append(sentences, "Q3 revenue reached $127M, representing 32% growth over Q2.")
		case strings.Contains(t, "margin"), strings.Contains(t, "ebitda"):
			sentences = append(sentences, "EBITDA margin improved to 32.3%, up 340 basis points year-over-year.")
		case strings.Contains(t, "cost"):
			sentences = append(sentences, "Operating costs reduced by 28% through efficiency initiatives.")
		case strings.Contains(t, "market"):
			sentences = append(sentences, "Market share increased to 23.5%, driven by product innovation.")
		case strings.Contains(t, "customer"):
			sentences = append(sentences, "Customer satisfaction scores reached 92%, highest in company history.")
		default:
			sentences = append(sentences, topic+": Significant progress achieved with measurable results.")
		}
	}

	content := strings.Join(sentences, " ")
	r := []rune(content)
	if maxChars > 3 && len(r) > maxChars {
		content = string(r[:maxChars-3]) + "..."
	}
	return content
}

// StubChart returns Chart.js-shaped data chosen from the request content.
type StubChart struct {
	Delay time.Duration
	Err   error
}

// Generate implements ChartGenerator.
func (s *StubChart) Generate(ctx context.Context, req deck.ChartRequest) (deck.GeneratedChart, error) {
	if err := stubWait(ctx, s.Delay, s.Err); err != nil {
		return deck.GeneratedChart{}, err
	}
	chartType := firstNonEmpty(req.ChartType, "bar")
	return deck.GeneratedChart{
		Type: chartType,
		Data: SampleChartData(req.Content),
		URL:  fmt.Sprintf("https://cdn.example.com/charts/chart-%s-%d.png", chartType, req.SlideNumber),
		Metadata: map[string]any{
			"goal":       req.Goal,
			"dimensions": req.Dimensions,
			"delay_ms":   s.Delay.Milliseconds(),
			"source":     "stub_chart",
		},
	}, nil
}

// GenerateBatch implements ChartGenerator.
func (s *StubChart) GenerateBatch(ctx context.Context, reqs []deck.ChartRequest) ([]deck.GeneratedChart, error) {
	return Batch(ctx, reqs, s.Generate)
}

// SampleChartData picks a Chart.js dataset matching the content keywords.
func SampleChartData(content string) map[string]any {
	c := strings.ToLower(content)
	dataset := func(label string, data []any, extra map[string]any) map[string]any {
		ds := map[string]any{"label": label, "data": data}
		for k, v := range extra {
			ds[k] = v
		}
		return map[string]any{"datasets": []any{ds}}
	}

	var (
		labels []any
		out    map[string]any
	)
	switch {
	case strings.Contains(c, "revenue"):
		labels = []any{"Q4 '24", "Q1 '25", "Q2 '25", "Q3 '25"}
		out = dataset("Revenue ($M)", []any{95, 107, 118, 127}, map[string]any{
			"backgroundColor": []any{"#e0e0e0", "#e0e0e0", "#e0e0e0", "#007bff"},
			"borderColor":     "#333",
			"borderWidth":     1,
		})
	case strings.Contains(c, "margin"), strings.Contains(c, "ebitda"):
		labels = []any{"Q1", "Q2", "Q3", "Q4"}
		out = dataset("EBITDA Margin (%)", []any{28.5, 29.8, 31.2, 32.3}, map[string]any{
			"borderColor":     "#007bff",
			"backgroundColor": "rgba(0, 123, 255, 0.1)",
			"fill":            true,
			"tension":         0.4,
		})
	case strings.Contains(c, "cost"):
		labels = []any{"Jan", "Feb", "Mar", "Apr", "May", "Jun"}
		out = dataset("Operating Costs ($M)", []any{45, 43, 40, 38, 35, 32}, map[string]any{
			"borderColor":     "#dc3545",
			"backgroundColor": "rgba(220, 53, 69, 0.1)",
			"fill":            true,
		})
	case strings.Contains(c, "market"):
		labels = []any{"Us", "Competitor A", "Competitor B", "Others"}
		out = dataset("Market Share (%)", []any{23.5, 19.2, 15.8, 41.5}, map[string]any{
			"backgroundColor": []any{"#007bff", "#6c757d", "#6c757d", "#e0e0e0"},
		})
	default:
		labels = []any{"Jan", "Feb", "Mar", "Apr"}
		out = dataset("Metric", []any{12, 19, 15, 25}, map[string]any{
			"backgroundColor": "#007bff",
		})
	}
	out["labels"] = labels
	return out
}

// StubImage returns CDN-style image URLs.
type StubImage struct {
	Delay time.Duration
	Err   error
}

// Generate implements ImageGenerator.
func (s *StubImage) Generate(ctx context.Context, req deck.ImageRequest) (deck.GeneratedImage, error) {
	if err := stubWait(ctx, s.Delay, s.Err); err != nil {
		return deck.GeneratedImage{}, err
	}
	ratio := firstNonEmpty(req.Dimensions.AspectRatio, "16:9")
	return deck.GeneratedImage{
		URL:     fmt.Sprintf("https://cdn.example.com/images/%s-%d.jpg", strings.ReplaceAll(ratio, ":", "x"), req.SlideNumber),
		Caption: firstNonEmpty(req.Goal, req.Content, "Illustrative image"),
		Metadata: map[string]any{
			"style":      req.Style,
			"dimensions": req.Dimensions,
			"delay_ms":   s.Delay.Milliseconds(),
			"source":     "stub_image",
		},
	}, nil
}

// GenerateBatch implements ImageGenerator.
func (s *StubImage) GenerateBatch(ctx context.Context, reqs []deck.ImageRequest) ([]deck.GeneratedImage, error) {
	return Batch(ctx, reqs, s.Generate)
}

// StubDiagram returns CDN-style SVG URLs.
type StubDiagram struct {
	Delay time.Duration
	Err   error
}

// Generate implements DiagramGenerator.
func (s *StubDiagram) Generate(ctx context.Context, req deck.DiagramRequest) (deck.GeneratedDiagram, error) {
	if err := stubWait(ctx, s.Delay, s.Err); err != nil {
		return deck.GeneratedDiagram{}, err
	}
	diagramType := firstNonEmpty(req.DiagramType, "flowchart")
	return deck.GeneratedDiagram{
		Type: diagramType,
		URL:  fmt.Sprintf("https://cdn.example.com/diagrams/%s-%d.svg", diagramType, req.SlideNumber),
		Metadata: map[string]any{
			"goal":     req.Goal,
			"content":  req.Content,
			"delay_ms": s.Delay.Milliseconds(),
			"source":   "stub_diagram",
		},
	}, nil
}

// GenerateBatch implements DiagramGenerator.
func (s *StubDiagram) GenerateBatch(ctx context.Context, reqs []deck.DiagramRequest) ([]deck.GeneratedDiagram, error) {
	return Batch(ctx, reqs, s.Generate)
}

// NewStubSet returns offline generators with the default latencies.
func NewStubSet() Set {
	return Set{
		Text:    &StubText{Delay: StubTextDelay},
		Chart:   &StubChart{Delay: StubChartDelay},
		Image:   &StubImage{Delay: StubImageDelay},
		Diagram: &StubDiagram{Delay: StubDiagramDelay},
	}
}

func stubWait(ctx context.Context, d time.Duration, err error) error {
	if d > 0 {
		if werr := sleepCtx(ctx, d); werr != nil {
			return werr
		}
	}
	return err
}
