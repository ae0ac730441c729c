package genclient

import (
	"context"

	"github.com/dusk-indust/deckenrich/internal/deck"
)

var _ DiagramGenerator = (*DiagramClient)(nil)

// DiagramClient talks to the job-polling diagram service.
type DiagramClient struct {
	poller *JobPoller
}

// NewDiagramClient creates a DiagramClient. GeneratePath defaults to /generate.
func NewDiagramClient(cfg ServiceConfig, opts ...Option) *DiagramClient {
	if cfg.Name == "" {
		cfg.Name = string(deck.ServiceDiagram)
	}
	if cfg.GeneratePath == "" {
		cfg.GeneratePath = "/generate"
	}
	return &DiagramClient{poller: NewJobPoller(cfg, opts...)}
}

type diagramWireRequest struct {
	Content     string           `json:"content"`
	DiagramType string           `json:"diagram_type"`
	Theme       diagramWireTheme `json:"theme"`
}

type diagramWireTheme struct {
	PrimaryColor string `json:"primaryColor"`
	Style        string `json:"style"`
}

type diagramWireResult struct {
	DiagramURL       string `json:"diagram_url"`
	DiagramType      string `json:"diagram_type"`
	GenerationMethod string `json:"generation_method"`
	Metadata         struct {
		GenerationTimeMS int `json:"generation_time_ms"`
		Dimensions       any `json:"dimensions"`
	} `json:"metadata"`
}

// Generate submits a diagram job for req and waits for it.
func (c *DiagramClient) Generate(ctx context.Context, req deck.DiagramRequest) (deck.GeneratedDiagram, error) {
	wire := diagramWireRequest{
		Content:     firstNonEmpty(req.Content, req.Goal),
		DiagramType: firstNonEmpty(req.DiagramType, "flowchart"),
		Theme: diagramWireTheme{
			PrimaryColor: "#3B82F6",
			Style:        "modern",
		},
	}

	raw, err := c.poller.Run(ctx, wire)
	if err != nil {
		return deck.GeneratedDiagram{}, err
	}

	var res diagramWireResult
	if err := decode(c.poller.Config().Name, raw, &res); err != nil {
		return deck.GeneratedDiagram{}, err
	}

	return deck.GeneratedDiagram{
		Type: firstNonEmpty(res.DiagramType, wire.DiagramType),
		URL:  res.DiagramURL,
		Metadata: map[string]any{
			"generation_method":  res.GenerationMethod,
			"generation_time_ms": res.Metadata.GenerationTimeMS,
			"dimensions":         res.Metadata.Dimensions,
			"source":             "diagram_service",
		},
	}, nil
}

// GenerateBatch generates every request concurrently.
func (c *DiagramClient) GenerateBatch(ctx context.Context, reqs []deck.DiagramRequest) ([]deck.GeneratedDiagram, error) {
	return Batch(ctx, reqs, c.Generate)
}
