package genclient

import (
	"context"

	"github.com/dusk-indust/deckenrich/internal/deck"
)

var _ ChartGenerator = (*ChartClient)(nil)

// ChartTheme is the theme name requested from the chart service.
const ChartTheme = "professional"

// ChartClient talks to the job-polling analytics service.
type ChartClient struct {
	poller *JobPoller
}

// NewChartClient creates a ChartClient. GeneratePath defaults to /generate.
func NewChartClient(cfg ServiceConfig, opts ...Option) *ChartClient {
	if cfg.Name == "" {
		cfg.Name = string(deck.ServiceChart)
	}
	if cfg.GeneratePath == "" {
		cfg.GeneratePath = "/generate"
	}
	return &ChartClient{poller: NewJobPoller(cfg, opts...)}
}

type chartWireRequest struct {
	Content   string `json:"content"`
	Title     string `json:"title"`
	ChartType string `json:"chart_type"`
	Theme     string `json:"theme"`
}

type chartWireResult struct {
	ChartURL  string         `json:"chart_url"`
	ChartData map[string]any `json:"chart_data"`
	ChartType string         `json:"chart_type"`
	Theme     string         `json:"theme"`
	Metadata  struct {
		GeneratedAt string `json:"generated_at"`
		DataPoints  int    `json:"data_points"`
	} `json:"metadata"`
}

// Generate submits a chart job for req and waits for it.
func (c *ChartClient) Generate(ctx context.Context, req deck.ChartRequest) (deck.GeneratedChart, error) {
	wire := chartWireRequest{
		Content:   firstNonEmpty(req.Content, req.Goal),
		Title:     firstNonEmpty(req.SlideTitle, "Chart"),
		ChartType: firstNonEmpty(req.ChartType, "bar"),
		Theme:     ChartTheme,
	}

	raw, err := c.poller.Run(ctx, wire)
	if err != nil {
		return deck.GeneratedChart{}, err
	}

	var res chartWireResult
	if err := decode(c.poller.Config().Name, raw, &res); err != nil {
		return deck.GeneratedChart{}, err
	}
	data := res.ChartData
	if data == nil {
		data = map[string]any{}
	}

	return deck.GeneratedChart{
		Type: firstNonEmpty(res.ChartType, wire.ChartType),
		Data: data,
		URL:  res.ChartURL,
		Metadata: map[string]any{
			"theme":        res.Theme,
			"generated_at": res.Metadata.GeneratedAt,
			"data_points":  res.Metadata.DataPoints,
			"source":       "analytics_service_v3",
		},
	}, nil
}

// GenerateBatch generates every request concurrently.
func (c *ChartClient) GenerateBatch(ctx context.Context, reqs []deck.ChartRequest) ([]deck.GeneratedChart, error) {
	return Batch(ctx, reqs, c.Generate)
}
