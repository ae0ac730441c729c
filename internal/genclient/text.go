package genclient

import (
	"context"
	"fmt"

	"github.com/dusk-indust/deckenrich/internal/deck"
)

var _ TextGenerator = (*TextClient)(nil)

// TextClient talks to the direct text generation service.
type TextClient struct {
	caller *DirectCaller
}

// NewTextClient creates a TextClient. GeneratePath defaults to
// /api/v1/generate/text.
func NewTextClient(cfg ServiceConfig, opts ...Option) *TextClient {
	if cfg.Name == "" {
		cfg.Name = string(deck.ServiceText)
	}
	if cfg.GeneratePath == "" {
		cfg.GeneratePath = "/api/v1/generate/text"
	}
	return &TextClient{caller: NewDirectCaller(cfg, opts...)}
}

type textWireRequest struct {
	SlideID     string              `json:"slide_id"`
	SlideNumber int                 `json:"slide_number"`
	Topics      []string            `json:"topics"`
	Narrative   string              `json:"narrative"`
	Context     textWireContext     `json:"context"`
	Constraints textWireConstraints `json:"constraints"`
}

type textWireContext struct {
	Theme      string `json:"theme"`
	Audience   string `json:"audience"`
	SlideTitle string `json:"slide_title"`
}

type textWireConstraints struct {
	MaxCharacters *int   `json:"max_characters"`
	Style         string `json:"style"`
	Tone          string `json:"tone"`
}

type textWireResponse struct {
	Content  *string        `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// Generate produces slide copy for req.
func (c *TextClient) Generate(ctx context.Context, req deck.TextRequest) (deck.GeneratedText, error) {
	wire := textWireRequest{
		SlideID:     req.SlideID,
		SlideNumber: req.SlideNumber,
		Topics:      req.Topics,
		Narrative:   req.Narrative,
		Context: textWireContext{
			Theme:      req.Context.Theme,
			Audience:   req.Context.Audience,
			SlideTitle: req.SlideTitle,
		},
		Constraints: textWireConstraints{
			Style: req.Style,
			Tone:  req.Tone,
		},
	}
	if req.MaxCharacters > 0 {
		n := req.MaxCharacters
		wire.Constraints.MaxCharacters = &n
	}

	var resp textWireResponse
	if err := c.caller.Call(ctx, wire, &resp); err != nil {
		return deck.GeneratedText{}, err
	}
	if resp.Content == nil {
		return deck.GeneratedText{}, fmt.Errorf("%w: %s: missing content", ErrMalformedResponse, c.caller.Config().Name)
	}

	md := copyMetadata(resp.Metadata)
	md["source"] = "text_service"
	return deck.GeneratedText{Content: *resp.Content, Metadata: md}, nil
}

// GenerateBatch generates every request concurrently.
func (c *TextClient) GenerateBatch(ctx context.Context, reqs []deck.TextRequest) ([]deck.GeneratedText, error) {
	return Batch(ctx, reqs, c.Generate)
}

func copyMetadata(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
