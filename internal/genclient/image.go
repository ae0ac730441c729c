package genclient

import (
	"context"
	"fmt"

	"github.com/dusk-indust/deckenrich/internal/deck"
)

var _ ImageGenerator = (*ImageClient)(nil)

// DefaultArchetype is sent when the guidance names no style.
const DefaultArchetype = "spot_illustration"

// ImageClient talks to the direct image generation service.
type ImageClient struct {
	caller *DirectCaller
}

// NewImageClient creates an ImageClient. GeneratePath defaults to
// /api/v2/generate.
func NewImageClient(cfg ServiceConfig, opts ...Option) *ImageClient {
	if cfg.Name == "" {
		cfg.Name = string(deck.ServiceImage)
	}
	if cfg.GeneratePath == "" {
		cfg.GeneratePath = "/api/v2/generate"
	}
	return &ImageClient{caller: NewDirectCaller(cfg, opts...)}
}

type imageWireRequest struct {
	Prompt      string           `json:"prompt"`
	AspectRatio string           `json:"aspect_ratio"`
	Archetype   string           `json:"archetype"`
	Options     imageWireOptions `json:"options"`
}

type imageWireOptions struct {
	RemoveBackground bool   `json:"remove_background"`
	CropAnchor       string `json:"crop_anchor"`
	StoreInCloud     bool   `json:"store_in_cloud"`
}

type imageWireResponse struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	ImageID string `json:"image_id"`
	URLs    struct {
		Original    string `json:"original"`
		Cropped     string `json:"cropped"`
		Transparent string `json:"transparent"`
	} `json:"urls"`
	Metadata struct {
		Model             string `json:"model"`
		TargetAspectRatio string `json:"target_aspect_ratio"`
		GenerationTimeMS  int    `json:"generation_time_ms"`
	} `json:"metadata"`
}

// Generate produces an illustration for req.
func (c *ImageClient) Generate(ctx context.Context, req deck.ImageRequest) (deck.GeneratedImage, error) {
	wire := imageWireRequest{
		Prompt:      firstNonEmpty(req.Goal, req.Content),
		AspectRatio: firstNonEmpty(req.Dimensions.AspectRatio, "16:9"),
		Archetype:   firstNonEmpty(req.Style, DefaultArchetype),
		Options: imageWireOptions{
			CropAnchor:   "center",
			StoreInCloud: true,
		},
	}

	var resp imageWireResponse
	if err := c.caller.Call(ctx, wire, &resp); err != nil {
		return deck.GeneratedImage{}, err
	}

	name := c.caller.Config().Name
	if resp.Success != nil && !*resp.Success {
		return deck.GeneratedImage{}, fmt.Errorf("%w: %s: %s", ErrServiceRejected, name, firstNonEmpty(resp.Error, "unknown error"))
	}

	url := firstNonEmpty(resp.URLs.Cropped, resp.URLs.Original)
	if url == "" {
		return deck.GeneratedImage{}, fmt.Errorf("%w: %s: no image url", ErrMalformedResponse, name)
	}

	return deck.GeneratedImage{
		URL:     url,
		Caption: firstNonEmpty(req.Goal, req.Content),
		Metadata: map[string]any{
			"image_id":           resp.ImageID,
			"aspect_ratio":       resp.Metadata.TargetAspectRatio,
			"generation_time_ms": resp.Metadata.GenerationTimeMS,
			"model":              resp.Metadata.Model,
			"all_urls": map[string]string{
				"original":    resp.URLs.Original,
				"cropped":     resp.URLs.Cropped,
				"transparent": resp.URLs.Transparent,
			},
			"source": "image_service_v2",
		},
	}, nil
}

// GenerateBatch generates every request concurrently.
func (c *ImageClient) GenerateBatch(ctx context.Context, reqs []deck.ImageRequest) ([]deck.GeneratedImage, error) {
	return Batch(ctx, reqs, c.Generate)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
