package mcptools

import "github.com/dusk-indust/deckenrich/internal/export"

// EnrichInput is the input of the enrich_presentation tool. Documents are
// taken as plain JSON and checked against the outline schemas, so optional
// guidance fields may be omitted or null.
type EnrichInput struct {
	Outline           map[string]any   `json:"outline" jsonschema:"the presentation outline: main_title, overall_theme, target_audience and slides[] with slide_id, slide_number, title and optional guidance fields"`
	LayoutAssignments []map[string]any `json:"layout_assignments,omitempty" jsonschema:"one layout assignment per slide in slide order; omit to derive them from the built-in catalog"`
}

// EnrichOutput is the result of the enrich_presentation tool.
type EnrichOutput struct {
	Summary      export.Summary `json:"summary"`
	Presentation map[string]any `json:"presentation"`
}

// ListLayoutsInput is the (empty) input of the list_layouts tool.
type ListLayoutsInput struct{}

// LayoutInfo describes one catalog layout.
type LayoutInfo struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	RequiredFields []string `json:"required_fields"`
}

// ListLayoutsOutput is the result of the list_layouts tool.
type ListLayoutsOutput struct {
	Layouts []LayoutInfo `json:"layouts"`
}
