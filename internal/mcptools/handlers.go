package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dusk-indust/deckenrich/internal/deck"
	"github.com/dusk-indust/deckenrich/internal/export"
	"github.com/dusk-indust/deckenrich/internal/layout"
	"github.com/dusk-indust/deckenrich/internal/orchestrator"
	"github.com/dusk-indust/deckenrich/internal/outline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// EnrichService handles the MCP tool calls.
type EnrichService struct {
	enricher *orchestrator.Enricher
	catalog  *layout.Catalog
	logger   *zap.Logger
}

// NewEnrichService wraps an Enricher. A nil logger is replaced by a no-op one.
func NewEnrichService(e *orchestrator.Enricher, logger *zap.Logger) *EnrichService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrichService{enricher: e, catalog: layout.Default(), logger: logger}
}

// Enrich runs one enrichment. Invalid documents and layout mismatches are
// reported as tool errors; generation failures are part of the output.
func (s *EnrichService) Enrich(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input EnrichInput,
) (*mcp.CallToolResult, EnrichOutput, error) {
	if input.Outline == nil {
		return nil, EnrichOutput{}, fmt.Errorf("outline is required")
	}

	o, err := decodeOutline(input.Outline)
	if err != nil {
		return nil, EnrichOutput{}, err
	}
	assignments, err := decodeAssignments(input.LayoutAssignments)
	if err != nil {
		return nil, EnrichOutput{}, err
	}

	progress := func(message string, current, total int) {
		s.logger.Debug("enrich progress", zap.String("message", message), zap.Int("current", current), zap.Int("total", total))
	}
	p, err := s.enricher.Enrich(ctx, o, assignments, progress)
	if err != nil {
		return nil, EnrichOutput{}, err
	}

	doc, err := toMap(p)
	if err != nil {
		return nil, EnrichOutput{}, err
	}
	return nil, EnrichOutput{Summary: export.Summarize(p), Presentation: doc}, nil
}

// ListLayouts returns the built-in layout catalog.
func (s *EnrichService) ListLayouts(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListLayoutsInput,
) (*mcp.CallToolResult, ListLayoutsOutput, error) {
	out := ListLayoutsOutput{Layouts: []LayoutInfo{}}
	for _, id := range s.catalog.IDs() {
		l, _ := s.catalog.Lookup(id)
		req := l.Constraints.RequiredFields
		if req == nil {
			req = []string{}
		}
		out.Layouts = append(out.Layouts, LayoutInfo{ID: l.ID, Name: l.Name, RequiredFields: req})
	}
	return nil, out, nil
}

func decodeOutline(doc map[string]any) (deck.Outline, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return deck.Outline{}, fmt.Errorf("encode outline: %w", err)
	}
	return outline.Parse(raw, outline.FormatJSON)
}

func decodeAssignments(docs []map[string]any) ([]deck.LayoutAssignment, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("encode layout assignments: %w", err)
	}
	return outline.ParseAssignments(raw, outline.FormatJSON)
}

func toMap(p *deck.EnrichedPresentation) (map[string]any, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode presentation: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("encode presentation: %w", err)
	}
	return m, nil
}
