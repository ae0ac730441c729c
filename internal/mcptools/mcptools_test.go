package mcptools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dusk-indust/deckenrich/internal/genclient"
	"github.com/dusk-indust/deckenrich/internal/orchestrator"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// setupServerClient wires an MCP server and client together using in-memory
// transports. The enricher runs against instant offline generators.
func setupServerClient(t *testing.T, gens genclient.Set) *mcp.ClientSession {
	t.Helper()

	logger := zaptest.NewLogger(t)
	svc := NewEnrichService(orchestrator.New(gens, orchestrator.WithLogger(logger)), logger)
	server := NewServer(svc)

	st, ct := mcp.NewInMemoryTransports()
	ctx := context.Background()

	_, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	return session
}

func instant() genclient.Set {
	return genclient.Set{
		Text:    &genclient.StubText{},
		Chart:   &genclient.StubChart{},
		Image:   &genclient.StubImage{},
		Diagram: &genclient.StubDiagram{},
	}
}

func readJSONFixture(t *testing.T, name string, out any) {
	t.Helper()
	// Tests run from internal/mcptools/, so the relative path is ../../testdata/...
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "fixtures", "outlines", name))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func decodeStructured(t *testing.T, res *mcp.CallToolResult, out any) {
	t.Helper()
	require.NotNil(t, res.StructuredContent, "expected structured content")
	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func errorText(res *mcp.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestMCPListTools(t *testing.T) {
	session := setupServerClient(t, instant())

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"enrich_presentation", "list_layouts"}, names)
}

func TestMCPListLayouts(t *testing.T) {
	session := setupServerClient(t, instant())

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "list_layouts",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	require.False(t, res.IsError, errorText(res))

	var out ListLayoutsOutput
	decodeStructured(t, res, &out)
	require.Len(t, out.Layouts, 4)
	assert.Equal(t, "L01", out.Layouts[0].ID)
	assert.Equal(t, []string{"main_title", "subtitle"}, out.Layouts[0].RequiredFields)
}

func TestMCPEnrich_DefaultAssignments(t *testing.T) {
	session := setupServerClient(t, instant())

	var doc map[string]any
	readJSONFixture(t, "quarterly.json", &doc)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "enrich_presentation",
		Arguments: map[string]any{"outline": doc},
	})
	require.NoError(t, err)
	require.False(t, res.IsError, errorText(res))

	var out EnrichOutput
	decodeStructured(t, res, &out)
	assert.Equal(t, "Q3 Business Review", out.Summary.Title)
	assert.Equal(t, 3, out.Summary.TotalSlides)
	assert.Equal(t, 6, out.Summary.SuccessfulItems)
	assert.Zero(t, out.Summary.FailedItems)
	assert.True(t, out.Summary.OverallCompliant)

	slides, ok := out.Presentation["enriched_slides"].([]any)
	require.True(t, ok)
	assert.Len(t, slides, 3)
}

func TestMCPEnrich_WithAssignments(t *testing.T) {
	session := setupServerClient(t, instant())

	var doc map[string]any
	var assignments []any
	readJSONFixture(t, "quarterly.json", &doc)
	readJSONFixture(t, "quarterly_assignments.json", &assignments)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "enrich_presentation",
		Arguments: map[string]any{"outline": doc, "layout_assignments": assignments},
	})
	require.NoError(t, err)
	require.False(t, res.IsError, errorText(res))

	var out EnrichOutput
	decodeStructured(t, res, &out)
	slides := out.Presentation["enriched_slides"].([]any)
	last := slides[2].(map[string]any)
	assert.Equal(t, "L17", last["layout_id"])
}

func TestMCPEnrich_LayoutMismatchIsToolError(t *testing.T) {
	session := setupServerClient(t, instant())

	var doc map[string]any
	readJSONFixture(t, "quarterly.json", &doc)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "enrich_presentation",
		Arguments: map[string]any{
			"outline": doc,
			"layout_assignments": []any{
				map[string]any{"slide_id": "slide_001", "layout_id": "L01"},
			},
		},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, errorText(res), "1 assignments for 3 slides")
}

func TestMCPEnrich_InvalidOutlineIsToolError(t *testing.T) {
	session := setupServerClient(t, instant())

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "enrich_presentation",
		Arguments: map[string]any{
			"outline": map[string]any{"main_title": "No slides"},
		},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, errorText(res), "slides")
}
