package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dusk-indust/deckenrich/internal/deck"
	"github.com/dusk-indust/deckenrich/internal/stubsvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(name string) string {
	return filepath.Join("..", "..", "testdata", "fixtures", "outlines", name)
}

// execute runs the root command with args and returns what it wrote.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestEnrich_OfflineSummary(t *testing.T) {
	stdout, stderr, err := execute(t, "enrich", "--offline", "--format", "summary", fixture("quarterly.yaml"))
	require.NoError(t, err)

	assert.Contains(t, stdout, `Enriched "Q3 Business Review": 3 slides, 6/6 items generated`)
	assert.Contains(t, stdout, "Validation: compliant (3/3 slides compliant")
	assert.Contains(t, stderr, "Building API requests [1/5]")
	assert.Contains(t, stderr, "Creating final report [5/5]")
}

func TestEnrich_Quiet(t *testing.T) {
	stdout, stderr, err := execute(t, "enrich", "--offline", "-q", "-f", "mermaid", fixture("quarterly.json"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "graph TD\n"))
	assert.NotContains(t, stderr, "[1/5]")
}

func TestEnrich_OutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "deck.json")
	stdout, stderr, err := execute(t, "enrich", "--offline",
		"--assignments", fixture("quarterly_assignments.json"),
		"--output", out,
		fixture("quarterly.yaml"))
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "wrote "+out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var p deck.EnrichedPresentation
	require.NoError(t, json.Unmarshal(data, &p))
	require.Len(t, p.EnrichedSlides, 3)
	assert.Equal(t, "L17", p.EnrichedSlides[2].LayoutID)
	assert.Equal(t, 6, p.GenerationMetadata.SuccessfulItems)
}

func TestEnrich_AssignmentMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "one.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"slide_id": "slide_001", "layout_id": "L01"}]`), 0o644))

	_, _, err := execute(t, "enrich", "--offline", "-a", path, fixture("quarterly.yaml"))
	require.ErrorIs(t, err, deck.ErrLayoutMismatch)
	assert.Contains(t, err.Error(), "1 assignments for 3 slides")
}

func TestEnrich_BadInput(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "unknown format",
			args:    []string{"enrich", "--offline", "--format", "pdf", fixture("quarterly.yaml")},
			wantErr: `unknown format "pdf"`,
		},
		{
			name:    "missing outline",
			args:    []string{"enrich", "--offline", "nope.yaml"},
			wantErr: "nope.yaml",
		},
		{
			name:    "no outline argument",
			args:    []string{"enrich"},
			wantErr: "accepts 1 arg",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnrich_AgainstStubServices(t *testing.T) {
	stub := stubsvc.New()
	ts := httptest.NewServer(stub.Handler())
	t.Cleanup(ts.Close)
	ep := stubsvc.EndpointsFor(ts.URL)

	t.Setenv("TEXT_SERVICE_URL", ep.Text)
	t.Setenv("CHART_SERVICE_URL", ep.Chart)
	t.Setenv("IMAGE_SERVICE_URL", ep.Image)
	t.Setenv("DIAGRAM_SERVICE_URL", ep.Diagram)
	t.Setenv("CHART_POLL_INTERVAL", "10ms")
	t.Setenv("DIAGRAM_POLL_INTERVAL", "10ms")

	stdout, _, err := execute(t, "enrich", "-q", "-f", "summary", fixture("quarterly.yaml"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "6/6 items generated")
	assert.Equal(t, 3, stub.Calls(deck.ServiceText))
	assert.Equal(t, 1, stub.Calls(deck.ServiceChart))
}

func TestLayouts(t *testing.T) {
	stdout, _, err := execute(t, "layouts")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.True(t, strings.HasPrefix(lines[1], "L01"))
	assert.True(t, strings.HasPrefix(lines[4], "L17"))
}

func TestLayouts_JSON(t *testing.T) {
	stdout, _, err := execute(t, "layouts", "--json")
	require.NoError(t, err)

	var got []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.Len(t, got, 4)
	assert.Equal(t, "L10", got[2].ID)
}

func TestServeStub_UnknownService(t *testing.T) {
	_, _, err := execute(t, "serve-stub", "--fail", "video")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown service "video"`)
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, version)
}
