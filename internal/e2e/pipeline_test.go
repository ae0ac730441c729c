//go:build e2e

package e2e

import (
	"net/http"
	"strings"
	"testing"

	"github.com/dusk-indust/deckenrich/internal/deck"
	"github.com/dusk-indust/deckenrich/internal/stitch"
	"github.com/dusk-indust/deckenrich/internal/stubsvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPipeline_E2E_HappyPath drives the real HTTP clients against the fake
// services: every request succeeds and every slide is compliant.
func TestPipeline_E2E_HappyPath(t *testing.T) {
	p, srv := runEnrichment(t)

	md := p.GenerationMetadata
	assert.Equal(t, 6, md.TotalRequests)
	assert.Equal(t, 6, md.SuccessfulItems)
	assert.Zero(t, md.FailedItems)
	assert.Empty(t, md.Failures)
	assert.Equal(t, "2.0", md.OrchestratorVersion)
	assert.Equal(t, "lightweight", md.Architecture)
	assert.Equal(t, fixedNow, md.Timestamp)

	assert.Equal(t, 3, srv.Calls(deck.ServiceText))
	assert.Equal(t, 1, srv.Calls(deck.ServiceChart))
	assert.Equal(t, 1, srv.Calls(deck.ServiceImage))
	assert.Equal(t, 1, srv.Calls(deck.ServiceDiagram))

	require.Len(t, p.EnrichedSlides, 3)
	for _, es := range p.EnrichedSlides {
		assert.True(t, es.ValidationStatus.Compliant, "slide %s: %+v", es.SlideID, es.ValidationStatus.Violations)
		assert.Empty(t, es.Errors)
	}
	assert.True(t, p.ValidationReport.OverallCompliant)

	title := p.EnrichedSlides[0]
	assert.Equal(t, "L01", title.LayoutID)
	assert.Equal(t, "Q3 Business Review", title.GeneratedContent["main_title"])
	assert.Equal(t, "2025-10-01", title.GeneratedContent["date"])

	bullets := p.EnrichedSlides[1].GeneratedContent["bullets"].([]string)
	assert.Len(t, bullets, 2)

	chart := p.EnrichedSlides[2]
	assert.Equal(t, "L17", chart.LayoutID)
	assert.True(t, strings.HasPrefix(chart.GeneratedContent["chart_url"].(string), "https://stub.local/charts/"))
}

// TestPipeline_E2E_ChartTimeout: the chart job never finishes, so that one
// item fails while the rest of the presentation is delivered.
func TestPipeline_E2E_ChartTimeout(t *testing.T) {
	p, _ := runEnrichment(t, stubsvc.WithBehavior(deck.ServiceChart, stubsvc.Behavior{NeverComplete: true}))

	md := p.GenerationMetadata
	assert.Equal(t, 5, md.SuccessfulItems)
	assert.Equal(t, 1, md.FailedItems)
	require.Len(t, md.Failures, 1)
	assert.Equal(t, "slide_003", md.Failures[0].SlideID)
	assert.Equal(t, 3, md.Failures[0].SlideNumber)
	assert.Equal(t, deck.ServiceChart, md.Failures[0].Type)
	assert.Contains(t, md.Failures[0].Error, "timed out")

	chart := p.EnrichedSlides[2]
	assert.Equal(t, stitch.PlaceholderChartURL, chart.GeneratedContent["chart_url"])
	require.Len(t, chart.Errors, 1)
	assert.Equal(t, deck.ServiceChart, chart.Errors[0].Type)
	assert.True(t, chart.ValidationStatus.Compliant)
}

// TestPipeline_E2E_TextServiceDown: every text call is rejected. Slides fall
// back to their key points and the failures are listed in slide order.
func TestPipeline_E2E_TextServiceDown(t *testing.T) {
	p, _ := runEnrichment(t, stubsvc.WithBehavior(deck.ServiceText, stubsvc.Behavior{StatusCode: http.StatusServiceUnavailable}))

	md := p.GenerationMetadata
	assert.Equal(t, 3, md.SuccessfulItems)
	assert.Equal(t, 3, md.FailedItems)
	require.Len(t, md.Failures, 3)
	for i, f := range md.Failures {
		assert.Equal(t, i+1, f.SlideNumber)
		assert.Equal(t, deck.ServiceText, f.Type)
		assert.Contains(t, f.Error, "HTTP 503")
	}

	assert.Equal(t, []string{"Revenue growth", "Customer satisfaction"}, p.EnrichedSlides[1].GeneratedContent["bullets"])
	assert.Equal(t, []string{"Revenue growth", "Margin expansion"}, p.EnrichedSlides[2].GeneratedContent["key_insights"])
}
