package export

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/deckenrich/internal/deck"
)

// Summary is the headline view of a run.
type Summary struct {
	Title              string  `json:"title"`
	TotalSlides        int     `json:"total_slides"`
	SuccessfulItems    int     `json:"successful_items"`
	FailedItems        int     `json:"failed_items"`
	GenerationTime     float64 `json:"generation_time"`
	OverallCompliant   bool    `json:"overall_compliant"`
	CriticalViolations int     `json:"critical_violations"`
}

// Summarize extracts the headline numbers of p.
func Summarize(p *deck.EnrichedPresentation) Summary {
	md := p.GenerationMetadata
	return Summary{
		Title:              p.OriginalOutline.MainTitle,
		TotalSlides:        len(p.EnrichedSlides),
		SuccessfulItems:    md.SuccessfulItems,
		FailedItems:        md.FailedItems,
		GenerationTime:     md.GenerationTimeSeconds,
		OverallCompliant:   p.ValidationReport.OverallCompliant,
		CriticalViolations: p.ValidationReport.CriticalViolations,
	}
}

// SummaryText renders a short multi-line report of p, listing failures and
// non-compliant slides.
func SummaryText(p *deck.EnrichedPresentation) string {
	s := Summarize(p)
	md := p.GenerationMetadata
	rep := p.ValidationReport

	var sb strings.Builder
	title := s.Title
	if title == "" {
		title = "untitled presentation"
	}
	fmt.Fprintf(&sb, "Enriched %q: %d slides, %d/%d items generated in %.2fs\n",
		title, s.TotalSlides, s.SuccessfulItems, md.TotalItemsGenerated, s.GenerationTime)

	verdict := "compliant"
	if !rep.OverallCompliant {
		verdict = "NOT compliant"
	}
	fmt.Fprintf(&sb, "Validation: %s (%d/%d slides compliant, %d violations, %d critical)\n",
		verdict, rep.CompliantSlides, rep.TotalSlides, rep.TotalViolations, rep.CriticalViolations)

	if len(md.Failures) > 0 {
		sb.WriteString("Failures:\n")
		for _, f := range md.Failures {
			fmt.Fprintf(&sb, "  - slide %d (%s) %s: %s\n", f.SlideNumber, f.SlideID, f.Type, f.Error)
		}
	}

	for _, es := range p.EnrichedSlides {
		if es.ValidationStatus.Compliant {
			continue
		}
		fmt.Fprintf(&sb, "Slide %s (%s):\n", es.SlideID, es.LayoutID)
		for _, v := range es.ValidationStatus.Violations {
			fmt.Fprintf(&sb, "  - [%s] %s %s: expected %v, got %v\n", v.Severity, v.Field, v.Constraint, v.Expected, v.Actual)
		}
	}
	return sb.String()
}
