package export

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/deckenrich/internal/deck"
)

// Mermaid produces a graph TD overview of a run: one node per slide linked
// in outline order, the layout it was stitched into, and a node for every
// failed generation item. Non-compliant slides get the "violation" class.
func Mermaid(p *deck.EnrichedPresentation) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString("  classDef ok fill:#e6f4ea,stroke:#34a853\n")
	sb.WriteString("  classDef violation fill:#fce8e6,stroke:#d93025\n")
	sb.WriteString("  classDef failed fill:#fef7e0,stroke:#f9ab00,stroke-dasharray:4\n")

	var prev string
	for i, es := range p.EnrichedSlides {
		id := fmt.Sprintf("S%d", i)
		label := es.OriginalSlide.Title
		if label == "" {
			label = es.SlideID
		}
		fmt.Fprintf(&sb, "  %s[\"%d. %s\"]\n", id, es.OriginalSlide.SlideNumber, escape(label))
		fmt.Fprintf(&sb, "  %sL([\"%s\"])\n", id, escape(es.LayoutID))
		fmt.Fprintf(&sb, "  %s --- %sL\n", id, id)

		for j, e := range es.Errors {
			fmt.Fprintf(&sb, "  %sF%d[\"%s failed\"]:::failed\n", id, j, e.Type)
			fmt.Fprintf(&sb, "  %s -.-> %sF%d\n", id, id, j)
		}

		class := "ok"
		if !es.ValidationStatus.Compliant {
			class = "violation"
		}
		fmt.Fprintf(&sb, "  class %s %s\n", id, class)

		if prev != "" {
			fmt.Fprintf(&sb, "  %s --> %s\n", prev, id)
		}
		prev = id
	}
	return sb.String()
}

// escape keeps labels inside Mermaid's quoted node syntax and caps them at
// 40 runes.
func escape(s string) string {
	s = strings.ReplaceAll(s, `"`, "'")
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > 40 {
		s = string(r[:40]) + "…"
	}
	return s
}
