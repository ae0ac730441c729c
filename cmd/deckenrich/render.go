package main

import (
	"fmt"
	"io"

	"github.com/dusk-indust/deckenrich/internal/deck"
	"github.com/dusk-indust/deckenrich/internal/export"
)

type renderFunc func(io.Writer, *deck.EnrichedPresentation) error

func renderer(format string) (renderFunc, error) {
	switch format {
	case "json":
		return export.WriteJSON, nil
	case "summary":
		return text(export.SummaryText), nil
	case "mermaid":
		return text(export.Mermaid), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want json, summary or mermaid)", format)
	}
}

func text(fn func(*deck.EnrichedPresentation) string) renderFunc {
	return func(w io.Writer, p *deck.EnrichedPresentation) error {
		_, err := io.WriteString(w, fn(p))
		return err
	}
}
