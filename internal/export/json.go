// Package export renders an enriched presentation for people and downstream
// tools: the JSON document, a short text summary and a Mermaid overview.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dusk-indust/deckenrich/internal/deck"
)

// WriteJSON writes p as indented JSON followed by a newline.
func WriteJSON(w io.Writer, p *deck.EnrichedPresentation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("export: encode presentation: %w", err)
	}
	return nil
}

// WriteFile writes p as JSON to path, creating parent directories. The file
// is written to a sibling temp file first and renamed into place.
func WriteFile(path string, p *deck.EnrichedPresentation) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".deckenrich-*.json")
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteJSON(tmp, p); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
