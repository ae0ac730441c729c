// Package layout holds the built-in layout catalog and the default policy
// that assigns a layout to each slide when the caller supplies none.
package layout

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"github.com/dusk-indust/deckenrich/internal/deck"
	"gopkg.in/yaml.v3"
)

// Built-in layout identifiers.
const (
	TitleSlide       = "L01"
	BulletList       = "L05"
	ImageWithText    = "L10"
	ChartWithInsight = "L17"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Layout is one named template with its constraints.
type Layout struct {
	ID          string                 `yaml:"id" json:"id"`
	Name        string                 `yaml:"name" json:"name"`
	Constraints deck.LayoutConstraints `yaml:"constraints" json:"constraints"`
}

// Catalog indexes layouts by ID.
type Catalog struct {
	layouts map[string]Layout
}

type catalogFile struct {
	Layouts []Layout `yaml:"layouts"`
}

// Parse decodes a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("layout: decode catalog: %w", err)
	}
	c := &Catalog{layouts: make(map[string]Layout, len(f.Layouts))}
	for _, l := range f.Layouts {
		if l.ID == "" {
			return nil, fmt.Errorf("layout: catalog entry %q has no id", l.Name)
		}
		if _, dup := c.layouts[l.ID]; dup {
			return nil, fmt.Errorf("layout: duplicate layout id %q", l.ID)
		}
		c.layouts[l.ID] = l
	}
	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog. It panics if the embedded document
// is invalid, which only a broken build can cause.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(catalogYAML)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Lookup returns a copy of the layout with the given ID.
func (c *Catalog) Lookup(id string) (Layout, bool) {
	l, ok := c.layouts[id]
	if !ok {
		return Layout{}, false
	}
	l.Constraints = l.Constraints.Clone()
	return l, true
}

// IDs returns the catalog's layout IDs in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.layouts))
	for id := range c.layouts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Choose picks a layout ID for a slide from its type and guidance.
func Choose(s deck.Slide) string {
	switch {
	case s.SlideType == deck.SlideTypeTitle:
		return TitleSlide
	case (s.SlideType == deck.SlideTypeDataDriven || s.SlideType == deck.SlideTypeContentHeavy) && s.HasAnalytics():
		return ChartWithInsight
	case s.SlideType == deck.SlideTypeVisualHeavy && s.HasVisuals():
		return ImageWithText
	default:
		return BulletList
	}
}

// Assign synthesizes one assignment per slide using Choose.
func (c *Catalog) Assign(slides []deck.Slide) []deck.LayoutAssignment {
	out := make([]deck.LayoutAssignment, 0, len(slides))
	for _, s := range slides {
		id := Choose(s)
		l, ok := c.Lookup(id)
		if !ok {
			l = Layout{ID: id}
		}
		out = append(out, deck.LayoutAssignment{
			SlideID:     s.SlideID,
			SlideNumber: s.SlideNumber,
			LayoutID:    l.ID,
			LayoutName:  l.Name,
			Constraints: l.Constraints,
		})
	}
	return out
}

// DefaultAssignments assigns layouts from the embedded catalog.
func DefaultAssignments(o deck.Outline) []deck.LayoutAssignment {
	return Default().Assign(o.Slides)
}
