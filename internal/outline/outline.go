// Package outline reads presentation outlines and layout assignment files
// from JSON or YAML and checks them against embedded JSON schemas before
// decoding them into deck types.
package outline

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dusk-indust/deckenrich/internal/deck"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema/*.json
var schemaFS embed.FS

// Format is the encoding of an input document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for file extensions other than .json, .yaml
// and .yml.
var ErrUnknownFormat = errors.New("outline: unknown file format")

// SchemaError lists every schema violation of a document.
type SchemaError struct {
	Document string
	Problems []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("outline: invalid %s: %s", e.Document, strings.Join(e.Problems, "; "))
}

var (
	outlineSchema     = mustSchema("schema/outline.schema.json")
	assignmentsSchema = mustSchema("schema/assignments.schema.json")
)

func mustSchema(name string) *gojsonschema.Schema {
	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("outline: read %s: %v", name, err))
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("outline: compile %s: %v", name, err))
	}
	return s
}

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// Load reads and validates an outline file.
func Load(path string) (deck.Outline, error) {
	data, format, err := read(path)
	if err != nil {
		return deck.Outline{}, err
	}
	return Parse(data, format)
}

// Parse validates data against the outline schema and decodes it. Slide ids
// must be unique.
func Parse(data []byte, format Format) (deck.Outline, error) {
	var out deck.Outline
	if err := decodeChecked(data, format, outlineSchema, "outline", &out); err != nil {
		return deck.Outline{}, err
	}
	seen := make(map[string]bool, len(out.Slides))
	for _, s := range out.Slides {
		if seen[s.SlideID] {
			return deck.Outline{}, fmt.Errorf("outline: duplicate slide_id %q", s.SlideID)
		}
		seen[s.SlideID] = true
	}
	return out, nil
}

// LoadAssignments reads and validates a layout assignments file.
func LoadAssignments(path string) ([]deck.LayoutAssignment, error) {
	data, format, err := read(path)
	if err != nil {
		return nil, err
	}
	return ParseAssignments(data, format)
}

// ParseAssignments validates data against the assignments schema and
// decodes it.
func ParseAssignments(data []byte, format Format) ([]deck.LayoutAssignment, error) {
	var out []deck.LayoutAssignment
	if err := decodeChecked(data, format, assignmentsSchema, "layout assignments", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidateOutline checks an already-decoded generic value, such as a tool
// argument, against the outline schema.
func ValidateOutline(doc any) error {
	return check(outlineSchema, "outline", doc)
}

// ValidateAssignments is ValidateOutline for layout assignments.
func ValidateAssignments(doc any) error {
	return check(assignmentsSchema, "layout assignments", doc)
}

func read(path string) ([]byte, Format, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("outline: read %s: %w", path, err)
	}
	return data, format, nil
}

func decodeChecked(data []byte, format Format, schema *gojsonschema.Schema, name string, out any) error {
	unmarshal, err := unmarshaler(format)
	if err != nil {
		return err
	}
	var generic any
	if err := unmarshal(data, &generic); err != nil {
		return fmt.Errorf("outline: parse %s: %w", name, err)
	}
	if err := check(schema, name, generic); err != nil {
		return err
	}
	if err := unmarshal(data, out); err != nil {
		return fmt.Errorf("outline: decode %s: %w", name, err)
	}
	return nil
}

func unmarshaler(format Format) (func([]byte, any) error, error) {
	switch format {
	case FormatJSON:
		return json.Unmarshal, nil
	case FormatYAML:
		return yaml.Unmarshal, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func check(schema *gojsonschema.Schema, name string, doc any) error {
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("outline: validate %s: %w", name, err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return &SchemaError{Document: name, Problems: problems}
}
