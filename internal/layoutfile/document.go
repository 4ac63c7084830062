// Package layoutfile reads and writes field layouts so a design can be saved
// and replayed onto another copy of a document.
package layoutfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/a3tai/pdf-form-designer/internal/layout"
)

// Format selects the encoding of a layout file
type Format string

const (
	FormatYAML   Format = "yaml"
	FormatJSON   Format = "json"
	FormatFields Format = "fields"
)

// ErrUnknownFormat is returned for file extensions without a codec
var ErrUnknownFormat = errors.New("unknown layout format")

// Document is the on-disk form of a layout
type Document struct {
	Canvas layout.Size `json:"canvas" yaml:"canvas"`
	Fields []FieldSpec `json:"fields" yaml:"fields"`
}

// FieldSpec describes one field. A zero width or height keeps the type's
// default size.
type FieldSpec struct {
	Type     layout.FieldType `json:"type" yaml:"type"`
	Name     string           `json:"name" yaml:"name"`
	X        float64          `json:"x" yaml:"x"`
	Y        float64          `json:"y" yaml:"y"`
	Width    float64          `json:"width,omitempty" yaml:"width,omitempty"`
	Height   float64          `json:"height,omitempty" yaml:"height,omitempty"`
	Required bool             `json:"required,omitempty" yaml:"required,omitempty"`
	Options  []string         `json:"options,omitempty" yaml:"options,omitempty"`
}

// ParseFormat maps a format name or a file extension to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "fields":
		return FormatFields, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath picks the format from the file extension
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Parse decodes data in the given format
func Parse(data []byte, format Format) (*Document, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("layout is empty")
	}

	var doc Document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid YAML layout: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid JSON layout: %w", err)
		}
	case FormatFields:
		parsed, err := ParseFields(string(data))
		if err != nil {
			return nil, err
		}
		doc = *parsed
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return &doc, nil
}

// Encode renders doc in the given format
func Encode(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(doc)
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatFields:
		return []byte(FormatFieldsText(doc)), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Load reads a layout file, choosing the codec from its extension
func Load(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read layout: %w", err)
	}
	doc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Save writes doc to path, choosing the codec from its extension
func Save(path string, doc *Document) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Encode(doc, format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("cannot create layout directory: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// FromModel captures the persisted fields of m
func FromModel(m *layout.Model) *Document {
	fields := m.Fields()
	doc := &Document{
		Canvas: m.Canvas(),
		Fields: make([]FieldSpec, 0, len(fields)),
	}
	for _, f := range fields {
		doc.Fields = append(doc.Fields, FieldSpec{
			Type:     f.Type,
			Name:     f.Name,
			X:        f.X,
			Y:        f.Y,
			Width:    f.Width,
			Height:   f.Height,
			Required: f.Required,
			Options:  f.Options,
		})
	}
	return doc
}
