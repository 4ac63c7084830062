package layout

import (
	"fmt"
	"strings"
)

// FieldType identifies the kind of form widget a field becomes on export
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeDropdown FieldType = "dropdown"
)

// Default field sizes in canvas pixels
const (
	DefaultTextWidth      = 200
	DefaultTextHeight     = 30
	DefaultCheckboxWidth  = 20
	DefaultCheckboxHeight = 20

	// MinFieldSize is the floor applied to both dimensions on resize
	MinFieldSize = 20
)

// ParseFieldType converts a user supplied type name into a FieldType
func ParseFieldType(s string) (FieldType, error) {
	switch t := FieldType(strings.ToLower(strings.TrimSpace(s))); t {
	case FieldTypeText, FieldTypeCheckbox, FieldTypeDropdown:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFieldType, s)
	}
}

// Valid reports whether t is one of the supported field types
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeText, FieldTypeCheckbox, FieldTypeDropdown:
		return true
	}
	return false
}

// DefaultSize returns the size a freshly placed field of this type gets
func (t FieldType) DefaultSize() Size {
	if t == FieldTypeCheckbox {
		return Size{Width: DefaultCheckboxWidth, Height: DefaultCheckboxHeight}
	}
	return Size{Width: DefaultTextWidth, Height: DefaultTextHeight}
}

// Icon returns the glyph shown in front of the field label in the editor
func (t FieldType) Icon() string {
	switch t {
	case FieldTypeText:
		return "📝"
	case FieldTypeCheckbox:
		return "☑️"
	case FieldTypeDropdown:
		return "📋"
	}
	return ""
}

// Title returns the capitalized type name used in dialogs
func (t FieldType) Title() string {
	if t == "" {
		return ""
	}
	s := string(t)
	return strings.ToUpper(s[:1]) + s[1:]
}

// Field is a placed form element with canvas-space geometry
type Field struct {
	ID       int       `json:"id" yaml:"id"`
	Type     FieldType `json:"type" yaml:"type"`
	X        float64   `json:"x" yaml:"x"`
	Y        float64   `json:"y" yaml:"y"`
	Width    float64   `json:"width" yaml:"width"`
	Height   float64   `json:"height" yaml:"height"`
	Name     string    `json:"name" yaml:"name"`
	Required bool      `json:"required" yaml:"required"`
	Options  []string  `json:"options,omitempty" yaml:"options,omitempty"`
}

// Rect returns the field's bounding box in canvas space
func (f *Field) Rect() Rect {
	return Rect{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height}
}

// Clone returns a deep copy of the field
func (f *Field) Clone() *Field {
	c := *f
	if f.Options != nil {
		c.Options = append([]string(nil), f.Options...)
	}
	return &c
}

// Label is the text shown on the field overlay
func (f *Field) Label() string {
	icon := f.Type.Icon()
	if icon == "" {
		return f.Name
	}
	return icon + " " + f.Name
}

// NormalizeOptions trims each option and drops the blank ones
func NormalizeOptions(options []string) []string {
	out := make([]string, 0, len(options))
	for _, opt := range options {
		if opt = strings.TrimSpace(opt); opt != "" {
			out = append(out, opt)
		}
	}
	return out
}

// SplitOptions turns newline separated dialog input into an option list
func SplitOptions(text string) []string {
	return NormalizeOptions(strings.Split(text, "\n"))
}
