package pdf

import (
	"errors"
	"fmt"

	"github.com/a3tai/pdf-form-designer/internal/layout"
)

// DefaultOutputName is the file name offered for exported documents
const DefaultOutputName = "form-filled.pdf"

var (
	ErrNoFields      = errors.New("please add at least one field before downloading")
	ErrNoCanvas      = errors.New("canvas size is unknown")
	ErrNoDocument    = errors.New("no PDF document loaded")
	ErrDuplicateName = errors.New("a field with this name already exists")
)

// LoadError reports PDF input that is malformed, unreadable or too large.
// The load is aborted and any previous document stays in place.
type LoadError struct {
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("error loading PDF: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("error loading PDF: %s", e.Reason)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ExportedField describes a widget written to the output document
type ExportedField struct {
	FieldID int              `json:"field_id"`
	Name    string           `json:"name"`
	Type    layout.FieldType `json:"type"`
	Rect    layout.Rect      `json:"rect"`
}

// FieldFailure records a field that could not be added to the output
type FieldFailure struct {
	FieldID int    `json:"field_id"`
	Name    string `json:"name"`
	Error   string `json:"error"`
}

// ExportReport summarizes an export run
type ExportReport struct {
	PageSize layout.Size     `json:"page_size"`
	Exported []ExportedField `json:"exported"`
	Failed   []FieldFailure  `json:"failed,omitempty"`
	Size     int             `json:"size"`
}

// FormField is an AcroForm field found in an existing document
type FormField struct {
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Required bool        `json:"required"`
	Options  []string    `json:"options,omitempty"`
	Rect     layout.Rect `json:"rect"`
}

// Form field types reported by InspectFields
const (
	FormFieldText      = "text"
	FormFieldCheckbox  = "checkbox"
	FormFieldRadio     = "radio"
	FormFieldButton    = "button"
	FormFieldDropdown  = "dropdown"
	FormFieldList      = "list"
	FormFieldSignature = "signature"
	FormFieldUnknown   = "unknown"
)
